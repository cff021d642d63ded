package vaultkv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/podlab/secretsbp.go/log"
	"github.com/podlab/secretsbp.go/prometheusbp"
)

// SecretVersion is the current version of a secret path, as assigned by the
// store.
//
// Versions are only comparable for the same Path.
type SecretVersion struct {
	Path    string
	Version int
}

// VersionReader is the part of Client used by Watch.
type VersionReader interface {
	ReadVersion(ctx context.Context, path, mount string) (SecretVersion, error)
}

var _ VersionReader = (*Client)(nil)

// Client reads secrets from a KV version 2 engine.
//
// It's safe for concurrent use.
type Client struct {
	addr   string
	api    *api.Client
	logger log.Wrapper
}

// New creates a Client and checks its token against the store.
//
// It fails with ErrConfiguration, without any request sent, when no token is
// configured, and with ErrAuthentication when the token lookup fails.
// Client side retries are disabled, a failed request is reported as-is.
func New(ctx context.Context, cfg Config, logger log.Wrapper) (*Client, error) {
	logger = log.OrNop(logger)

	token := cfg.token()
	if token == "" {
		env := cfg.TokenEnv
		if env == "" {
			env = DefaultTokenEnv
		}
		return nil, fmt.Errorf("%w: no token, set Token or $%s", ErrConfiguration, env)
	}

	addr := cfg.addr()
	apiCfg := api.DefaultConfig()
	if apiCfg.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, apiCfg.Error)
	}
	apiCfg.Address = addr
	apiCfg.MaxRetries = 0
	apiCfg.Timeout = cfg.timeout()

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	client.SetToken(token)

	c := &Client{
		addr:   addr,
		api:    client,
		logger: logger,
	}

	start := time.Now()
	_, err = client.Auth().Token().LookupSelfWithContext(ctx)
	observe(opAuth, start, err)
	if err != nil {
		return nil, fmt.Errorf("%w: token lookup at %s: %v", ErrAuthentication, addr, err)
	}

	logger.Infow(MsgConnected, "addr", addr)
	return c, nil
}

// Addr returns the address of the store.
func (c *Client) Addr() string {
	return c.addr
}

// ReadSecret returns the data of the current version of the secret at path.
//
// mount is the mount point of the KV engine, empty means DefaultMount.
// Errors wrap ErrSecretNotFound, or are *StoreError.
func (c *Client) ReadSecret(ctx context.Context, path, mount string) (map[string]interface{}, error) {
	secret, err := c.get(ctx, path, mount)
	if err != nil {
		return nil, err
	}
	if secret.Data == nil {
		return nil, fmt.Errorf("%w: %q has no data", ErrSecretNotFound, path)
	}
	c.logger.Infow(MsgSecretRead, "path", path, "fields", len(secret.Data))
	return secret.Data, nil
}

// ReadVersion returns the current version of the secret at path.
//
// A current version that was deleted still reports its version.
func (c *Client) ReadVersion(ctx context.Context, path, mount string) (SecretVersion, error) {
	secret, err := c.get(ctx, path, mount)
	if err != nil {
		return SecretVersion{}, err
	}
	if secret.VersionMetadata == nil {
		return SecretVersion{}, fmt.Errorf("%w: %q has no version metadata", ErrSecretNotFound, path)
	}
	return SecretVersion{
		Path:    path,
		Version: secret.VersionMetadata.Version,
	}, nil
}

func (c *Client) get(ctx context.Context, path, mount string) (*api.KVSecret, error) {
	path = strings.Trim(path, "/")
	start := time.Now()
	secret, err := c.api.KVv2(mountOrDefault(mount)).Get(ctx, path)
	observe(opRead, start, err)
	if errors.Is(err, api.ErrSecretNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrSecretNotFound, path)
	}
	if err != nil {
		return nil, &StoreError{
			Op:   opRead,
			Path: path,
			Err:  err,
		}
	}
	return secret, nil
}

// ListSecrets returns the keys directly under basePath.
//
// Sub-paths end with "/". Failures are soft: they are logged as a warning and
// an empty list is returned.
func (c *Client) ListSecrets(ctx context.Context, basePath, mount string) []string {
	basePath = strings.Trim(basePath, "/")
	start := time.Now()
	secret, err := c.api.Logical().ListWithContext(ctx, mountOrDefault(mount)+"/metadata/"+basePath)
	observe(opList, start, err)
	if err != nil {
		c.logger.Warnw(MsgListFailed, "path", basePath, "err", err)
		return []string{}
	}
	if secret == nil || secret.Data == nil {
		return []string{}
	}

	raw, _ := secret.Data["keys"].([]interface{})
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if s, ok := k.(string); ok {
			keys = append(keys, s)
		}
	}
	return keys
}

// WatchSecret runs Watch on path with c as the source and the logger of c as
// the sink.
//
// It blocks until ctx is done.
func (c *Client) WatchSecret(ctx context.Context, path string, interval time.Duration, mount string) error {
	return Watch(ctx, c, WatchConfig{
		Path:     path,
		Mount:    mount,
		Interval: interval,
		Logger:   c.logger,
	})
}

func observe(op string, start time.Time, err error) {
	result := prometheusbp.ResultOK
	switch {
	case err == nil:
	case errors.Is(err, api.ErrSecretNotFound):
		result = resultNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		result = resultCanceled
	default:
		result = prometheusbp.ResultError
	}
	requestsCounter.WithLabelValues(op, result).Inc()
	requestLatency.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
}

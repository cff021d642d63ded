package secrets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/podlab/secretsbp.go/internal/prometheusbpint"
)

// DefaultRoot is where podman and docker mount secrets inside a container.
const DefaultRoot = "/run/secrets"

// DefaultMaxFileSize is the soft size limit of a secret file used when
// Config.MaxFileSize <= 0.
//
// Files larger than HardLimitMultiplier times the soft limit are refused.
const (
	DefaultMaxFileSize  = 64 * 1024
	HardLimitMultiplier = 10
)

// PermissionMask selects the group and other permission bits.
// A secret file must have none of them set.
const PermissionMask = 0o077

// Signals emitted to the log.Wrapper, at the level noted.
const (
	// info
	MsgSecretRead = "secret read"
	// warn
	MsgEnvFallback = "secret file not found, using insecure environment variable fallback"
	// warn
	MsgMountChanged = "secret mount changed"
	// error
	MsgMountWatchError = "secret mount watcher error"
)

const promNamespace = "secrets"

// Result label values of secrets_local_read_total.
const (
	resultOK               = "ok"
	resultNotFound         = "not_found"
	resultPermissionDenied = "permission_denied"
	resultEmpty            = "empty"
	resultInvalidName      = "invalid_name"
	resultError            = "error"
)

var (
	readCounter = promauto.With(prometheusbpint.GlobalRegistry).NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "local_read_total",
		Help:      "Total number of secret reads from the secrets root, by result",
	}, []string{"result"})

	envFallbackCounter = promauto.With(prometheusbpint.GlobalRegistry).NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "env_fallback_total",
		Help:      "Total number of secrets served from an environment variable instead of the secrets root",
	})
)

// Config is the configuration struct for the secrets package.
//
// Can be deserialized from YAML.
type Config struct {
	// Root is the directory secrets are mounted in.
	// Empty means DefaultRoot.
	Root string `yaml:"root"`

	// MaxFileSize is the soft size limit of a secret file.
	// <=0 means DefaultMaxFileSize.
	MaxFileSize int64 `yaml:"maxFileSize"`
}

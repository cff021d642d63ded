package vaultkv

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/podlab/secretsbp.go/internal/prometheusbpint"
	"github.com/podlab/secretsbp.go/prometheusbp"
)

// Defaults used when the corresponding Config or WatchConfig field is empty.
const (
	DefaultAddr     = "http://localhost:8200"
	DefaultAddrEnv  = "BAO_ADDR"
	DefaultTokenEnv = "BAO_TOKEN"
	DefaultMount    = "kv"
	DefaultTimeout  = 10 * time.Second

	DefaultWatchInterval = 60 * time.Second
)

// Signals emitted to the log.Wrapper, at the level noted.
const (
	// info
	MsgConnected = "connected to secret store"
	// info
	MsgSecretRead = "secret read from store"
	// warn
	MsgListFailed = "failed to list secrets"
	// info
	MsgWatchStarted = "watching secret"
	// info
	MsgInitialVersion = "initial secret version"
	// warn
	MsgVersionChanged = "secret version changed, reload recommended"
	// error
	MsgTickFailed = "secret watch tick failed"
)

// Config is the configuration struct for the vaultkv package.
//
// Can be deserialized from YAML.
type Config struct {
	// Addr is the store address, e.g. "https://bao.internal:8200".
	//
	// Empty means the environment variable named by AddrEnv,
	// then DefaultAddr.
	Addr string `yaml:"addr"`

	// Token is the store token.
	//
	// Empty means the environment variable named by TokenEnv.
	// It's an error if neither is set.
	Token string `yaml:"token"`

	// Optional, defaults to DefaultAddrEnv and DefaultTokenEnv.
	AddrEnv  string `yaml:"addrEnv"`
	TokenEnv string `yaml:"tokenEnv"`

	// Per request timeout, <=0 means DefaultTimeout.
	Timeout time.Duration `yaml:"timeout"`
}

func (c Config) addr() string {
	if c.Addr != "" {
		return c.Addr
	}
	env := c.AddrEnv
	if env == "" {
		env = DefaultAddrEnv
	}
	if addr := os.Getenv(env); addr != "" {
		return addr
	}
	return DefaultAddr
}

func (c Config) token() string {
	if c.Token != "" {
		return c.Token
	}
	env := c.TokenEnv
	if env == "" {
		env = DefaultTokenEnv
	}
	return os.Getenv(env)
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func mountOrDefault(mount string) string {
	if mount == "" {
		return DefaultMount
	}
	return mount
}

const promNamespace = "vaultkv"

// Label values of the op label.
const (
	opAuth = "auth"
	opRead = "read"
	opList = "list"
)

// Extra label values of the result labels.
const (
	resultNotFound = "not_found"
	resultCanceled = "canceled"
)

var (
	requestLabels = []string{"op", "result"}

	requestsCounter = promauto.With(prometheusbpint.GlobalRegistry).NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "requests_total",
		Help:      "Total number of requests sent to the secret store, by operation and result",
	}, requestLabels)

	requestLatency = promauto.With(prometheusbpint.GlobalRegistry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: promNamespace,
		Name:      "request_latency_seconds",
		Help:      "Latency of requests sent to the secret store, by operation and result",
		Buckets:   prometheusbp.DefaultLatencyBuckets,
	}, requestLabels)

	watchTicksCounter = promauto.With(prometheusbpint.GlobalRegistry).NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "watch_ticks_total",
		Help:      "Total number of secret watch polls, by result",
	}, []string{"result"})

	watchChangesCounter = promauto.With(prometheusbpint.GlobalRegistry).NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "watch_changes_total",
		Help:      "Total number of secret version changes seen by watches",
	})
)

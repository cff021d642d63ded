package vaultkv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/podlab/secretsbp.go/errorsbp"
	"github.com/podlab/secretsbp.go/log"
	"github.com/podlab/secretsbp.go/prometheusbp"
)

// ChangeEvent is reported by Watch when the version of a secret changes.
type ChangeEvent struct {
	Path     string
	Previous int
	Current  int
}

// WatchConfig defines the config to be used in Watch.
//
// Can be deserialized from YAML, except for OnChange and Logger.
type WatchConfig struct {
	// The path of the secret to watch, required.
	Path string `yaml:"path"`

	// The mount point of the KV engine, empty means DefaultMount.
	Mount string `yaml:"mount"`

	// Time between two polls, <=0 means DefaultWatchInterval.
	Interval time.Duration `yaml:"interval"`

	// Optional. Called once per change, from the watching goroutine.
	OnChange func(ChangeEvent) `yaml:"-"`

	// Optional. Receives the watch signals, nil means no logging.
	Logger log.Wrapper `yaml:"-"`
}

// Validate checks the config without changing it.
func (cfg WatchConfig) Validate() error {
	if strings.Trim(cfg.Path, "/") == "" {
		return errors.New("vaultkv: watch path is required")
	}
	return nil
}

// watchState is only touched by the goroutine running Watch.
type watchState struct {
	observed     bool
	lastObserved int
}

// Watch polls the version of cfg.Path until ctx is done.
//
// The first poll happens right away, then one every cfg.Interval.
// The first version seen is logged as MsgInitialVersion,
// every different version after that is logged as MsgVersionChanged and
// reported to cfg.OnChange.
// A failed poll is logged as MsgTickFailed and the watch goes on with the next
// scheduled poll.
//
// Watch returns nil when ctx is done, and an error only when cfg is invalid.
func Watch(ctx context.Context, src VersionReader, cfg WatchConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	path := strings.Trim(cfg.Path, "/")
	mount := mountOrDefault(cfg.Mount)
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	logger := log.OrNop(cfg.Logger)

	logger.Infow(MsgWatchStarted, "path", path, "mount", mount, "interval", interval)

	var state watchState
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		state.tick(ctx, src, path, mount, cfg.OnChange, logger)
		timer.Reset(interval)
	}
}

func (s *watchState) tick(
	ctx context.Context,
	src VersionReader,
	path, mount string,
	onChange func(ChangeEvent),
	logger log.Wrapper,
) {
	if ctx.Err() != nil {
		return
	}

	v, err := src.ReadVersion(ctx, path, mount)
	if err != nil {
		if ctx.Err() != nil {
			// Shutting down, not a failure.
			return
		}
		watchTicksCounter.WithLabelValues(prometheusbp.ResultError).Inc()
		logger.Errorw(MsgTickFailed, "path", path, "err", err)
		return
	}
	watchTicksCounter.WithLabelValues(prometheusbp.ResultOK).Inc()

	switch {
	case !s.observed:
		logger.Infow(MsgInitialVersion, "path", path, "version", v.Version)
	case v.Version != s.lastObserved:
		ev := ChangeEvent{
			Path:     path,
			Previous: s.lastObserved,
			Current:  v.Version,
		}
		watchChangesCounter.Inc()
		logger.Warnw(MsgVersionChanged, "path", path, "previous", ev.Previous, "current", ev.Current)
		if onChange != nil {
			onChange(ev)
		}
	}
	s.observed = true
	s.lastObserved = v.Version
}

// WatchAll runs one Watch per config, sharing src, until ctx is done.
//
// All the configs are validated before any watch starts,
// the returned error then holds every invalid config.
func WatchAll(ctx context.Context, src VersionReader, cfgs []WatchConfig) error {
	var batch errorsbp.Batch
	for i, cfg := range cfgs {
		if err := cfg.Validate(); err != nil {
			batch.AddPrefix(fmt.Sprintf("watch[%d]", i), err)
		}
	}
	if err := batch.Compile(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, cfg := range cfgs {
		cfg := cfg
		g.Go(func() error {
			return Watch(ctx, src, cfg)
		})
	}
	return g.Wait()
}

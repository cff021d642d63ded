// Package log provides a wrapped zap logger for the secretsbp binaries,
// and the Wrapper interface that the other secretsbp packages accept as their
// diagnostic sink.
//
// Library code never logs through the global logger directly.
// Instead it takes a Wrapper at construction time,
// so that callers (and tests) decide where the signals go:
//
//	reader := secrets.NewReader(cfg, log.GlobalWrapper())
//
// Binaries initialize the global logger once, early in main:
//
//	log.InitFromConfig(cfg.Log)
//
// Secret values must never be passed to any logging function,
// only names, lengths and versions.
package log

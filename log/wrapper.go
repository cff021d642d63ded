package log

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// Wrapper is the leveled diagnostic sink accepted by the secretsbp packages.
//
// Its method set is a subset of *zap.SugaredLogger,
// so any sugared logger can be used as a Wrapper directly.
// The variadic key-value pairs are treated as they are in zap's With.
type Wrapper interface {
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

var _ Wrapper = (*zap.SugaredLogger)(nil)

// NopWrapper returns a Wrapper that does nothing.
func NopWrapper() Wrapper {
	return zap.NewNop().Sugar()
}

// GlobalWrapper returns a Wrapper that forwards to the global logger
// initialized by the Init* functions.
//
// The global logger is looked up on every call,
// so it's safe to call GlobalWrapper before the logger is initialized.
func GlobalWrapper() Wrapper {
	return globalWrapper{}
}

type globalWrapper struct{}

func (globalWrapper) Infow(msg string, keysAndValues ...interface{}) {
	logger.Infow(msg, keysAndValues...)
}

func (globalWrapper) Warnw(msg string, keysAndValues ...interface{}) {
	logger.Warnw(msg, keysAndValues...)
}

func (globalWrapper) Errorw(msg string, keysAndValues ...interface{}) {
	logger.Errorw(msg, keysAndValues...)
}

// OrNop returns w, or NopWrapper when w is nil.
func OrNop(w Wrapper) Wrapper {
	if w == nil {
		return NopWrapper()
	}
	return w
}

// TestWrapper is a Wrapper to be used in test code.
//
// Every entry is written to the test log through tb,
// and also recorded in the returned ObservedLogs so that the test can assert
// on the signals emitted.
func TestWrapper(tb testing.TB) (Wrapper, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	tee := zapcore.NewTee(core, zaptest.NewLogger(tb).Core())
	return zap.New(tee).Sugar(), logs
}

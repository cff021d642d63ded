package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop().Sugar()

// Level is the verbose representation of log level, as used in Config and
// the -log-level flag.
type Level string

// Supported Levels.
//
// The secretsbp packages never panic or exit through the logger, so there is
// no panic or fatal level.
const (
	NopLevel   Level = "nop"
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"

	// ZapNopLevel is above every level a logger emits at.
	ZapNopLevel zapcore.Level = zapcore.FatalLevel + 1
)

var zapLevels = map[Level]zapcore.Level{
	DebugLevel: zapcore.DebugLevel,
	InfoLevel:  zapcore.InfoLevel,
	WarnLevel:  zapcore.WarnLevel,
	ErrorLevel: zapcore.ErrorLevel,
}

// ToZapLevel converts Level to a zap level.
//
// Unknown levels disable logging.
func (l Level) ToZapLevel() zapcore.Level {
	if lvl, ok := zapLevels[l]; ok {
		return lvl
	}
	return ZapNopLevel
}

// InitLogger initializes the global logger with the console encoding.
func InitLogger(logLevel Level) {
	mustInit(logLevel, zapConfig(logLevel, false))
}

// InitLoggerJSON initializes the global logger with full json format.
func InitLoggerJSON(logLevel Level) {
	mustInit(logLevel, zapConfig(logLevel, true))
}

func zapConfig(logLevel Level, json bool) zap.Config {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(logLevel.ToZapLevel())
	if json {
		config.Encoding = "json"
		config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		config.EncoderConfig.EncodeTime = JSONTimeEncoder
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		config.EncoderConfig.MessageKey = "message"
		config.EncoderConfig.TimeKey = "timestamp"
		return config
	}
	config.Encoding = "console"
	config.EncoderConfig.EncodeCaller = ShortCallerEncoder
	config.EncoderConfig.EncodeTime = TimeEncoder
	config.EncoderConfig.EncodeLevel = CapitalLevelEncoder
	return config
}

func mustInit(logLevel Level, cfg zap.Config) {
	if err := InitLoggerWithConfig(logLevel, cfg); err != nil {
		// Only a broken encoder config fails, and zapConfig never builds one.
		panic(err)
	}
}

// InitLoggerWithConfig starts or replaces the global logger with one built
// from cfg.
//
// NopLevel installs a no-op logger without looking at cfg.
func InitLoggerWithConfig(logLevel Level, cfg zap.Config) error {
	if logLevel == NopLevel {
		logger = zap.NewNop().Sugar()
		return nil
	}
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	logger = l.Sugar()
	return nil
}

// Debugw logs a message with some additional context.
//
// The variadic key-value pairs are treated as they are in zap.SugaredLogger.With.
func Debugw(msg string, keysAndValues ...interface{}) {
	logger.Debugw(msg, keysAndValues...)
}

// Infow logs a message with some additional context.
func Infow(msg string, keysAndValues ...interface{}) {
	logger.Infow(msg, keysAndValues...)
}

// Warnw logs a message with some additional context.
func Warnw(msg string, keysAndValues ...interface{}) {
	logger.Warnw(msg, keysAndValues...)
}

// Errorw logs a message with some additional context.
func Errorw(msg string, keysAndValues ...interface{}) {
	logger.Errorw(msg, keysAndValues...)
}

// Sync flushes any buffered log entries.
func Sync() error {
	return logger.Sync()
}

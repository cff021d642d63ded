package log

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// RFC3339Micro is the time layout used by TimeEncoder, with the "ts=" key
// baked in so console lines stay grep friendly.
const RFC3339Micro = "ts=2006-01-02T15:04:05.000000Z"

// ShortCallerEncoder serializes a caller as caller=package/file:line.
func ShortCallerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("caller=" + caller.TrimmedPath())
}

// TimeEncoder serializes the entry time in UTC using RFC3339Micro.
func TimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(RFC3339Micro))
}

// CapitalLevelEncoder serializes the level as level=WARN.
func CapitalLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("level=" + l.CapitalString())
}

// JSONTimeEncoder encodes time in RFC3339Nano without extra information.
//
// It's suitable to be used in the full JSON format.
func JSONTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(time.RFC3339Nano))
}

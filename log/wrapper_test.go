package log_test

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/podlab/secretsbp.go/log"
)

func TestWrapperNilSafe(t *testing.T) {
	// Just make sure the fallbacks never panic, no real tests
	log.OrNop(nil).Infow("Hello, world!")
	log.NopWrapper().Errorw("Hello, world!", "key", "value")
	log.GlobalWrapper().Warnw("Hello, world!")
}

func TestTestWrapperRecordsLevels(t *testing.T) {
	w, logs := log.TestWrapper(t)
	w.Infow("info", "k", 1)
	w.Warnw("warn")
	w.Errorw("error")

	entries := logs.All()
	want := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	if len(entries) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(entries))
	}
	for i, e := range entries {
		if e.Level != want[i] {
			t.Errorf("entry %d: level = %v, want %v", i, e.Level, want[i])
		}
	}
	if got := logs.FilterMessage("info").Len(); got != 1 {
		t.Errorf("FilterMessage(info).Len() = %d, want 1", got)
	}
}

package errorsbp_test

import (
	"errors"
	"testing"

	"github.com/podlab/secretsbp.go/errorsbp"
)

var (
	errEmptyPath = errors.New("empty path")
	errInterval  = errors.New("bad interval")
)

func TestBatchCompile(t *testing.T) {
	var batch errorsbp.Batch
	if err := batch.Compile(); err != nil {
		t.Errorf("empty batch compiled to %v, want nil", err)
	}

	batch.Add(nil, errEmptyPath, nil)
	if err := batch.Compile(); err != errEmptyPath {
		t.Errorf("single error batch compiled to %v, want %v", err, errEmptyPath)
	}

	batch.Add(errInterval)
	err := batch.Compile()
	if got := errorsbp.BatchSize(err); got != 2 {
		t.Errorf("BatchSize = %d, want 2", got)
	}
	if !errors.Is(err, errInterval) || !errors.Is(err, errEmptyPath) {
		t.Errorf("errors.Is should match both errors in %v", err)
	}
}

func TestBatchAddPrefix(t *testing.T) {
	var inner errorsbp.Batch
	inner.Add(errEmptyPath, errInterval)

	var batch errorsbp.Batch
	batch.AddPrefix("watch[1]", inner)

	const want = "errorsbp.Batch: total 2 error(s) in this batch: watch[1]: empty path; watch[1]: bad interval"
	if got := batch.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(batch, errEmptyPath) {
		t.Error("prefixed errors should still unwrap to the original error")
	}
}

func TestBatchSize(t *testing.T) {
	if got := errorsbp.BatchSize(nil); got != 0 {
		t.Errorf("BatchSize(nil) = %d, want 0", got)
	}
	if got := errorsbp.BatchSize(errEmptyPath); got != 1 {
		t.Errorf("BatchSize(single) = %d, want 1", got)
	}
}

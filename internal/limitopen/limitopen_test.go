package limitopen_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/podlab/secretsbp.go/internal/limitopen"
	"github.com/podlab/secretsbp.go/log"
)

func setup(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "db_password")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write file %q: %v", path, err)
	}
	return path
}

func TestOpen(t *testing.T) {
	const content = "hunter2\n"

	t.Run("read", func(t *testing.T) {
		path := setup(t, content)
		r, size, err := limitopen.Open(path)
		if err != nil {
			t.Fatalf("limitopen.Open returned error on %q: %v", path, err)
		}
		t.Cleanup(func() {
			r.Close()
		})
		if size != int64(len(content)) {
			t.Errorf("Expected size to be %d, got %d", len(content), size)
		}
		var sb strings.Builder
		if _, err := io.Copy(&sb, r); err != nil {
			t.Fatalf("Failed to read from file %q: %v", path, err)
		}
		if read := sb.String(); read != content {
			t.Errorf("Expected to read %q, got %q", content, read)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, _, err := limitopen.Open(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected error to wrap os.ErrNotExist, got %v", err)
		}
	})
}

func TestOpenWithLimit(t *testing.T) {
	const content = "0123456789"

	t.Run("soft", func(t *testing.T) {
		path := setup(t, content)
		logger, logs := log.TestWrapper(t)
		r, err := limitopen.OpenWithLimit(path, 5, 100, logger)
		if err != nil {
			t.Fatalf("OpenWithLimit returned error: %v", err)
		}
		r.Close()
		if logs.Len() != 1 {
			t.Errorf("Expected one soft limit warning, got %d entries", logs.Len())
		}
	})

	t.Run("hard", func(t *testing.T) {
		path := setup(t, content)
		_, err := limitopen.OpenWithLimit(path, 2, 5, log.NopWrapper())
		if !errors.Is(err, limitopen.ErrTooLarge) {
			t.Errorf("Expected error to wrap ErrTooLarge, got %v", err)
		}
	})
}

func TestOpenDevZero(t *testing.T) {
	// At the time of writing linux reports 0 for the size of /dev/zero.
	if runtime.GOOS != `linux` {
		t.Skipf(
			"This test can only be run on Linux, skipping on %s/%s",
			runtime.GOOS,
			runtime.GOARCH,
		)
	}

	r, size, err := limitopen.Open("/dev/zero")
	if err != nil {
		t.Fatalf("limitopen.Open returned error: %v", err)
	}
	t.Cleanup(func() {
		r.Close()
	})
	if size != 0 {
		t.Errorf("Expected size to be 0, got %d", size)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 0 {
		t.Errorf("Expected to read nothing, got %d bytes", len(b))
	}
}

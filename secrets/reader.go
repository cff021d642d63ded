package secrets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/podlab/secretsbp.go/internal/limitopen"
	"github.com/podlab/secretsbp.go/log"
)

// Reader reads secrets from a secrets root.
//
// A Reader holds no state besides its configuration and is safe for
// concurrent use.
type Reader struct {
	root      string
	softLimit int64
	logger    log.Wrapper
}

// NewReader creates a Reader for the secrets root in cfg.
//
// logger receives the diagnostic signals (see the Msg* constants),
// nil means no logging.
func NewReader(cfg Config, logger log.Wrapper) *Reader {
	root := cfg.Root
	if root == "" {
		root = DefaultRoot
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	limit := cfg.MaxFileSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	return &Reader{
		root:      filepath.Clean(root),
		softLimit: limit,
		logger:    log.OrNop(logger),
	}
}

// Root returns the cleaned, absolute secrets root.
func (r *Reader) Root() string {
	return r.root
}

// Read reads the secret file name under the secrets root.
//
// The permission bits are checked before the file is opened,
// a file with any group or other bit set fails with a *PermissionError.
// The content is returned with leading and trailing whitespace removed.
//
// Errors wrap ErrInvalidName, ErrNotFound, ErrPermissionDenied or
// ErrEmptySecret, or are I/O errors.
func (r *Reader) Read(name string) (Secret, error) {
	secret, err := r.read(name)
	readCounter.WithLabelValues(readResult(err)).Inc()
	return secret, err
}

func (r *Reader) read(name string) (Secret, error) {
	path, err := r.resolve(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("secrets: failed to stat %q: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %q is not a regular file", ErrNotFound, name)
	}
	if info.Mode().Perm()&PermissionMask != 0 {
		return nil, &PermissionError{
			Name: name,
			Mode: info.Mode(),
		}
	}

	f, err := limitopen.OpenWithLimit(path, r.softLimit, r.softLimit*HardLimitMultiplier, r.logger)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Removed between the stat and the open.
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("secrets: failed to open %q: %w", name, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("secrets: failed to read %q: %w", name, err)
	}
	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptySecret, name)
	}

	r.logger.Infow(MsgSecretRead, "secret", name, "length", len(content))
	return Secret(content), nil
}

// ReadOrEnv reads the secret file name, falling back to the environment
// variable envVar when, and only when, the file is not found.
//
// Using the fallback emits a warning since environment variables leak far
// more easily than a secrets mount.
// When neither the file nor a non-empty envVar exists,
// ReadOrEnv returns nil Secret and nil error.
// All the other errors of Read are returned as-is.
func (r *Reader) ReadOrEnv(name, envVar string) (Secret, error) {
	secret, err := r.Read(name)
	if !errors.Is(err, ErrNotFound) {
		return secret, err
	}

	value, ok := os.LookupEnv(envVar)
	if !ok || value == "" {
		return nil, nil
	}
	r.logger.Warnw(MsgEnvFallback, "secret", name, "env", envVar)
	envFallbackCounter.Inc()
	return Secret(value), nil
}

// List returns the names of the regular files directly under the secrets
// root, in lexical order.
//
// Symlinks are followed, subdirectories are skipped.
// A missing root gives an empty list, not an error.
func (r *Reader) List() ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("secrets: failed to list %q: %w", r.root, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if r.isRegular(entry) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (r *Reader) isRegular(entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(r.root, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}

// resolve joins name to the root and makes sure the result, with symlinks
// resolved, is still inside the root.
func (r *Reader) resolve(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	path := filepath.Join(r.root, name)
	if !within(r.root, path) {
		return "", fmt.Errorf("%w: %q is outside of %q", ErrInvalidName, name, r.root)
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return "", fmt.Errorf("secrets: failed to resolve %q: %w", name, err)
	}
	root, err := filepath.EvalSymlinks(r.root)
	if err != nil {
		return "", fmt.Errorf("secrets: failed to resolve root %q: %w", r.root, err)
	}
	if !within(root, resolved) {
		return "", fmt.Errorf("%w: %q links outside of %q", ErrInvalidName, name, r.root)
	}
	return resolved, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func readResult(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, ErrNotFound):
		return resultNotFound
	case errors.Is(err, ErrPermissionDenied):
		return resultPermissionDenied
	case errors.Is(err, ErrEmptySecret):
		return resultEmpty
	case errors.Is(err, ErrInvalidName):
		return resultInvalidName
	default:
		return resultError
	}
}

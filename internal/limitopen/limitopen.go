// Package limitopen opens secret files for read with a bound on how much can
// be read from them.
package limitopen

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/podlab/secretsbp.go/internal/prometheusbpint"
	"github.com/podlab/secretsbp.go/log"
)

const (
	promNamespace = "secrets_file"

	secretLabel = "secret"
)

// ErrTooLarge is wrapped by the error returned by OpenWithLimit when the file
// is larger than the hard limit.
var ErrTooLarge = errors.New("limitopen: file size over hard limit")

var (
	sizeLabels = []string{
		secretLabel,
	}

	sizeGauge = promauto.With(prometheusbpint.GlobalRegistry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "size_bytes",
		Help:      "The size of the secret file opened by limitopen.OpenWithLimit",
	}, sizeLabels)

	softLimitCounter = promauto.With(prometheusbpint.GlobalRegistry).NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "softlimit_violation_total",
		Help:      "The total number of secret files opened over the soft limit",
	}, sizeLabels)
)

// Open opens a path for read.
//
// It's similar to os.Open, but the io.ReadCloser returned can never read
// beyond the size reported by the system at open time (so /dev/zero reads as
// empty instead of endless), and that size is returned to the caller.
//
// It never returns both non-nil r and err.
// When err is nil it's the caller's responsibility to close r.
func Open(path string) (r io.ReadCloser, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("limitopen.Open: failed to open file %q: %w", path, err)
	}

	var stats fs.FileInfo
	stats, err = f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("limitopen.Open: failed to get the size of %q: %w", path, err)
	}

	size = stats.Size()
	return readCloser{
		Reader: io.LimitReader(f, size),
		Closer: f,
	}, size, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// OpenWithLimit calls Open with limit checks.
//
// The size is always reported in the secrets_file_size_bytes gauge, labeled
// with the base name of the path.
// When softLimit > 0 and the size is larger, a warning goes to logger and
// secrets_file_softlimit_violation_total is increased.
// When hardLimit > 0 and the size is larger, the file is closed and an error
// wrapping ErrTooLarge is returned.
func OpenWithLimit(path string, softLimit, hardLimit int64, logger log.Wrapper) (io.ReadCloser, error) {
	r, size, err := Open(path)
	if err != nil {
		return nil, err
	}

	labels := prometheus.Labels{
		secretLabel: filepath.Base(path),
	}
	sizeGauge.With(labels).Set(float64(size))

	if softLimit > 0 && size > softLimit {
		log.OrNop(logger).Warnw(
			"limitopen.OpenWithLimit: file size > soft limit",
			"path", path,
			"size", size,
			"limit", softLimit,
		)
		softLimitCounter.With(labels).Inc()
	}

	if hardLimit > 0 && size > hardLimit {
		r.Close()
		return nil, fmt.Errorf(
			"limitopen.OpenWithLimit: size %d > %d for path %q: %w",
			size,
			hardLimit,
			path,
			ErrTooLarge,
		)
	}

	return r, nil
}

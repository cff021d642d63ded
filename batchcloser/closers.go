package batchcloser

import (
	"context"
	"fmt"
	"io"

	"github.com/podlab/secretsbp.go/errorsbp"
)

// CloseError wraps an error returned by a closer of a BatchCloser.
type CloseError struct {
	Cause  error
	Closer io.Closer
}

func (err CloseError) Error() string {
	return fmt.Sprintf("batchcloser: closing %T: %v", err.Closer, err.Cause)
}

// Unwrap returns Cause.
func (err CloseError) Unwrap() error {
	return err.Cause
}

type funcCloser func() error

func (f funcCloser) Close() error {
	return f()
}

// Wrap turns a close function into an io.Closer.
func Wrap(close func() error) io.Closer {
	return funcCloser(close)
}

// WrapCancel turns a context.CancelFunc into an io.Closer that never fails.
func WrapCancel(cancel context.CancelFunc) io.Closer {
	return funcCloser(func() error {
		cancel()
		return nil
	})
}

// BatchCloser closes all of its closers on Close.
//
// The zero value is ready to use.
type BatchCloser struct {
	closers []io.Closer
}

// New returns a BatchCloser initialized with the given closers.
func New(closers ...io.Closer) *BatchCloser {
	bc := &BatchCloser{}
	bc.Add(closers...)
	return bc
}

// Add adds closers to the batch.
//
// It's not safe to call Add concurrently.
func (bc *BatchCloser) Add(closers ...io.Closer) {
	bc.closers = append(bc.closers, closers...)
}

// Close closes every closer, the last added first, even when some fail.
//
// The errors are returned as CloseErrors in an errorsbp.Batch.
// The batch is emptied, a second Close is a no-op.
func (bc *BatchCloser) Close() error {
	var errs errorsbp.Batch
	for i := len(bc.closers) - 1; i >= 0; i-- {
		closer := bc.closers[i]
		if err := closer.Close(); err != nil {
			errs.Add(CloseError{
				Cause:  err,
				Closer: closer,
			})
		}
	}
	bc.closers = nil
	return errs.Compile()
}

var (
	_ error     = CloseError{}
	_ io.Closer = funcCloser(nil)
	_ io.Closer = (*BatchCloser)(nil)
)

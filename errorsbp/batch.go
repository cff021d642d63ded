package errorsbp

import (
	"errors"
	"fmt"
	"strings"
)

var (
	_ error = Batch{}
	_ error = (*Batch)(nil)
)

// Batch is an error that can contain multiple errors.
//
// The zero value of Batch is valid (with no errors) and ready to use.
type Batch struct {
	errors []error
}

func (be Batch) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "errorsbp.Batch: total %d error(s) in this batch", len(be.errors))
	for i, err := range be.errors {
		if i == 0 {
			sb.WriteString(": ")
		} else {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Len returns the size of the batch.
func (be Batch) Len() int {
	return len(be.errors)
}

// Is reports whether any error in the batch matches target.
//
// Add flattens nested batches, so a batch never contains itself.
func (be Batch) Is(target error) bool {
	for _, err := range be.errors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// As implements helper interface for errors.As.
//
// If v is a pointer to Batch, *v will be set into this error.
// Otherwise the first error in the batch matching v wins.
func (be Batch) As(v interface{}) bool {
	if target, ok := v.(*Batch); ok {
		*target = be
		return true
	}
	for _, err := range be.errors {
		if errors.As(err, v) {
			return true
		}
	}
	return false
}

// Add adds errors into the batch, skipping nil errors.
//
// If an error is also a Batch,
// its underlying error(s) will be added instead of the Batch itself.
func (be *Batch) Add(errs ...error) {
	be.AddPrefix("", errs...)
}

// AddPrefix adds errors into the batch with the given prefix, so their
// message reads "prefix: err.Error()".
func (be *Batch) AddPrefix(prefix string, errs ...error) {
	for _, err := range errs {
		if err == nil {
			continue
		}
		var batch Batch
		if errors.As(err, &batch) {
			for _, inner := range batch.errors {
				be.errors = append(be.errors, prefixError(prefix, inner))
			}
			continue
		}
		be.errors = append(be.errors, prefixError(prefix, err))
	}
}

// Compile compiles the batch.
//
// It returns nil for an empty batch,
// the only error for a batch of one,
// and the batch itself otherwise.
func (be Batch) Compile() error {
	switch len(be.errors) {
	case 0:
		return nil
	case 1:
		return be.errors[0]
	default:
		return be
	}
}

// BatchSize returns the number of errors carried by err:
// Len() for a Batch, 1 for any other non-nil error and 0 for nil.
func BatchSize(err error) int {
	if err == nil {
		return 0
	}
	var be Batch
	if errors.As(err, &be) {
		return be.Len()
	}
	return 1
}

// prefixError is used over fmt.Errorf(prefix + ": %w") because prefix may
// contain format verbs.
func prefixError(prefix string, err error) error {
	if prefix == "" {
		return err
	}
	return &prefixedError{
		msg: prefix + ": " + err.Error(),
		err: err,
	}
}

type prefixedError struct {
	msg string
	err error
}

func (e *prefixedError) Error() string {
	return e.msg
}

func (e *prefixedError) Unwrap() error {
	return e.err
}

package secrets

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound is returned when the secret file does not exist under the
	// secrets root, or is not a regular file.
	ErrNotFound = errors.New("secrets: secret not found")

	// ErrPermissionDenied is wrapped by PermissionError.
	ErrPermissionDenied = errors.New("secrets: insecure secret file permissions")

	// ErrEmptySecret is returned when the secret file only contains
	// whitespace.
	ErrEmptySecret = errors.New("secrets: secret is empty")

	// ErrInvalidName is returned when the secret name is empty or resolves to
	// a path outside of the secrets root.
	ErrInvalidName = errors.New("secrets: invalid secret name")
)

// PermissionError is returned when a secret file has any group or other
// permission bit set.
//
// It wraps ErrPermissionDenied.
type PermissionError struct {
	Name string
	Mode fs.FileMode
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf(
		"secrets: secret %q has insecure permissions %#o, expected owner only access (400 or 600)",
		e.Name,
		uint32(e.Mode.Perm()),
	)
}

// Unwrap returns ErrPermissionDenied.
func (e *PermissionError) Unwrap() error {
	return ErrPermissionDenied
}

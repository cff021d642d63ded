package vaultkv

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned by New when the client cannot be built,
	// e.g. when no token is configured.
	ErrConfiguration = errors.New("vaultkv: invalid configuration")

	// ErrAuthentication is returned by New when the store rejects the token,
	// or cannot be reached to check it.
	ErrAuthentication = errors.New("vaultkv: authentication failed")

	// ErrSecretNotFound is returned when the path has no current version,
	// or its current version has no data.
	ErrSecretNotFound = errors.New("vaultkv: secret not found")

	// ErrTransient is wrapped by StoreError.
	ErrTransient = errors.New("vaultkv: secret store error")
)

// StoreError is returned when a request to the store fails for any reason
// other than the secret not being there.
//
// The failure may be transient, callers can retry later.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("vaultkv: %s %q failed: %v", e.Op, e.Path, e.Err)
}

// Is makes errors.Is(err, ErrTransient) true for any *StoreError.
func (e *StoreError) Is(target error) bool {
	return target == ErrTransient
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

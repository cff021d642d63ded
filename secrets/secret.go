package secrets

import (
	"fmt"
	"io"
	"path"
	"strings"
)

const redacted = "[REDACTED]"

// A Secret is the raw value of a secret.
//
// Use string(s) or []byte(s) to get to the value.
// Formatting a Secret with fmt, or handing it to zap, only prints a redaction
// marker.
type Secret []byte

// IsEmpty returns true if the secret is empty.
func (s Secret) IsEmpty() bool {
	return len(s) == 0
}

// Len returns the length of the secret in bytes, which is safe to log.
func (s Secret) Len() int {
	return len(s)
}

func (s Secret) String() string {
	return redacted
}

// GoString implements fmt.GoStringer.
func (s Secret) GoString() string {
	return redacted
}

// Format implements fmt.Formatter, so that no verb prints the value.
func (s Secret) Format(f fmt.State, verb rune) {
	io.WriteString(f, redacted)
}

// SourceKind is where a secret comes from.
type SourceKind int

// SourceKind values.
const (
	LocalFile SourceKind = iota + 1
	RemoteKV
)

func (k SourceKind) String() string {
	switch k {
	case LocalFile:
		return "file"
	case RemoteKV:
		return "kv"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// Descriptor names a secret and where to find it.
//
// For LocalFile the Location is relative to the secrets root,
// for RemoteKV it is the path in the store.
type Descriptor struct {
	Name     string
	Kind     SourceKind
	Location string
}

// ParseDescriptor parses "file:<name>" or "kv:<path>".
//
// The Name of the returned Descriptor is the last element of the location.
func ParseDescriptor(s string) (Descriptor, error) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return Descriptor{}, fmt.Errorf("secrets: descriptor %q is not in kind:location form", s)
	}
	kind, location := s[:i], strings.Trim(s[i+1:], "/")
	if location == "" {
		return Descriptor{}, fmt.Errorf("secrets: descriptor %q has an empty location", s)
	}
	d := Descriptor{
		Name:     path.Base(location),
		Location: location,
	}
	switch kind {
	case LocalFile.String():
		d.Kind = LocalFile
	case RemoteKV.String():
		d.Kind = RemoteKV
	default:
		return Descriptor{}, fmt.Errorf("secrets: unknown kind %q in descriptor %q", kind, s)
	}
	return d, nil
}

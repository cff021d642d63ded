package log

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type pair struct {
	key, value string
}

func TestExtractKeyValuePairs(t *testing.T) {
	for _, c := range []struct {
		label    string
		kv       []interface{}
		expected []pair
		dangling bool
	}{
		{
			label: "empty",
		},
		{
			label: "normal",
			kv: []interface{}{
				"path", "myapp/database",
				"version", 2,
			},
			expected: []pair{
				{key: "path", value: "myapp/database"},
				{key: "version", value: "2"},
			},
		},
		{
			label: "ignore-zap-field",
			kv: []interface{}{
				"secret", "db_password",
				zap.Field{},
				zapcore.Field{},
				"length", 12,
			},
			expected: []pair{
				{key: "secret", value: "db_password"},
				{key: "length", value: "12"},
			},
		},
		{
			label: "dangling",
			kv: []interface{}{
				"secret", "db_password",
				"dangling",
			},
			expected: []pair{
				{key: "secret", value: "db_password"},
			},
			dangling: true,
		},
	} {
		t.Run(c.label, func(t *testing.T) {
			var got []pair
			dangling := extractKeyValuePairs(c.kv, func(key, value string) {
				got = append(got, pair{key: key, value: value})
			})
			if dangling != c.dangling {
				t.Errorf("Expected dangling to return %v, got %v", c.dangling, dangling)
			}
			if len(got) != len(c.expected) {
				t.Fatalf("Expected %d pairs, got %#v", len(c.expected), got)
			}
			for i := range got {
				if got[i] != c.expected[i] {
					t.Errorf("Expected %#v on %dth call, got %#v", c.expected[i], i, got[i])
				}
			}
		})
	}
}

func TestSentryCloser(t *testing.T) {
	c, err := InitSentry(SentryConfig{})
	if err != nil {
		t.Fatal(err)
	}
	// Without a DSN there's nothing to flush and Flush reports success.
	if err := c.Close(); err != nil && !errors.Is(err, ErrSentryFlushFailed) {
		t.Errorf("Close() returned unexpected error %v", err)
	}
}

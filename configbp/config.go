// Package configbp parses YAML configuration files with environment variable
// substitution.
package configbp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/podlab/secretsbp.go/internal/limitopen"
	"github.com/podlab/secretsbp.go/log"
)

// ConfigPathEnv names the environment variable holding the default config
// file path.
const ConfigPathEnv = "SECRETSBP_CONFIG_PATH"

// ConfigPath points to the default config file, from $SECRETSBP_CONFIG_PATH.
var ConfigPath = os.Getenv(ConfigPathEnv)

type envsubstReader struct {
	buffer bytes.Buffer
	lines  *bufio.Scanner
}

func (r *envsubstReader) Read(buf []byte) (int, error) {
	if r.buffer.Len() > 0 {
		return r.buffer.Read(buf)
	}

	if !r.lines.Scan() {
		if err := r.lines.Err(); err != nil {
			return 0, err
		}
		return 0, io.EOF
	}
	r.buffer.WriteString(os.ExpandEnv(r.lines.Text()))
	r.buffer.WriteString("\n")
	return r.buffer.Read(buf)
}

// ParseStrictFile parses configuration from the YAML file at path into ptr.
//
// Environment variables (e.g. $FOO and ${FOO}) are substituted before
// parsing, so a token can be kept out of the file itself.
// Unknown fields are errors.
func ParseStrictFile(path string, ptr interface{}) error {
	switch ext := filepath.Ext(path); strings.ToLower(ext) {
	case ".yaml", ".yml":
	default:
		return fmt.Errorf("configbp: unsupported config extension %q", ext)
	}

	f, _, err := limitopen.Open(path)
	if err != nil {
		return err // contains filename
	}
	defer f.Close()

	if err := ParseStrictYAML(f, ptr); err != nil {
		return fmt.Errorf("configbp: %q: %w", path, err)
	}
	log.Debugw("configuration parsed", "path", path, "type", fmt.Sprintf("%T", ptr))
	return nil
}

// ParseStrictYAML parses YAML read from reader into ptr.
//
// Environment variables (e.g. $FOO and ${FOO}) are substituted before
// parsing. The substituted document is never logged since it may carry
// credentials.
func ParseStrictYAML(reader io.Reader, ptr interface{}) error {
	dec := yaml.NewDecoder(&envsubstReader{
		lines: bufio.NewScanner(reader),
	})
	dec.SetStrict(true)
	if err := dec.Decode(ptr); err != nil {
		if err == io.EOF {
			// Empty document, keep the zero values.
			return nil
		}
		return fmt.Errorf("parsing YAML into %T: %w", ptr, err)
	}
	return nil
}

// Package display renders command results in machine-readable formats.
package display

import (
	"encoding/json"
	"io"
	"slices"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/teranos/skosprobe/errors"
)

// Output formats accepted by --format. Table output is rendered by each
// command itself.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTOML  = "toml"
)

// CheckFormat rejects a format outside allowed.
func CheckFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}
	return errors.WithHintf(errors.Newf("unsupported format: %s", format),
		"supported: %v", allowed)
}

// MarshalJSON marshals v with two-space indentation and a trailing newline.
func MarshalJSON(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Write renders v to w as JSON, YAML or TOML.
func Write(w io.Writer, format string, v interface{}) error {
	var data []byte
	var err error
	switch format {
	case FormatJSON:
		data, err = MarshalJSON(v)
	case FormatYAML:
		data, err = yaml.Marshal(v)
	case FormatTOML:
		data, err = toml.Marshal(v)
	default:
		return errors.Newf("unsupported format: %s", format)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %s", format)
	}
	_, err = w.Write(data)
	return err
}

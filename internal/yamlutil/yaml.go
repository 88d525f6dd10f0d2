// Package yamlutil wraps YAML parsing to isolate the external dependency.
// Callers decode config files and outline front matter through it.
package yamlutil

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData         = errors.New("yamlutil: nil or empty data")
	ErrNilDestination  = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge   = errors.New("yamlutil: input exceeds maximum size")
	ErrInvalidDuration = errors.New("yamlutil: invalid duration")
)

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

// Unmarshal decodes data into v, ignoring unknown fields.
func Unmarshal(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// UnmarshalStrict rejects unknown fields in the input.
func UnmarshalStrict(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// Marshal encodes v as YAML.
func Marshal(v any) ([]byte, error) {
	result, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return result, nil
}

// frontMatterFence delimits a YAML block at the top of a markdown document.
var frontMatterFence = []byte("---")

// SplitFrontMatter separates a leading "---" fenced YAML block from the body.
// ok is false (and body is doc) when the document has no closed front matter.
func SplitFrontMatter(doc []byte) (front, body []byte, ok bool) {
	rest, found := bytes.CutPrefix(doc, frontMatterFence)
	if !found {
		return nil, doc, false
	}
	// The opening fence must be alone on its line
	if rest, found = bytes.CutPrefix(bytes.TrimPrefix(rest, []byte("\r")), []byte("\n")); !found {
		return nil, doc, false
	}

	for offset := 0; offset < len(rest); {
		line, next := rest[offset:], len(rest)
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			line, next = line[:i], offset+i+1
		}
		if bytes.Equal(bytes.TrimRight(line, "\r"), frontMatterFence) {
			return rest[:offset], rest[next:], true
		}
		offset = next
	}
	return nil, doc, false
}

// Duration is a time.Duration written as a Go duration string ("1500ms", "2m").
type Duration time.Duration

// UnmarshalYAML accepts a duration string. Bare integers are milliseconds.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := parseDuration(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalText parses a duration string, for JSON and environment values.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := parseDuration(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText writes the duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func parseDuration(raw any) (Duration, error) {
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case string:
		if v == "" {
			return 0, nil
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, v)
		}
		return Duration(parsed), nil
	case int:
		return Duration(time.Duration(v) * time.Millisecond), nil
	case int64:
		return Duration(time.Duration(v) * time.Millisecond), nil
	case uint64:
		return Duration(time.Duration(v) * time.Millisecond), nil
	}
	return 0, fmt.Errorf("%w: %v", ErrInvalidDuration, raw)
}

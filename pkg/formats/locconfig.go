package formats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Location config errors.
var (
	ErrInvalidLocationConfig = errors.New("invalid location config: expected a JSON object")
	ErrMissingConfigID       = errors.New("location config has no integer id")
)

// Well-known location config keys.
const (
	KeyID      = "id"
	KeyName    = "name"
	KeyDimX    = "dim_x"
	KeyDimY    = "dim_y"
	KeyActions = "actions"
	KeyModels  = "models"

	// Keys with collision semantics.
	KeyOccludes          = "occludes_2"
	KeyDeckPrimary       = "unknown_22"
	KeyDeckSecondary     = "unknown_21"
	KeyOverheadThreshold = "unknown_186"
	KeyTransparent       = "is_transparent"
)

// LocationConfig is one object definition file. Values are bool, int64,
// float64, string, nil, []any or map[string]any. A key that appears more
// than once is folded into a []any of all its values.
type LocationConfig struct {
	Fields map[string]any
	// Keys lists field names in first-seen order.
	Keys []string
}

// Has reports whether key is present, even with a null value.
func (c *LocationConfig) Has(key string) bool {
	_, ok := c.Fields[key]
	return ok
}

// ID returns the object id.
func (c *LocationConfig) ID() (int, bool) {
	return c.Int(KeyID)
}

// Name returns the object name, or "" when absent.
func (c *LocationConfig) Name() string {
	if s, ok := c.Fields[KeyName].(string); ok {
		return s
	}
	return ""
}

// Int returns key as an integer. Integral floats and numeric strings are
// accepted. Folded keys use their first value.
func (c *LocationConfig) Int(key string) (int, bool) {
	return toInt(first(c.Fields[key]))
}

// Bool returns key as a boolean. Numbers are true when non-zero and the
// strings "true"/"false" are accepted. Folded keys use their first value.
func (c *LocationConfig) Bool(key string) (bool, bool) {
	return toBool(first(c.Fields[key]))
}

// Strings returns key as a list of strings, skipping null entries.
func (c *LocationConfig) Strings(key string) []string {
	var out []string
	switch v := c.Fields[key].(type) {
	case string:
		out = append(out, v)
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// ParseLocationConfig parses a location config from raw bytes.
func ParseLocationConfig(data []byte) (*LocationConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocationConfig, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrInvalidLocationConfig
	}

	fields, keys, err := decodeObject(dec)
	if err != nil {
		return nil, fmt.Errorf("decoding location config: %w", err)
	}

	cfg := &LocationConfig{Fields: fields, Keys: keys}
	if _, ok := cfg.ID(); !ok {
		return nil, ErrMissingConfigID
	}
	return cfg, nil
}

// ParseLocationConfigFile parses a location config from disk.
func ParseLocationConfigFile(path string) (*LocationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading location config: %w", err)
	}
	cfg, err := ParseLocationConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// decodeObject reads object members up to and including the closing brace.
func decodeObject(dec *json.Decoder) (map[string]any, []string, error) {
	obj := make(map[string]any)
	folded := make(map[string]bool)
	var keys []string

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, nil, fmt.Errorf("key %q: %w", key, err)
		}

		prev, dup := obj[key]
		switch {
		case !dup:
			obj[key] = val
			keys = append(keys, key)
		case folded[key]:
			obj[key] = append(prev.([]any), val)
		default:
			obj[key] = []any{prev, val}
			folded[key] = true
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return obj, keys, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			obj, _, err := decodeObject(dec)
			return obj, err
		case '[':
			arr := []any{}
			for dec.More() {
				e, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, e)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		// bool, string or nil
		return v, nil
	}
}

func first(v any) any {
	if arr, ok := v.([]any); ok && len(arr) > 0 {
		return arr[0]
	}
	return v
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case int64:
		return b != 0, true
	case float64:
		return b != 0, true
	case string:
		if p, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return p, true
		}
	}
	return false, false
}

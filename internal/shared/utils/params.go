package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// Params wraps tool parameters with typed accessors. String values are trimmed.
type Params map[string]interface{}

// String returns the trimmed string under key, or "" when absent or null.
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, v)
	}
	return strings.TrimSpace(s), nil
}

// RequireString is String but fails when the value is missing or blank.
func (p Params) RequireString(key string) (string, error) {
	s, err := p.String(key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

// Bool returns the boolean under key, or def when absent. "true"/"false" strings are accepted.
func (p Params) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return def, fmt.Errorf("%s must be a boolean: %w", key, err)
		}
		return parsed, nil
	default:
		return def, fmt.Errorf("%s must be a boolean, got %T", key, v)
	}
}

// Strings returns the string list under key. A single string is a one-element list;
// blank entries are dropped.
func (p Params) Strings(key string) ([]string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}

	var raw []string
	switch list := v.(type) {
	case string:
		raw = []string{list}
	case []string:
		raw = list
	case []interface{}:
		raw = make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string, got %T", key, i, item)
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("%s must be a list of strings, got %T", key, v)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

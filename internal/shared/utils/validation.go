package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Body limits in bytes
const (
	MaxControlSize = 64 << 10 // picker results and other control messages
	MaxPayloadSize = 64 << 20 // execute requests carrying encoded file data
)

// Field length limits in runes
const (
	MaxIDLength       = 128
	MaxCategoryLength = 64
	MaxURILength      = 4096
	MaxQueryLength    = 1000
)

var (
	safeIDPattern   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	toolIDPattern   = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	categoryPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// ValidateJSONDepth rejects params nested deeper than maxDepth
func ValidateJSONDepth(data interface{}, maxDepth int) error {
	return checkDepth(data, 0, maxDepth)
}

func checkDepth(data interface{}, depth, maxDepth int) error {
	if depth > maxDepth {
		return fmt.Errorf("JSON nesting depth %d exceeds maximum %d", depth, maxDepth)
	}
	switch v := data.(type) {
	case map[string]interface{}:
		for _, value := range v {
			if err := checkDepth(value, depth+1, maxDepth); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, value := range v {
			if err := checkDepth(value, depth+1, maxDepth); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateString checks presence, rune length and NUL bytes. An empty optional value passes.
func ValidateString(value, field string, minLen, maxLen int, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}

	switch n := utf8.RuneCountInString(value); {
	case n < minLen:
		return fmt.Errorf("%s must be at least %d characters", field, minLen)
	case n > maxLen:
		return fmt.Errorf("%s must not exceed %d characters", field, maxLen)
	}
	if strings.IndexByte(value, 0) >= 0 {
		return fmt.Errorf("%s contains invalid characters", field)
	}
	return nil
}

func validatePattern(value, field string, maxLen int, required bool, pattern *regexp.Regexp, allowed string) error {
	if err := ValidateString(value, field, 1, maxLen, required); err != nil {
		return err
	}
	if value != "" && !pattern.MatchString(value) {
		return fmt.Errorf("%s contains invalid characters (only %s allowed)", field, allowed)
	}
	return nil
}

// ValidateID validates an app or request id
func ValidateID(id, field string, required bool) error {
	return validatePattern(id, field, MaxIDLength, required, safeIDPattern, "alphanumeric, hyphens, and underscores")
}

// ValidateToolID validates a service.tool id
func ValidateToolID(id, field string, required bool) error {
	return validatePattern(id, field, MaxIDLength, required, toolIDPattern, "alphanumeric, dots, hyphens, and underscores")
}

// ValidateCategory validates a service category filter
func ValidateCategory(category string, required bool) error {
	return validatePattern(category, "category", MaxCategoryLength, required, categoryPattern, "lowercase letters, numbers, and hyphens")
}

// ValidateURI validates a document URI field
func ValidateURI(uri, field string, required bool) error {
	if err := ValidateString(uri, field, 1, MaxURILength, required); err != nil {
		return err
	}
	if uri != "" && !strings.HasPrefix(uri, "content://") {
		return fmt.Errorf("%s must be a content:// uri", field)
	}
	return nil
}

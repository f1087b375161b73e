package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxNameLength bounds document names, which double as file names and
// store keys.
const maxNameLength = 128

// ValidateName validates a label document name for safety and correctness.
// Names are used as file names by the file store and as keys by the Mongo
// store, so they must not be able to escape the store directory.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - No leading dot (hidden files)
//   - Maximum length of 128 characters
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "document name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "document name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "document name contains invalid control characters")
		}
	}

	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidName, "document name cannot start with a dot")
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidName, "document name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// keyRegex matches template, category and field keys.
var keyRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// ValidateKey validates a catalog key (category, template or field).
// Keys end up inside {{key}} placeholders, so they are restricted to
// identifier-like strings.
func ValidateKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidTemplate, "key cannot be empty")
	}
	if !keyRegex.MatchString(key) {
		return New(ErrCodeInvalidTemplate, "invalid key: %q", key)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

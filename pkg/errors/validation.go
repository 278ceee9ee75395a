package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// kindRegex matches template kinds: an ASCII identifier.
// Kinds appear inside node and edge ids, so separators are never allowed.
var kindRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// portRegex matches port ids. Dynamic ports embed node ids ("text-3-output"),
// so dashes are allowed; colons and '>' are reserved for edge ids.
var portRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// affixRegex matches the fixed parts of dynamic port ids.
var affixRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]*$`)

// ValidateKind validates a node template kind.
func ValidateKind(kind string) error {
	if kind == "" {
		return New(ErrCodeInvalidTemplate, "kind cannot be empty")
	}
	if len(kind) > 64 {
		return New(ErrCodeInvalidTemplate, "kind too long (max 64 characters)")
	}
	if !kindRegex.MatchString(kind) {
		return New(ErrCodeInvalidTemplate, "invalid kind: %q", kind)
	}
	return nil
}

// ValidatePortID validates a port identifier.
func ValidatePortID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidTemplate, "port id cannot be empty")
	}
	if !portRegex.MatchString(id) {
		return New(ErrCodeInvalidTemplate, "invalid port id: %q", id)
	}
	return nil
}

// ValidatePortAffix validates the prefix or suffix a template adds to
// dynamic port ids. Empty affixes are allowed.
func ValidatePortAffix(affix string) error {
	if !affixRegex.MatchString(affix) {
		return New(ErrCodeInvalidTemplate, "invalid port affix: %q", affix)
	}
	return nil
}

// ValidateNodeID validates a node id read from a snapshot. Ids are joined
// into edge ids with ':' and "->", so neither ':' nor '>' may appear.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidSnapshot, "node id cannot be empty")
	}
	if strings.ContainsAny(id, ":>") {
		return New(ErrCodeInvalidSnapshot, "node id %q contains a reserved separator", id)
	}
	return nil
}

// ValidatePath validates a snapshot or catalog file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
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

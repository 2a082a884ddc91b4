package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateBlueprintName validates the name a blueprint is saved under.
// Names end up as file names, sqlite keys and mongo ids, so the rules are
// conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateBlueprintName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "blueprint name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "blueprint name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "blueprint name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",
		"/",
		"\\",
		"\x00",
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "blueprint name contains invalid characters: %q", pattern)
		}
	}

	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidInput, "blueprint name cannot start with a dot")
	}

	return nil
}

// ValidatePath validates a relative file path, such as a catalog include.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
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

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// kindNameRegex matches catalog kind and recipe names ("pipe-to-ground",
// "small-electric-pole").
var kindNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateKindName validates a catalog kind or recipe name.
func ValidateKindName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "kind name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidInput, "kind name too long (max 64 characters)")
	}
	if !kindNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid kind name: %q", name)
	}
	return nil
}

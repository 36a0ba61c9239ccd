package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds library names and versions.
const maxNameLength = 256

// ValidateLibraryName validates a bare library name before it is joined onto a
// filesystem root. It rejects names that could be used for path traversal.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path traversal sequences (..)
//   - No path separators (the reference parser has already stripped qualifiers)
//   - Maximum length of 256 characters
func ValidateLibraryName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidLibrary, "library name cannot be empty")
	}
	if err := validateSegment(name); err != nil {
		return New(ErrCodeInvalidLibrary, "invalid library name %q: %s", name, err)
	}
	return nil
}

// ValidateVersion validates a version string. An empty version is accepted,
// built-in libraries are not versioned.
func ValidateVersion(version string) error {
	if version == "" {
		return nil
	}
	if err := validateSegment(version); err != nil {
		return New(ErrCodeInvalidVersion, "invalid version %q: %s", version, err)
	}
	return nil
}

type segmentError string

func (e segmentError) Error() string { return string(e) }

func validateSegment(s string) error {
	if len(s) > maxNameLength {
		return segmentError("too long (max 256 characters)")
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return segmentError("contains control characters")
		}
	}
	if s == "." || strings.Contains(s, "..") {
		return segmentError("contains path traversal sequences")
	}
	if strings.ContainsAny(s, "/\\") {
		return segmentError("contains path separators")
	}
	return nil
}

package content

import (
	"fmt"
	"strings"
)

// SplitPath splits a dot path into segments, rejecting empty paths and empty
// segments ("a..b", ".a", "a.").
func SplitPath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path is empty", ErrInvalidPath)
	}
	segments := strings.Split(path, ".")
	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
		}
	}
	return segments, nil
}

// JoinPath joins non-empty segments with dots.
func JoinPath(segments ...string) string {
	kept := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment != "" {
			kept = append(kept, segment)
		}
	}
	return strings.Join(kept, ".")
}

// Addressable reports whether key can stand as one path segment. Empty keys
// and keys holding a dot cannot be written back through a dot path.
func Addressable(key string) bool {
	return key != "" && !strings.Contains(key, ".")
}

// ValidatePath reports whether path is well formed.
func ValidatePath(path string) error {
	_, err := SplitPath(path)
	return err
}

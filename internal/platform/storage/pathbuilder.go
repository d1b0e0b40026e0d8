package storage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidObjectPath reports an asset location that would escape its prefix.
var ErrInvalidObjectPath = errors.New("storage: invalid object path")

// ObjectPath joins prefix, version and file name into a bucket object key,
// e.g. "namedivider/v1/kanji.json". Prefix may be nested; version may be empty.
func ObjectPath(prefix, version, name string) (string, error) {
	var segments []string
	if prefix = strings.Trim(strings.TrimSpace(prefix), "/"); prefix != "" {
		segments = strings.Split(prefix, "/")
	}
	if version = strings.TrimSpace(version); version != "" {
		segments = append(segments, version)
	}
	segments = append(segments, strings.TrimSpace(name))

	for i, segment := range segments {
		if err := checkSegment(segment); err != nil {
			return "", fmt.Errorf("%w: segment %d %q: %v", ErrInvalidObjectPath, i, segment, err)
		}
	}
	return strings.Join(segments, "/"), nil
}

func checkSegment(segment string) error {
	switch {
	case segment == "":
		return errors.New("empty")
	case strings.ContainsAny(segment, `/\`):
		return errors.New("contains a path separator")
	case strings.Contains(segment, ".."):
		return errors.New("contains a traversal sequence")
	}
	return nil
}

// validateFileName returns the trimmed asset name, rejecting names that are not a single path segment.
func validateFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := checkSegment(name); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidObjectPath, name, err)
	}
	return name, nil
}

// Package extras discovers untracked and ignored files in a repository,
// groups them into skip buckets, and copies a chosen subset into a new worktree.
package extras

import (
	"path"
	"path/filepath"
	"strings"
)

const (
	pathSeparator     = "/"
	currentDirectory  = "."
	parentDirectory   = ".."
	windowsSeparator  = "\\"
	windowsDriveColon = ':'
)

// NormalizeRelativePath converts a repository-relative path into its canonical
// slash-separated form. Absolute paths, parent references, and paths that
// normalize to nothing are rejected with an *InvalidPathError.
func NormalizeRelativePath(rawPath string) (string, error) {
	if rawPath == "" {
		return "", &InvalidPathError{Path: rawPath}
	}
	if path.IsAbs(rawPath) || filepath.IsAbs(rawPath) || filepath.VolumeName(rawPath) != "" {
		return "", &InvalidPathError{Path: rawPath}
	}
	if strings.HasPrefix(rawPath, windowsSeparator) || hasDrivePrefix(rawPath) {
		return "", &InvalidPathError{Path: rawPath}
	}

	segments := strings.Split(filepath.ToSlash(rawPath), pathSeparator)
	normalizedSegments := make([]string, 0, len(segments))
	for _, segment := range segments {
		switch segment {
		case "", currentDirectory:
			continue
		case parentDirectory:
			return "", &InvalidPathError{Path: rawPath}
		default:
			normalizedSegments = append(normalizedSegments, segment)
		}
	}
	if len(normalizedSegments) == 0 {
		return "", &InvalidPathError{Path: rawPath}
	}
	return strings.Join(normalizedSegments, pathSeparator), nil
}

// hasDrivePrefix reports a "C:" style prefix regardless of the host platform.
func hasDrivePrefix(rawPath string) bool {
	if len(rawPath) < 2 || rawPath[1] != windowsDriveColon {
		return false
	}
	firstCharacter := rawPath[0]
	return (firstCharacter >= 'a' && firstCharacter <= 'z') || (firstCharacter >= 'A' && firstCharacter <= 'Z')
}

func splitComponents(normalizedPath string) []string {
	if normalizedPath == "" {
		return nil
	}
	return strings.Split(normalizedPath, pathSeparator)
}

func joinComponents(components []string) string {
	return strings.Join(components, pathSeparator)
}

// isUnderReservedDirectory reports whether the first component of a normalized path is the reserved directory.
func isUnderReservedDirectory(normalizedPath string, reservedDirectory string) bool {
	if reservedDirectory == "" {
		return false
	}
	firstComponent, _, _ := strings.Cut(normalizedPath, pathSeparator)
	return firstComponent == reservedDirectory
}

func hasComponentPrefix(components []string, prefix []string) bool {
	if len(prefix) == 0 || len(prefix) > len(components) {
		return false
	}
	for index, component := range prefix {
		if components[index] != component {
			return false
		}
	}
	return true
}

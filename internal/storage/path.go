package storage

import (
	"fmt"
	"path"
	"strings"
)

// CleanPath normalises a repository-relative path and rejects anything that
// is absolute or escapes the repository root.
func CleanPath(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("storage: empty path")
	}
	if strings.HasPrefix(rel, "/") || strings.Contains(rel, "\\") {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	cleaned := path.Clean(rel)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("storage: path escapes repository root: %s", rel)
	}
	return cleaned, nil
}

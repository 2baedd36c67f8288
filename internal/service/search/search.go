package search

import (
	"path/filepath"
	"strings"
)

// Filter keeps the paths whose base name contains query, ignoring case.
// An empty query returns paths unchanged. Relative order is preserved.
func Filter(paths []string, query string) []string {
	if query == "" {
		return paths
	}

	query = strings.ToLower(query)

	filtered := make([]string, 0, len(paths))
	for _, path := range paths {
		if strings.Contains(strings.ToLower(filepath.Base(path)), query) {
			filtered = append(filtered, path)
		}
	}

	return filtered
}

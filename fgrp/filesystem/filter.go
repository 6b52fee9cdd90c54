package filesystem

import "strings"

// FilterByPattern keeps the paths containing pattern as a literal,
// case-sensitive substring of the full path. An empty pattern keeps every path.
// Input order is preserved.
func FilterByPattern(paths []string, pattern string) []string {
	matches := make([]string, 0, len(paths))
	for _, p := range paths {
		if pattern == "" || strings.Contains(p, pattern) {
			matches = append(matches, p)
		}
	}
	return matches
}

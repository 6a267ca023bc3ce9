package portfoliogate

import (
	"strings"
)

// SplitList splits a comma-separated value, dropping blank entries.
func SplitList(s string) []string {
	return FilterEmpty(strings.Split(s, ","))
}

// FilterEmpty trims each value and removes the blank ones.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// isAPIPath reports whether path belongs to the JSON API.
func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

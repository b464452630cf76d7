// Package utils holds tiny helpers with no domain knowledge.
package utils

import "strconv"

// AtoiDefault parses s as an int and falls back to def when s is empty or
// not a valid integer. The admin handlers use it for page and page_size
// query parameters, where a garbled value should mean "use the default"
// rather than an error response.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

package models

import "strings"

// normalizeUsername lowercases and trims a username for case-insensitive
// comparisons and storage keys.
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizeUsername is the exported form used outside this package.
func NormalizeUsername(username string) string {
	return normalizeUsername(username)
}

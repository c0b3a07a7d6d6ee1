// Package shared provides common utility functions used across multiple
// packages in the envbuilder codebase.
package shared

import (
	"fmt"
	"strings"
)

// NormalizePackageName lowercases a package name and replaces underscores
// and dots with hyphens, following PEP 503 normalization.
func NormalizePackageName(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	replacer := strings.NewReplacer("_", "-", ".", "-")
	return replacer.Replace(lower)
}

// HTTPStatusError creates a formatted error for non-2xx HTTP responses.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	return fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err)
}

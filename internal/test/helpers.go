// Package test provides shared helpers for the test suites.
package test

import (
	"path/filepath"
	"testing"
)

// TmpFile returns the path for a database file in a temporary directory
// that is cleaned up when the test finishes.
func TmpFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "backend.db")
}

// Package shared holds helpers used by more than one package and owned by
// none of them. Its testutil subpackage provides a capturing slog handler
// and builders for student workbooks used throughout the test suites.
package shared

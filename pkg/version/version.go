// Package version holds build version information.
package version

import "fmt"

// Build information, injected at link time.
var (
	// Version is the semantic version.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "none"
	// Date is the build date.
	Date = "unknown"
)

// Info returns a human-readable version string.
func Info() string {
	return fmt.Sprintf("waveline %s (commit %s, built %s)", Version, Commit, Date)
}

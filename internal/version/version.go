// Package version carries build metadata set via -ldflags.
package version

import "fmt"

var (
	// Version is the current application version.
	// The build system overrides it with -X github.com/ManuGH/onboard/internal/version.Version=...
	Version = "v0.1.0"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// String formats the metadata for -version output.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}

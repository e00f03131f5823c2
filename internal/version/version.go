// Package version exposes build metadata injected via ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables injected via ldflags
var (
	// Version is the semantic version, injected at build time
	Version = "dev"

	// GitCommit is the git commit hash, injected at build time
	GitCommit = "unknown"

	// BuildDate is the build date, injected at build time
	BuildDate = "unknown"

	// GoVersion is the Go version used to build
	GoVersion = runtime.Version()
)

// Short returns the version string alone.
func Short() string {
	return Version
}

// Full returns the version with commit and build metadata.
func Full() string {
	info := Version
	if GitCommit != "" && GitCommit != "unknown" && len(GitCommit) >= 7 {
		info += fmt.Sprintf(" (%s)", GitCommit[:7])
	}
	return fmt.Sprintf("%s built %s with %s", info, BuildDate, GoVersion)
}

package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the prebuild release, set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/prebuild/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Resolved returns Version, falling back to the module version recorded by
// `go install` when no ldflags were given.
func Resolved() string {
	if Version != "unknown" && Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// String renders the line printed by --version.
func String() string {
	return fmt.Sprintf("prebuild %s (commit %s, built %s)", Resolved(), GitCommit, BuildTime)
}

package config

import (
	"path"

	"git.home.luguber.info/inful/prebuild/internal/foundation"
)

// Revision names a historical variant of the RockSniffer pre-build step. Each
// preset fixes a purge list and a dotnet command line.
type Revision string

const (
	// RevisionLangVersion12 builds with C# 12 and purges nothing.
	RevisionLangVersion12 Revision = "langversion12"
	// RevisionLangVersion10 builds with C# 10 after purging bin/.
	RevisionLangVersion10 Revision = "langversion10"
	// RevisionLatest builds with the project's own language version after
	// purging the framework-specific Release output.
	RevisionLatest Revision = "latest"
)

// DefaultFramework is the target framework moniker RockSniffer ships with.
const DefaultFramework = "net6.0-windows"

// Revisions lists the known presets in chronological order.
func Revisions() []Revision {
	return []Revision{RevisionLangVersion12, RevisionLangVersion10, RevisionLatest}
}

// NormalizeRevision converts user input to a Revision, returning empty string for unknown values.
func NormalizeRevision(raw string) Revision {
	return revisionNormalizer.Normalize(raw)
}

var revisionNormalizer = foundation.NewNormalizer(map[string]Revision{
	string(RevisionLangVersion12): RevisionLangVersion12,
	string(RevisionLangVersion10): RevisionLangVersion10,
	string(RevisionLatest):        RevisionLatest,
}, "")

// PresetPurgeDirectories returns the stale-artifact directories for a revision,
// relative to the source directory and using forward slashes.
func PresetPurgeDirectories(rev Revision, framework string) []string {
	if framework == "" {
		framework = DefaultFramework
	}
	switch rev {
	case RevisionLangVersion12:
		return []string{}
	case RevisionLangVersion10:
		return []string{"bin"}
	default:
		return []string{path.Join("bin", "x64", "Release", framework)}
	}
}

// PresetCommand returns the dotnet build invocation for a revision.
func PresetCommand(rev Revision) CommandConfig {
	args := []string{"build"}
	switch rev {
	case RevisionLangVersion12:
		args = append(args, "/p:LangVersion=12.0")
	case RevisionLangVersion10:
		args = append(args, "/p:LangVersion=10.0")
	}
	args = append(args, "/p:Configuration=Release", "/p:Platform=x64")
	return CommandConfig{Tool: "dotnet", Args: args}
}

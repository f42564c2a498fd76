package prebuild

import (
	"git.home.luguber.info/inful/prebuild/internal/config"
	"git.home.luguber.info/inful/prebuild/internal/toolchain"
)

// buildCommand returns the target's build command, falling back to the
// revision preset when none is configured.
func buildCommand(t config.Target) toolchain.Command {
	cc := config.PresetCommand(t.Revision)
	if t.Command != nil {
		cc = *t.Command
	}
	return command(t, cc)
}

// command binds a configured command to the target's directory and settings.
func command(t config.Target, cc config.CommandConfig) toolchain.Command {
	return toolchain.Command{
		Tool:    cc.Tool,
		Args:    append([]string(nil), cc.Args...),
		Line:    cc.Line,
		Shell:   cc.Shell,
		Dir:     t.SourceDir,
		Env:     t.Env,
		Timeout: t.Timeout,
	}
}

// Plan lists the commands Build would run for t, in order.
func Plan(t config.Target) []toolchain.Command {
	cmds := make([]toolchain.Command, 0, len(t.PreCommands)+1)
	for _, pc := range t.PreCommands {
		cmds = append(cmds, command(t, pc))
	}
	return append(cmds, buildCommand(t))
}

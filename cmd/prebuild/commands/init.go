package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/prebuild/internal/config"
)

// InitCmd writes an example prebuild.yaml describing the default RockSniffer
// target and the available revision presets.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory to write prebuild.yaml into (default: the --config path)"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path := root.Config
	if i.Output != "" {
		path = filepath.Join(i.Output, config.DefaultConfigFile)
	}
	fmt.Fprintf(g.Stdout, "Writing configuration to %s\n", path)
	if err := config.Init(path, i.Force); err != nil {
		fmt.Fprintln(g.Stdout, "Initialization failed")
		return err
	}
	fmt.Fprintln(g.Stdout, "initialized successfully")
	fmt.Fprintf(g.Stdout, "Review the targets with: prebuild -c %s show\n", path)
	return nil
}

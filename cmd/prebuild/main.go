// Command prebuild prepares third-party components before the main build.
//
// Run without arguments it behaves like the classic pre-build step: purge the
// RockSniffer release output, run `dotnet build` in ./RockSniffer, print the
// result and exit 0 whatever happened. See `prebuild --help` for the rest.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/prebuild/cmd/prebuild/commands"
	"git.home.luguber.info/inful/prebuild/internal/foundation/errors"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := &commands.CLI{}
	g := commands.NewGlobal(ctx)
	parser, err := commands.NewParser(cli, g.Stdout, g.Stderr)
	if err != nil {
		return errors.NewCLIErrorAdapter(false, nil).Report(errors.WrapError(err, errors.CategoryInternal, "failed to build CLI").Build(), g.Stderr)
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}
	if err := kctx.Run(g, cli); err != nil {
		return errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Report(err, g.Stderr)
	}
	return 0
}

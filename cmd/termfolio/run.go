package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joss/termfolio/internal/headless"
	"github.com/joss/termfolio/internal/modules"
)

type headlessFlags struct {
	echo    bool
	quiet   bool
	strict  bool
	timeout string
}

func runCmd() *cobra.Command {
	var hf headlessFlags

	cmd := &cobra.Command{
		Use:   "run [command...]",
		Short: "Run commands without the full-screen UI",
		Long: `Run each command in order and print every line as it is produced.

With no arguments, or with "-", commands are read from stdin, one per line.

Examples:
  termfolio run 1 3 /status
  termfolio run --echo menu 8
  printf '1\n2\n' | termfolio run -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			cmds := args
			if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
				var err error
				cmds, err = headless.ReadCommands(os.Stdin)
				if err != nil {
					return err
				}
			}
			return runHeadless(ctx, cmds, hf)
		},
	}

	cmd.Flags().BoolVar(&hf.echo, "echo", false, "Print each command before its output")
	cmd.Flags().BoolVarP(&hf.quiet, "quiet", "q", false, "Skip the boot banner")
	cmd.Flags().BoolVar(&hf.strict, "strict", false, "Exit non-zero if any error line was printed")
	cmd.Flags().StringVar(&hf.timeout, "timeout", "", "Give up after this long (e.g. 30s)")
	return cmd
}

func runHeadless(ctx context.Context, cmds []string, hf headlessFlags) error {
	if hf.timeout != "" {
		d, err := parseTimeout(hf.timeout)
		if err != nil {
			return err
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	res, err := headless.Run(ctx, headless.Options{
		Config: cfg,
		Loader: modules.Default(cfg),
		Out:    os.Stdout,
		Pretty: !flags.plain && term.IsTerminal(int(os.Stdout.Fd())),
		Echo:   hf.echo,
		Quiet:  hf.quiet,
	}, cmds)
	if err != nil {
		return err
	}
	if hf.strict && res.Errors > 0 {
		return fmt.Errorf("%d error line(s)", res.Errors)
	}
	return nil
}

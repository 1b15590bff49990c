package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// exitErr carries a specific exit code up to main.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func main() {
	root := newRootCmd()

	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}

	root := &cobra.Command{
		Use:           "dutyctl",
		Short:         "Inspect and feed the weekly class deduction board",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "config.toml", "Path to config file")
	flags.StringVar(&opts.at, "at", "", `Evaluate reads as of this local moment ("2006-01-02 15:04") instead of now`)

	root.AddCommand(
		newMigrateCmd(opts),
		newRecordCmd(opts),
		newScoreCmd(opts),
		newClassCmd(opts),
		newSummaryCmd(opts),
	)

	return root
}

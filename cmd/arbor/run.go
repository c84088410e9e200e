package main

import (
	"fmt"
	"os"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <demo>",
	Short: "Run a built-in program",
	Long:  `Runs one of the built-in programs (see 'arbor demos'). Breakpoints open the debugger unless disabled in the config.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, args[0], false)
	},
}

var debugCmd = &cobra.Command{
	Use:   "debug <demo>",
	Short: "Run a built-in program under the debugger",
	Long:  `Runs a built-in program with the debugger attached from the first node. Type 'c' to continue, 's' to step, 'q' to stop debugging.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, args[0], true)
	},
}

func execute(cmd *cobra.Command, demo string, debug bool) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	contextJSON, _ := cmd.Flags().GetString("context")
	quiet, _ := cmd.Flags().GetBool("quiet")

	if !quiet {
		tui.PrintBanner(os.Stderr)
	}

	sigCtx := cli.NewSignalContext(cmd.Context())
	defer sigCtx.Cancel()

	err := cli.Execute(sigCtx, cli.RunOptions{
		Demo:       demo,
		ConfigPath: configPath,
		Context:    contextJSON,
		Debug:      debug,
		Verbose:    verbose,
		Quiet:      quiet,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Console:    tui.NewConsole(os.Stdin, os.Stdout),
	})
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{runCmd, debugCmd} {
		c.Flags().String("context", "", "Initial root scope as a JSON object")
		c.Flags().BoolP("quiet", "q", false, "Do not print the banner and status messages")
		rootCmd.AddCommand(c)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor is a logic execution engine",
	Long: `Arbor runs trees of logic nodes on an explicit stack, with exceptions,
retries, control signals and an interactive debugger.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "arbor.yaml", "Configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every node at debug level")
}

package main

import (
	"fmt"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var demosCmd = &cobra.Command{
	Use:   "demos",
	Short: "List the built-in programs",
	Run: func(cmd *cobra.Command, args []string) {
		for _, d := range cli.Demos() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", d.Name, d.Summary)
		}
	},
}

func init() {
	rootCmd.AddCommand(demosCmd)
}

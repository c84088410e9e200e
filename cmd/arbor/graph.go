package main

import (
	"fmt"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <demo>",
	Short: "Export the logic tree visualization",
	Long:  `Builds a built-in program and outputs a Mermaid diagram (graph TD) of its node tree. With --trace, the node path of a stored trace is highlighted.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		demo, err := cli.LookupDemo(args[0])
		if err != nil {
			return err
		}
		root, err := arbor.New().Build(demo.Name, demo.Program)
		if err != nil {
			return fmt.Errorf("error building %s: %w", demo.Name, err)
		}

		var overlay *graph.GraphOverlay
		if traceID, _ := cmd.Flags().GetString("trace"); traceID != "" {
			err := withStore(cmd, func(store ports.TraceStore) error {
				trace, err := store.Load(cmd.Context(), traceID)
				if err != nil {
					return fmt.Errorf("error loading trace '%s': %w", traceID, err)
				}
				overlay = graph.OverlayFromTrace(trace)
				return nil
			})
			if err != nil {
				return err
			}
		}

		// Generate and print Mermaid graph
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(root, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("trace", "", "Highlight the node path of a stored trace")
}

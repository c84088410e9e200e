package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var tracesCmd = &cobra.Command{
	Use:   "traces",
	Short: "Manage stored fatal-error traces",
	Long:  `List, inspect, and remove the traces of runs that ended with an unhandled exception or a fault.`,
}

var tracesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored traces",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store ports.TraceStore) error {
			ids, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing traces: %w", err)
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No traces found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Traces:")
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), "- "+id)
			}
			return nil
		})
	},
}

var tracesShowCmd = &cobra.Command{
	Use:   "show <trace-id>",
	Short: "Show a stored trace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withStore(cmd, func(store ports.TraceStore) error {
			trace, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("error loading trace '%s': %w", args[0], err)
			}
			if !asJSON {
				return tui.PrintTrace(os.Stdout, trace)
			}
			data, err := json.MarshalIndent(trace, "", "  ")
			if err != nil {
				return fmt.Errorf("error marshaling trace: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		})
	},
}

var tracesRmCmd = &cobra.Command{
	Use:   "rm <trace-id>...",
	Short: "Remove one or more traces",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return errors.New("requires at least one trace id, or --all")
		}
		return withStore(cmd, func(store ports.TraceStore) error {
			ids := args
			if all {
				var err error
				if ids, err = store.List(cmd.Context()); err != nil {
					return fmt.Errorf("error listing traces: %w", err)
				}
			}
			var failed bool
			for _, id := range ids {
				if err := store.Delete(cmd.Context(), id); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
					failed = true
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed trace '%s'\n", id)
				}
			}
			if failed {
				return errors.New("some traces could not be removed")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(tracesCmd)
	tracesCmd.AddCommand(tracesLsCmd)
	tracesCmd.AddCommand(tracesShowCmd)
	tracesCmd.AddCommand(tracesRmCmd)
	tracesShowCmd.Flags().Bool("json", false, "Print the raw JSON record")
	tracesRmCmd.Flags().Bool("all", false, "Remove every stored trace")
}

// withStore opens the configured trace store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(ports.TraceStore) error) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := cli.LoadConfig(configPath)
	if err != nil {
		return err
	}
	store, closeStore, err := cli.OpenTraceStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(store)
}

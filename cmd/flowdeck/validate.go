package main

import (
	"fmt"

	"github.com/aretw0/flowdeck/internal/presentation/tui"
	"github.com/aretw0/flowdeck/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check the graph for consistency",
	Long: `Lints a flow graph: dangling edges, unknown handles, missing or duplicated START
nodes and nodes unreachable from START. Warnings do not fail the command.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runValidate(cmd, args); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Graph is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("flow", "", "Validate the flow with this id from the configured store")
	validateCmd.Flags().Bool("markdown", false, "Print findings as a Markdown table")
}

func runValidate(cmd *cobra.Command, args []string) error {
	g, err := readGraph(cmd, args)
	if err != nil {
		return err
	}

	report := validator.Lint(g)
	if len(report.Issues) > 0 {
		mode := tui.ASCII
		if md, _ := cmd.Flags().GetBool("markdown"); md {
			mode = tui.Markdown
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.IssueTable(report, mode))
	}
	return report.Err()
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/flowdeck/internal/presentation/tui"
	"github.com/aretw0/flowdeck/pkg/registry"
	"github.com/spf13/cobra"
)

var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "Manage stored flows",
	Long:  `List, inspect, and remove flows kept by the configured store.`,
}

var flowLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored flows",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, _, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		ids, err := stack.Store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing flows: %w", err)
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No flows found.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.ListTable("Flow", ids, tui.ASCII))
		return nil
	},
}

var flowInspectCmd = &cobra.Command{
	Use:   "inspect <flow-id>",
	Short: "Inspect the nodes and edges of a flow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flowID := args[0]
		stack, _, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		g, err := stack.Store.Load(cmd.Context(), flowID)
		if err != nil {
			return fmt.Errorf("error loading flow '%s': %w", flowID, err)
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(g, "", "  ")
			if err != nil {
				return fmt.Errorf("error marshaling graph: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		views, err := registry.Default().RenderGraph(g)
		if err != nil {
			return err
		}

		if md, _ := cmd.Flags().GetBool("markdown"); md {
			doc := fmt.Sprintf("# %s\n\n## Nodes\n\n%s\n\n## Edges\n\n%s\n",
				flowID, tui.NodeTable(views, tui.Markdown), tui.EdgeTable(g.Edges, tui.Markdown))
			if !isTerminal(out) {
				fmt.Fprint(out, doc)
				return nil
			}
			rendered, err := tui.NewRenderer()(doc)
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
			return nil
		}

		fmt.Fprintln(out, tui.NodeTable(views, tui.ASCII))
		fmt.Fprintln(out, tui.EdgeTable(g.Edges, tui.ASCII))
		return nil
	},
}

var flowRmCmd = &cobra.Command{
	Use:   "rm <flow-id>...",
	Short: "Remove one or more flows",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, _, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		var errs []error
		for _, flowID := range args {
			if err := stack.Store.Delete(cmd.Context(), flowID); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", flowID, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed flow '%s'\n", flowID)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(flowCmd)
	flowCmd.AddCommand(flowLsCmd)
	flowCmd.AddCommand(flowInspectCmd)
	flowCmd.AddCommand(flowRmCmd)

	flowInspectCmd.Flags().Bool("json", false, "Print the raw graph as JSON")
	flowInspectCmd.Flags().Bool("markdown", false, "Render the tables as styled Markdown")
}

package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/flowdeck/internal/presentation/graph"
	"github.com/aretw0/flowdeck/internal/validator"
	"github.com/aretw0/flowdeck/pkg/adapters/file"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export the flow graph visualization",
	Long: `Reads a flow graph JSON file and outputs a Mermaid diagram (graph TD).
With --flow the graph is loaded from the configured store instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := readGraph(cmd, args)
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if lint, _ := cmd.Flags().GetBool("lint"); lint {
			overlay = &graph.Overlay{}
			for _, is := range validator.Lint(g).Issues {
				if is.NodeID != "" {
					overlay.Highlight = append(overlay.Highlight, is.NodeID)
				}
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, nil, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("flow", "", "Load the flow with this id from the configured store")
	graphCmd.Flags().Bool("lint", false, "Highlight nodes with lint findings")
}

// readGraph loads the graph named by the positional file or the --flow flag.
func readGraph(cmd *cobra.Command, args []string) (*domain.Graph, error) {
	flowID, _ := cmd.Flags().GetString("flow")
	switch {
	case len(args) == 1 && flowID != "":
		return nil, errors.New("pass either a file or --flow, not both")
	case len(args) == 1:
		g, err := file.ReadGraph(args[0])
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", args[0], err)
		}
		return g, nil
	case flowID != "":
		stack, _, err := openStack(cmd)
		if err != nil {
			return nil, err
		}
		defer stack.Close()
		g, err := stack.Store.Load(cmd.Context(), flowID)
		if err != nil {
			return nil, fmt.Errorf("error loading flow %s: %w", flowID, err)
		}
		return g, nil
	}
	return nil, errors.New("a graph file or --flow is required")
}

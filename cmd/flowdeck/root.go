package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/flowdeck/internal/cli"
	"github.com/aretw0/flowdeck/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:   "flowdeck",
	Short: "flowdeck edits WhatsApp chatbot flows",
	Long: `flowdeck keeps chatbot flow graphs editable from the terminal, over HTTP and
through the Model Context Protocol, and follows live conversations.`,
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
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().String("store", "", "Store driver: memory, file, redis, sqlite, neo4j, loam or rest")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error, off)")
}

// loadConfig reads the config file and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("store") {
		cfg.Store.Driver, _ = cmd.Flags().GetString("store")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, cfg.Validate()
}

// openStack loads the config and opens its adapters. The caller closes the stack.
func openStack(cmd *cobra.Command, opts ...cli.StackOption) (*cli.Stack, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, config.Config{}, err
	}
	stack, err := cli.Build(cmd.Context(), cfg, opts...)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("error opening store: %w", err)
	}
	return stack, cfg, nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/flowdeck"
	"github.com/aretw0/flowdeck/internal/cli"
	"github.com/aretw0/flowdeck/internal/presentation/tui"
	httpAdapter "github.com/aretw0/flowdeck/pkg/adapters/http"
	"github.com/aretw0/flowdeck/pkg/conversation"
	"github.com/aretw0/flowdeck/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP editing API",
	Long: `Starts the flow editor as an HTTP server exposing a JSON API, an SSE stream of
graph diffs per flow and Prometheus metrics. When socket.url is configured the
conversation feed is followed in the background.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		stack, cfg, err := openStack(cmd, cli.WithRegisterer(reg))
		if err != nil {
			return err
		}
		defer stack.Close()
		logger := stack.Logger

		if addr, _ := cmd.Flags().GetString("addr"); cmd.Flags().Changed("addr") {
			cfg.Server.Addr = addr
		}

		metrics := observability.NewMetrics(reg)
		hooks := metrics.Hooks().Merge(observability.LoggingHooks(logger))
		editor := flowdeck.New(append(stack.EditorOptions(), flowdeck.WithLifecycleHooks(hooks))...)

		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: httpAdapter.NewHandler(editor, httpAdapter.WithLogger(logger), httpAdapter.WithGatherer(reg)),
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		inbox := conversation.NewInbox(conversation.WithLogger(logger), conversation.WithObserver(metrics.ObserveMessage))
		if feed := stack.Feed(stack.Resync(inbox, nil)); feed != nil {
			go func() {
				if err := inbox.Pump(sigCtx, feed); err != nil && !cli.IsInterrupted(err) {
					logger.Error("conversation feed stopped", "err", err)
				}
			}()
		}

		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet && isTerminal(cmd.OutOrStdout()) {
			tui.PrintBanner(cmd.OutOrStdout())
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting flowdeck server", "addr", srv.Addr, "store", cfg.Store.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case <-sigCtx.Done():
			logger.Info("start shutdown", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "timeout", cfg.Server.ShutdownTimeout, "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("flowdeck server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides server.addr)")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}

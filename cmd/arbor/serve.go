package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/tui"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const defaultDocumentID = "index"

var serveCmd = &cobra.Command{
	Use:   "serve [document-id]",
	Short: "Serve a document over HTTP",
	Long: `Opens (or creates) a document and exposes the editing API over HTTP:
REST endpoints for pages, layers and variables, an SSE change stream on
/events and Prometheus metrics on /metrics. Changes are autosaved.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		port, _ := cmd.Flags().GetString("port")
		id := documentArg(args)

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		p, err := openProject(cmd, reg)
		if err != nil {
			return err
		}
		defer p.Close()

		editor, err := p.editor(arbor.WithAutosave(autosaveDelay(p)))
		if err != nil {
			return err
		}
		if _, err := editor.Open(cmd.Context(), id); err != nil {
			return err
		}
		defer p.closeEditor(editor, &err)

		server, unsubscribe := httpAdapter.NewServer(editor,
			httpAdapter.WithLogger(p.logger),
			httpAdapter.WithMetrics(reg),
			httpAdapter.WithWatcher(p.backend.Watcher),
		)
		defer unsubscribe()

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: server.Routes(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			tui.PrintBanner(cmd.ErrOrStderr())
			fmt.Fprintf(cmd.ErrOrStderr(), "Serving document '%s' on %s\n", id, srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			fmt.Fprintln(cmd.ErrOrStderr(), "\nStart shutdown...")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown did not complete: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Arbor server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}

func documentArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return defaultDocumentID
}

// autosaveDelay is the configured delay, or one second for long-running servers.
func autosaveDelay(p *project) time.Duration {
	if p.cfg.Autosave > 0 {
		return p.cfg.Autosave
	}
	return time.Second
}

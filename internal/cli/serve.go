package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/karmapos/internal/web"
)

// shutdownTimeout bounds how long in-flight requests may finish on stop.
const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string

	// Ready receives the bound address once the listener is open (for testing).
	Ready func(addr string)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve section pages, history and backup download over HTTP",
		Long: `Serve the section pages, the invoice history and a backup download
on a local address. All routes are read-only.

Routes:
  GET /                  section menu
  GET /sections/{id}     section page
  GET /invoices?page=N   invoice page as JSON
  GET /invoices/{id}     one invoice as JSON
  GET /backup            backup file download

Example:
  karma serve
  karma serve --addr 0.0.0.0:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				opts.Addr = rootOpts.Addr
			}
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", DefaultAddr, "listen address (env "+EnvAddr+")")
	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	app, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer app.Close()

	handler := web.NewHandler(app.Store, app.Sections, app.History, app.Now, app.Logger)
	srv := &http.Server{
		Handler:           web.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return app.out.Fail("failed to listen", err)
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			app.Logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	addr := ln.Addr().String()
	app.Logger.Info("server started", "addr", addr)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", addr)
	if opts.Ready != nil {
		opts.Ready(addr)
	}

	select {
	case err := <-errc:
		return app.out.Fail("server error", err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return app.out.Fail("shutdown failed", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return app.out.Fail("server error", err)
	}

	app.Logger.Info("server stopped gracefully")
	return nil
}

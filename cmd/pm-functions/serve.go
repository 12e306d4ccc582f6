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

	"github.com/spf13/cobra"

	"pm-functions/internal/api"
	"pm-functions/internal/config"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().String("listen", "", "listen address (host:port)")
	cmd.Flags().Bool("debug", false, "debug logging")
	cmd.Flags().String("log-format", "", "log format ("+config.LogFormatText+"|"+config.LogFormatJSON+")")
	cmd.Flags().String("log-file", "", "append logs to this file")
	return cmd
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	a, err := openApp(opts.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := api.NewServer(a.cfg, api.ServerDeps{
		Gateway: a.gw,
		DB:      a.dbConn,
		Logger:  a.logSvc,
	})
	if err != nil {
		a.logSvc.Error("config validation error", err)
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	a.logSvc.Info(fmt.Sprintf("pm-functions listening on %s", srv.Addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logSvc.Error("server stopped", err)
			return err
		}
	case sig := <-sigCh:
		a.logSvc.Info(fmt.Sprintf("shutdown signal: %s", sig))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.logSvc.Error("shutdown error", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logSvc.Error("server stopped", err)
			return err
		}
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"pkt.systems/bookbdd"
	"pkt.systems/bookbdd/internal/config"
	"pkt.systems/pslog"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an in-memory booking API for offline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromCmd(cmd)
			configFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			h, err := twinHandler(cfg, logger)
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, ln, h, logger)
		},
	}
	addLoggingFlags(serveCmd.Flags())
	serveCmd.Flags().String("addr", "127.0.0.1:3001", "Listen address")
	serveCmd.Flags().String("username", "", "Override fixture username the twin accepts")
	serveCmd.Flags().String("password", "", "Override fixture password the twin accepts")
	serveCmd.Flags().String("fixtures", "", "Path to fixture YAML (default: embedded fixtures)")
	return serveCmd
}

// twinHandler builds the twin around the credentials a run with the same
// configuration would send.
func twinHandler(cfg config.Config, logger pslog.Base) (http.Handler, error) {
	fx, err := cfg.FixtureSet()
	if err != nil {
		return nil, fmt.Errorf("fixtures: %w", err)
	}
	return bookbdd.NewTwinFor(fx, logger), nil
}

// serve runs the handler on ln until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, ln net.Listener, h http.Handler, logger pslog.Base) error {
	srv := &http.Server{
		Handler:      h,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting booking twin", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down booking twin")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/app"
	"go.uber.org/zap"
)

var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the publication API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port != "" {
			cfg.Port = port
		}
		a, err := app.New(cfg, zlog)
		if err != nil {
			return err
		}
		defer a.Close()

		server := &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      a.Handler,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: cfg.RenderTimeout + 10*time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ln, err := net.Listen("tcp", server.Addr)
		if err != nil {
			return err
		}
		zlog.Info("server starting", zap.String("port", cfg.Port))
		return serveUntil(ctx, server, ln)
	},
}

// serveUntil serves on ln until ctx is done, then returns once in-flight
// requests have drained or the shutdown deadline passed.
func serveUntil(ctx context.Context, server *http.Server, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(ln)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to run the server on (overrides PORT)")
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intake/cmd/migration/initialize"
	"intake/internal/app"
	"intake/internal/handlers"
	"intake/internal/logger"

	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Apply pending migrations and start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := bootstrap()
			if err != nil {
				return err
			}
			defer closer.Close()

			log := logger.New("main").Function("serve")

			a, err := app.New(cfg)
			if err != nil {
				return log.Err("failed to initialize app", err)
			}
			defer a.Close()

			if err := initialize.InitializeTables(a.Database, cfg, log); err != nil {
				return err
			}

			server, err := handlers.NewServer(a)
			if err != nil {
				return log.Err("failed to build server", err)
			}

			errCh := make(chan error, 1)
			go func() {
				addr := fmt.Sprintf(":%d", cfg.ServerPort)
				log.Info("Starting server", "addr", addr, "version", cfg.GeneralVersion, "environment", cfg.Environment)
				errCh <- server.Listen(addr)
			}()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				if err != nil {
					return log.Err("server stopped", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("Shutting down server", "timeout", shutdownTimeout)
			if err := server.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return log.Err("failed to shut down server", err)
			}

			log.Info("Server stopped")
			return nil
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "Maximum time to wait for in-flight requests")

	return cmd
}

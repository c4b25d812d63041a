package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanchriswhite/SnapShooter/internal/api"
	"github.com/bryanchriswhite/SnapShooter/internal/logger"
	"github.com/bryanchriswhite/SnapShooter/internal/shutter"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SnapShooter preview server",
	Long: `Start the SnapShooter HTTP server.

The server takes screenshots on request, serves the latest one with a
scaled preview and streams capture events over a WebSocket.`,
	Example: `  # Start server on default port (8080)
  snapshooter serve

  # Start server on custom port
  snapshooter serve --port 9090

  # Start with debug logging
  snapshooter serve --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, err := loadRuntimeConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()
	log := logger.WithComponent("serve")

	router := newRouter(cfg)
	kind, c := router.Route()
	log.Info().
		Str("session", kind.String()).
		Str("capturer", c.Name()).
		Msg("Session detected")

	server := api.NewServer(shutter.New(router), router, configMgr)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(cfg.Server.Port)
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	fmt.Fprintf(os.Stderr, "SnapShooter is running on http://localhost:%d (Ctrl+C to stop)\n", cfg.Server.Port)

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-sigChan:
	}

	log.Info().Msg("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

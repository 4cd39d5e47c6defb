package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"facegate/internal/config"
	"facegate/internal/logger"
	"facegate/internal/verifier"
	"facegate/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the verification kiosk server",
	Long: `Start the facegate server.
The server exposes the session API the kiosk frontend drives: starting a
verification session, following its progress over SSE, and resetting or
stopping it.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Init(logger.FromEnv())
	cfg := config.Load()
	ctx := context.Background()

	pool, store, err := openRecordStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, err := buildVerifierDeps(ctx, cfg, store)
	if err != nil {
		return err
	}
	tuning := tuningFromConfig(cfg.Thresholds)

	factory := func() (*verifier.Orchestrator, error) {
		// Sessions share the record views but each gets its own state.
		return verifier.New(deps, tuning)
	}

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(web.Deps{
		Factory:  factory,
		Store:    store,
		IDTick:   cfg.Thresholds.Session.IDTick(),
		FaceTick: cfg.Thresholds.Session.FaceTick(),
	}, port, host)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting facegate on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

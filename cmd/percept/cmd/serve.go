package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/corey/percept/internal/adapters/socket"
	"github.com/corey/percept/internal/app"
	"github.com/corey/percept/internal/domain/percept"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the percept daemon (Unix socket + HTTP API)",
	Long:  "Builds the engine from the configured store, then serves analysis over a Unix socket and the HTTP API until interrupted or stopped with 'percept stop'.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, paths, err := loadConfig()
	if err != nil {
		return err
	}

	// Check if already running
	client := socket.NewClient(paths.Socket)
	if client.Ping() {
		fmt.Println(okColor.Sprint("◆ daemon already running"))
		return nil
	}

	logger, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		if isDBLockError(err) {
			return fmt.Errorf("%w\n%s", err, diagnoseDBLock(paths.Socket))
		}
		return fmt.Errorf("init: %w", err)
	}
	if err := a.Start(); err != nil {
		return err
	}

	fmt.Printf("%s at %s\n", okColor.Sprint("◆ percept daemon started"), paths.Socket)
	if a.WebServer != nil {
		fmt.Printf("  HTTP API at %s\n", a.WebServer.URL())
	}

	// Wait for a signal or a remote shutdown.
	select {
	case <-ctx.Done():
	case <-a.ShutdownCh():
	}

	logger.Info("shutting down")
	fmt.Println(dimColor.Sprint("\n◆ shutting down..."))
	return a.Stop()
}

func runStop(cmd *cobra.Command, args []string) error {
	_, paths, err := loadConfig()
	if err != nil {
		return err
	}
	client := socket.NewClient(paths.Socket)

	if !client.Ping() {
		fmt.Println(notOKColor.Sprint("◆ daemon is not running"))
		return nil
	}
	if err := client.Shutdown(); err != nil {
		return err
	}
	fmt.Println(okColor.Sprint("◆ daemon stopped"))
	return nil
}

// withEngine runs fn against a locally built engine, for commands that need
// the full corpus views and must work without a daemon.
func withEngine(ctx context.Context, fn func(*percept.Engine) error) error {
	cfg, paths, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	engine, err := app.NewEngine(ctx, cfg, logger)
	if err != nil {
		if isDBLockError(err) {
			return fmt.Errorf("%w\n%s", err, diagnoseDBLock(paths.Socket))
		}
		return err
	}
	logger.Debug("local engine ready", zap.String("config", paths.Config))
	return fn(engine)
}

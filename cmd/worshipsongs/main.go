package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"worshipsongs/internal/config"
	"worshipsongs/internal/logging"
)

// rootCmd is the worshipsongs entry point.
var rootCmd = &cobra.Command{
	Use:   "worshipsongs",
	Short: "Worship song library and setlist planner",
	Long: `worshipsongs keeps a library of worship songs and the setlists built from them.

Configuration comes from the environment (and .env / config/local.env when present).
Run 'worshipsongs serve' to start the JSON API.`,
	SilenceUsage: true,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, exportCmd, hashPasswordCmd)

	serveCmd.Flags().Bool("seed", false, "add demo songs and a setlist when the library is empty")
	serveCmd.Flags().Bool("migrate", true, "apply pending migrations before serving (postgres only)")
	exportCmd.Flags().StringP("output", "o", "", "write the sheet to a file instead of stdout")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and installs the global logger.
func setup() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
	logging.SetGlobalLogger(logger)
	return cfg, logger, nil
}

func requirePostgres(cfg *config.Config) error {
	if cfg.Storage != config.StoragePostgres {
		return fmt.Errorf("this command needs STORAGE=%s, got %q", config.StoragePostgres, cfg.Storage)
	}
	return nil
}

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "splitledger",
		Short: "Shared expense ledger server",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the RPC server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or upgrade the database schema and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(configPath)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logging.Setup(cfg.LogLevel)
	return cfg, nil
}

func runMigrate(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Opening the store applies the migrations.
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Migration failed", "database", cfg.DBPath, "error", err)
		return err
	}
	slog.Info("Database is up to date", "database", cfg.DBPath)
	return store.Close()
}

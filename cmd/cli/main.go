package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/adapters/repository/sqldb"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/config"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/logger"
	"go.uber.org/zap"
)

var (
	cfg         *config.Config
	zlog        *zap.Logger
	databaseURL string
)

var rootCmd = &cobra.Command{
	Use:           "ecli",
	Short:         "Publish and moderate court decisions identified by ECLI",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if databaseURL != "" {
			cfg.DatabaseURL = databaseURL
		}
		l, err := logger.New(cfg.AppEnv, cfg.LogLevel)
		if err != nil {
			return err
		}
		zlog = l
		zap.ReplaceGlobals(zlog)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database", "", "Database URL (overrides DATABASE_URL)")
}

func openRepo() (*sqldb.Repository, error) {
	repo, err := sqldb.NewRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return repo, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

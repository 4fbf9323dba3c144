// cmd/permit-server/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"fishery-permit/internal/common/config"
	"fishery-permit/internal/common/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath  string
	verbose     bool
	autoMigrate bool
	timeout     time.Duration

	cfg    *config.Config
	zapLog *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "permit-server",
	Short: "Fishery permit application service",
	Long: `Serves the guided fishery permit application wizard and the
application records behind it.

Without database settings the service runs on built-in sample data and
reports the missing settings on /health.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFromFile(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		zapLog = logger.New(level, cfg.Logging.Format)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if zapLog != nil {
			_ = zapLog.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the applications table and its change trigger",
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the sample applications into the database",
	Long: `Inserts the built-in sample applications. Records whose application
number already exists are skipped.`,
	RunE: runSeed,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "Apply the schema before serving")
	migrateCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")
	seedCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

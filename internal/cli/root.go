// Package cli implements the sqlitedb command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	sqlitedb "github.com/gourav-shinde/sqliteDBManager"
	"github.com/gourav-shinde/sqliteDBManager/internal/config"
	"github.com/gourav-shinde/sqliteDBManager/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath  string
	dbPath      string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "sqlitedb",
	Short: "Manage SQLite databases: migrations and schema validation",
	Long: `sqlitedb manages embedded SQLite databases.

It applies versioned migrations from .up.sql/.down.sql script pairs,
tracks applied versions in a bookkeeping table, and validates the
live schema against requirements declared in a TOML config file.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to TOML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the --config file, or falls back to defaults.
// The --db flag overrides the configured database path.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*sqlitedb.Conn, error) {
	conn, err := sqlitedb.Open(cfg.Database.Path, cfg.Options())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("opened database %s", cfg.Database.Path)
	return conn, nil
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	sqlitedb "github.com/gourav-shinde/sqliteDBManager"
	"github.com/gourav-shinde/sqliteDBManager/internal/config"
	"github.com/gourav-shinde/sqliteDBManager/internal/logger"
)

var (
	migrateUpTo   int
	migrateDownTo int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply, roll back, or inspect database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Long: `Apply pending migrations in ascending version order.

Without --to, all pending migrations are applied. With --to N, only
migrations up to and including version N are applied.`,
	RunE: runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations to a target version",
	Long: `Roll back applied migrations in descending version order until the
database is at version --to. Migrations without a down script cannot
be rolled back.`,
	RunE: runMigrateDown,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE:  runMigrateStatus,
}

func init() {
	migrateUpCmd.Flags().IntVar(&migrateUpTo, "to", 0, "highest version to apply (default: all)")
	migrateDownCmd.Flags().IntVar(&migrateDownTo, "to", 0, "version to roll back to")
	_ = migrateDownCmd.MarkFlagRequired("to")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

// buildMigrator loads the migration scripts named by the config.
func buildMigrator(cfg *config.Config) (*sqlitedb.Migrator, error) {
	dir := cfg.Migrations.Dir
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("migrations directory %q: %w", dir, err)
	}

	m := sqlitedb.NewMigrator()
	if err := m.AddFS(os.DirFS(dir), "."); err != nil {
		return nil, err
	}
	return m, nil
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, err := buildMigrator(cfg)
	if err != nil {
		return err
	}
	conn, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	before, err := m.CurrentVersion(conn)
	if err != nil {
		return err
	}

	if migrateUpTo > 0 {
		logger.Debug("applying migrations up to version %d", migrateUpTo)
		err = m.ApplyTo(conn, migrateUpTo)
	} else {
		logger.Debug("applying all pending migrations")
		err = m.Apply(conn)
	}
	if err != nil {
		return err
	}

	after, err := m.CurrentVersion(conn)
	if err != nil {
		return err
	}
	if after == before {
		cmd.Printf("already at version %d, nothing to apply\n", after)
	} else {
		cmd.Printf("migrated from version %d to %d\n", before, after)
	}
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, err := buildMigrator(cfg)
	if err != nil {
		return err
	}
	conn, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	before, err := m.CurrentVersion(conn)
	if err != nil {
		return err
	}

	logger.Debug("rolling back to version %d", migrateDownTo)
	if err := m.RollbackTo(conn, migrateDownTo); err != nil {
		return err
	}

	after, err := m.CurrentVersion(conn)
	if err != nil {
		return err
	}
	if after == before {
		cmd.Printf("already at version %d, nothing to roll back\n", after)
	} else {
		cmd.Printf("rolled back from version %d to %d\n", before, after)
	}
	return nil
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, err := buildMigrator(cfg)
	if err != nil {
		return err
	}
	conn, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	current, err := m.CurrentVersion(conn)
	if err != nil {
		return err
	}
	pending, err := m.Pending(conn)
	if err != nil {
		return err
	}

	cmd.Printf("database: %s\n", cfg.Database.Path)
	cmd.Printf("current version: %d (latest: %d)\n", current, m.LatestVersion())
	if len(pending) == 0 {
		cmd.Println("up to date")
		return nil
	}
	cmd.Printf("pending migrations:\n")
	for _, mig := range pending {
		cmd.Printf("  %d: %s\n", mig.Version, mig.Description)
	}
	return nil
}

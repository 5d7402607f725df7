package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gourav-shinde/sqliteDBManager/internal/logger"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the live schema against configured requirements",
	Long: `Check the database schema against the [[schema.require]] entries in
the config file. Every violation is reported; the command fails if
any requirement is not met.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Schema.Require) == 0 {
		return fmt.Errorf("no schema requirements configured")
	}

	conn, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Debug("checking %d schema requirements", len(cfg.Schema.Require))
	violations, err := cfg.Validator().Validate(conn)
	if err != nil {
		return err
	}

	if len(violations) == 0 {
		cmd.Println("schema OK")
		return nil
	}
	for _, v := range violations {
		cmd.Printf("%s: %s\n", v.Kind, v.Message)
	}
	return fmt.Errorf("schema validation failed with %d violation(s)", len(violations))
}

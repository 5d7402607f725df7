// Package config loads sqlitedb CLI configuration from a TOML file.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	sqlitedb "github.com/gourav-shinde/sqliteDBManager"
)

// Config is the top-level configuration for the sqlitedb CLI.
type Config struct {
	Database   DatabaseConfig   `toml:"database"`
	Migrations MigrationsConfig `toml:"migrations"`
	Schema     SchemaConfig     `toml:"schema"`
}

// DatabaseConfig controls how the database file is opened.
// WAL and ForeignKeys are pointers so that an absent key keeps
// the default of true.
type DatabaseConfig struct {
	Path          string `toml:"path"`
	WAL           *bool  `toml:"wal"`
	ForeignKeys   *bool  `toml:"foreign_keys"`
	BusyTimeoutMs int    `toml:"busy_timeout_ms"`
	ReadOnly      bool   `toml:"read_only"`
}

// MigrationsConfig points at the directory holding .up.sql/.down.sql
// migration scripts.
type MigrationsConfig struct {
	Dir string `toml:"dir"`
}

// SchemaConfig lists the schema requirements checked by the validate
// command.
type SchemaConfig struct {
	Require []Requirement `toml:"require"`
}

// Requirement is one [[schema.require]] entry. Table is mandatory; the
// remaining fields narrow the check to a column, its type, a not-null
// constraint, or an index.
type Requirement struct {
	Table   string `toml:"table"`
	Column  string `toml:"column"`
	Type    string `toml:"type"`
	NotNull bool   `toml:"not_null"`
	Index   string `toml:"index"`
}

// Default returns a Config with all defaults applied and no schema
// requirements.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:          "data.db",
			BusyTimeoutMs: 5000,
		},
		Migrations: MigrationsConfig{
			Dir: "migrations",
		},
	}
}

// Load reads a TOML config file and applies defaults for absent keys.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Database.BusyTimeoutMs < 0 {
		return fmt.Errorf("database.busy_timeout_ms must not be negative")
	}
	for i, r := range c.Schema.Require {
		if r.Table == "" {
			return fmt.Errorf("schema.require[%d]: table must not be empty", i)
		}
		if r.Column == "" && (r.Type != "" || r.NotNull) {
			return fmt.Errorf("schema.require[%d]: type and not_null need a column", i)
		}
	}
	return nil
}

// Options converts the database section into open options.
func (c *Config) Options() *sqlitedb.Options {
	opts := sqlitedb.DefaultOptions()
	opts.ReadOnly = c.Database.ReadOnly
	if c.Database.BusyTimeoutMs > 0 {
		opts.BusyTimeoutMs = c.Database.BusyTimeoutMs
	}
	if c.Database.WAL != nil {
		opts.EnableWAL = *c.Database.WAL
	}
	if c.Database.ForeignKeys != nil {
		opts.EnableForeignKeys = *c.Database.ForeignKeys
	}
	return &opts
}

// Validator builds a schema validator from the [[schema.require]]
// entries.
func (c *Config) Validator() *sqlitedb.Validator {
	v := sqlitedb.NewValidator()
	for _, r := range c.Schema.Require {
		switch {
		case r.Column != "":
			v.RequireColumn(r.Table, r.Column, r.Type)
			if r.NotNull {
				v.RequireNotNull(r.Table, r.Column)
			}
		default:
			v.RequireTable(r.Table)
		}
		if r.Index != "" {
			v.RequireIndex(r.Table, r.Index)
		}
	}
	return v
}

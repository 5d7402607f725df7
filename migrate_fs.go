package sqlitedb

import (
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
)

// LoadFS builds migrations from SQL files in a filesystem, so migrations
// can ship as embedded or on-disk scripts. Files are named
// NNN_description.up.sql with an optional NNN_description.down.sql
// counterpart; NNN is the version. Files that do not match the pattern
// are ignored. The result is sorted by version ascending.
func LoadFS(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	type pair struct {
		version     int
		description string
		upFile      string
		downFile    string
	}
	pairs := make(map[int]*pair)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		version, description, up, ok := parseMigrationName(name)
		if !ok {
			continue
		}
		p := pairs[version]
		if p == nil {
			p = &pair{version: version, description: description}
			pairs[version] = p
		}
		if up {
			p.upFile = name
		} else {
			p.downFile = name
		}
	}

	var migrations []Migration
	for _, p := range pairs {
		if p.upFile == "" {
			return nil, fmt.Errorf("migration %d has a down file but no up file", p.version)
		}
		upSQL, err := readScript(fsys, dir, p.upFile)
		if err != nil {
			return nil, err
		}
		mig := Migration{
			Version:     p.version,
			Description: p.description,
			Up: func(c *Conn) error {
				return c.ExecScript(upSQL)
			},
		}
		if p.downFile != "" {
			downSQL, err := readScript(fsys, dir, p.downFile)
			if err != nil {
				return nil, err
			}
			mig.Down = func(c *Conn) error {
				return c.ExecScript(downSQL)
			}
		}
		migrations = append(migrations, mig)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// AddFS loads SQL-file migrations from fsys and registers them.
func (m *Migrator) AddFS(fsys fs.FS, dir string) error {
	migrations, err := LoadFS(fsys, dir)
	if err != nil {
		return err
	}
	for _, mig := range migrations {
		if err := m.AddMigration(mig); err != nil {
			return err
		}
	}
	return nil
}

func readScript(fsys fs.FS, dir, name string) (string, error) {
	path := name
	if dir != "" && dir != "." {
		path = dir + "/" + name
	}
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return "", fmt.Errorf("reading migration %s: %w", name, err)
	}
	return string(content), nil
}

// parseMigrationName splits "002_add_email.up.sql" into version 2,
// description "add email" and direction.
func parseMigrationName(name string) (version int, description string, up bool, ok bool) {
	base := strings.TrimSuffix(name, ".sql")
	if base == name {
		return 0, "", false, false
	}

	switch {
	case strings.HasSuffix(base, ".up"):
		up = true
		base = strings.TrimSuffix(base, ".up")
	case strings.HasSuffix(base, ".down"):
		base = strings.TrimSuffix(base, ".down")
	default:
		return 0, "", false, false
	}

	prefix, rest, found := strings.Cut(base, "_")
	if !found {
		return 0, "", false, false
	}
	version, err := strconv.Atoi(prefix)
	if err != nil || version <= 0 {
		return 0, "", false, false
	}

	description = strings.ReplaceAll(rest, "_", " ")
	return version, description, up, true
}

package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

type migration struct {
	name string
	sql  string
}

// RunMigrations applies every *.sql file in name order. Files come from dir
// when it exists, otherwise from the embedded set. Statements must be
// idempotent since no version table is kept.
func RunMigrations(ctx context.Context, db *sql.DB, dir string) error {
	list, err := loadMigrations(dir)
	if err != nil {
		return err
	}
	for _, m := range list {
		if strings.TrimSpace(m.sql) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("exec migration %s: %w", m.name, err)
		}
	}
	return nil
}

func loadMigrations(dir string) ([]migration, error) {
	if dir != "" {
		list, err := readMigrations(os.DirFS(dir), ".", func(name string) string { return filepath.Join(dir, name) })
		if err == nil {
			return list, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read migrations: %w", err)
		}
	}
	list, err := readMigrations(embeddedMigrations, "migrations", func(name string) string { return path.Join("migrations", name) })
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}
	return list, nil
}

func readMigrations(fsys fs.FS, root string, label func(string) string) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, err
	}
	var out []migration
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", label(entry.Name()), err)
		}
		out = append(out, migration{name: entry.Name(), sql: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

// Package database opens the data store that questions are answered from and
// describes its schema for query translation.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/go-libsql"
)

// DriverName is the database/sql driver used for all connections.
const DriverName = "libsql"

// Open connects to the database described by cfg, verifies connectivity, and
// applies migrations when cfg.Migrations is set.
func Open(ctx context.Context, cfg *Config) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open libsql connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	if cfg.Migrations != "" {
		if _, err := Migrate(ctx, db, os.DirFS(cfg.Migrations)); err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}

// Migrate applies all pending goose migrations found in fsys and returns the
// names of the migrations that ran.
func Migrate(ctx context.Context, db *sql.DB, fsys fs.FS) ([]string, error) {
	provider, err := goose.NewProvider(goose.DialectTurso, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create goose provider: %v", ErrMigrate, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMigrate, err)
	}

	applied := make([]string, 0, len(results))
	for _, r := range results {
		if r.Source != nil {
			applied = append(applied, filepath.Base(r.Source.Path))
		}
	}
	if len(applied) > 0 {
		slog.Info("Applied database migrations", "count", len(applied))
	}
	return applied, nil
}

func buildDSN(cfg *Config) (string, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		return "", fmt.Errorf("%w: empty database url", ErrConnect)
	}

	if path, ok := strings.CutPrefix(raw, "file:"); ok {
		path, _, _ = strings.Cut(path, "?")
		if path != "" && !strings.HasPrefix(path, ":memory:") {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return "", fmt.Errorf("could not create database directory for %s: %w", path, err)
			}
		}
		return raw, nil
	}

	if cfg.AuthTokenEnv == "" {
		return raw, nil
	}
	token := os.Getenv(cfg.AuthTokenEnv)
	if token == "" {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid database url: %v", ErrConnect, err)
	}
	q := u.Query()
	q.Set("authToken", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

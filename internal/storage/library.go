/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "paintify/internal/log"
	"paintify/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName holds the metadata database under the library root.
	IndexDirName  = ".paintify"
	IndexFileName = "library.sqlite"
	// PicturesDirName holds the rendered PNG files.
	PicturesDirName = "pictures"

	// schemaVersion tracks the local SQLite schema. Bump it together with a
	// new step in runMigrations.
	schemaVersion = 2
)

// Library is a drawing library rooted at a directory: a SQLite metadata
// database plus a folder of rendered images.
type Library struct {
	root string
	db   *sql.DB
	lg   *slog.Logger
	now  func() time.Time
}

// IndexPath returns the metadata database path for a library root.
func IndexPath(root string) string {
	return filepath.Join(root, IndexDirName, IndexFileName)
}

// OpenLibrary creates (if needed) and opens the library at root. The
// database runs in WAL mode with meta/version bookkeeping and is migrated to
// the current schema.
func OpenLibrary(root string) (*Library, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "library_open").With(
		slog.String("root", root),
	)
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("library root is required")
	}
	for _, d := range []string{filepath.Join(root, IndexDirName), filepath.Join(root, PicturesDirName)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			l.Error("create library dir failed", slog.String("dir", d), slog.Any("err", err))
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}
	db, err := openIndex(IndexPath(root))
	if err != nil {
		l.Error("open index failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("library ready", slog.String("path", IndexPath(root)))
	return &Library{root: root, db: db, lg: applog.WithComponent("storage"), now: time.Now}, nil
}

func openIndex(path string) (*sql.DB, error) {
	// forward slashes for the SQLite URI
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign_keys: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Root returns the library directory.
func (l *Library) Root() string { return l.root }

// PicturesDir returns the directory rendered images are written to.
func (l *Library) PicturesDir() string { return filepath.Join(l.root, PicturesDirName) }

// Close releases the database handle.
func (l *Library) Close() error { return l.db.Close() }

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// a fresh database starts at schema 1 and is migrated forward
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureSchema creates the schema-1 tables.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS drawings (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT    NOT NULL,
			file_path   TEXT    NOT NULL,
			width_px    INTEGER NOT NULL,
			height_px   INTEGER NOT NULL,
			created_at  INTEGER NOT NULL,
			updated_at  INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS thumbnails (
			drawing_id  INTEGER PRIMARY KEY REFERENCES drawings(id) ON DELETE CASCADE,
			max_px      INTEGER NOT NULL,
			png         BLOB    NOT NULL,
			updated_at  INTEGER NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	// never downgrade
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_drawings_created ON drawings(created_at DESC);`,
				`CREATE UNIQUE INDEX IF NOT EXISTS ux_drawings_file ON drawings(file_path);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// SchemaVersion reports the schema version recorded in the database.
func (l *Library) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := l.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// CheckAndRepair opens the library, and if the metadata database is corrupt
// or unreadable, moves it to .paintify/backups and rebuilds it from the PNG
// files found in the pictures folder. It reports whether a rebuild happened.
func CheckAndRepair(ctx context.Context, root string) (*Library, bool, error) {
	lg := applog.WithOperation(applog.WithComponent("storage"), "library_repair").With(slog.String("root", root))
	lib, err := OpenLibrary(root)
	if err == nil {
		var chk string
		qerr := lib.db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk)
		if qerr == nil && strings.EqualFold(strings.TrimSpace(chk), "ok") {
			if _, perr := lib.db.ExecContext(ctx, `SELECT 1 FROM drawings LIMIT 1;`); perr == nil {
				return lib, false, nil
			}
		}
		_ = lib.Close()
	}
	lg.Warn("library index unhealthy; rebuilding", slog.Any("err", err))
	path := IndexPath(root)
	backupIndexFile(path)
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	lib, err = OpenLibrary(root)
	if err != nil {
		return nil, false, fmt.Errorf("reopen after repair: %w", err)
	}
	n, err := lib.Reindex(ctx)
	if err != nil {
		_ = lib.Close()
		return nil, false, err
	}
	lg.Info("library rebuilt", slog.Int("drawings", n))
	return lib, true, nil
}

// backupIndexFile copies the index file into a timestamped backup in .paintify/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

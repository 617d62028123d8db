/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package cloud keeps copies of saved drawings in Postgres and lets users
// share them by e-mail. It contains the store, an HTTP server exposing it,
// a client for that server and an async mirror used by the save path.
package cloud

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	applog "paintify/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a drawing id does not exist.
var ErrNotFound = errors.New("cloud: not found")

// Drawing is an uploaded drawing without its image bytes.
type Drawing struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Share grants a receiver access to an uploaded image.
type Share struct {
	ID            string    `json:"id"`
	SenderID      string    `json:"sender_id"`
	ReceiverEmail string    `json:"receiver_email"`
	ImageURL      string    `json:"image_url"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store is the Postgres-backed drawing store.
type Store struct {
	db         *sql.DB
	publicBase string
	lg         *slog.Logger
	now        func() time.Time
}

// Open connects to dsn, checks the connection and applies pending
// migrations. publicBase prefixes the image URLs handed out to clients.
func Open(ctx context.Context, dsn, publicBase string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{
		db:         db,
		publicBase: strings.TrimRight(publicBase, "/"),
		lg:         applog.WithComponent("cloud"),
		now:        time.Now,
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// ImageURL is the public URL for a drawing id.
func (s *Store) ImageURL(id string) string {
	return s.publicBase + "/api/drawings/" + id + "/image"
}

// UploadDrawing reads the PNG at filePath and stores it for userID.
func (s *Store) UploadDrawing(ctx context.Context, userID, title, filePath string) (Drawing, error) {
	img, err := os.ReadFile(filePath)
	if err != nil {
		return Drawing{}, fmt.Errorf("read %s: %w", filePath, err)
	}
	return s.UploadImage(ctx, userID, title, img)
}

// UploadImage stores already encoded PNG bytes for userID.
func (s *Store) UploadImage(ctx context.Context, userID, title string, img []byte) (Drawing, error) {
	d := Drawing{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.UnixMilli(s.now().UnixMilli()).UTC(),
	}
	d.ImageURL = s.ImageURL(d.ID)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO cloud_drawings(id, user_id, title, image, created_at) VALUES($1,$2,$3,$4,$5)`,
		d.ID, d.UserID, d.Title, img, d.CreatedAt.UnixMilli()); err != nil {
		return Drawing{}, fmt.Errorf("insert cloud drawing: %w", err)
	}
	s.lg.Info("drawing uploaded", slog.String("id", d.ID), slog.String("user", userID), slog.Int("bytes", len(img)))
	return d, nil
}

// ListUserDrawings returns the user's uploads, newest first.
func (s *Store) ListUserDrawings(ctx context.Context, userID string) ([]Drawing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, created_at FROM cloud_drawings WHERE user_id=$1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cloud drawings: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []Drawing{}
	for rows.Next() {
		var (
			d  Drawing
			ms int64
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.Title, &ms); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		d.CreatedAt = time.UnixMilli(ms).UTC()
		d.ImageURL = s.ImageURL(d.ID)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Image returns the stored PNG bytes.
func (s *Store) Image(ctx context.Context, id string) ([]byte, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var img []byte
	switch err := s.db.QueryRowContext(ctx, `SELECT image FROM cloud_drawings WHERE id=$1`, id).Scan(&img); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("select image: %w", err)
	}
	return img, nil
}

// Share records that senderID shared imageURL with receiverEmail.
func (s *Store) Share(ctx context.Context, senderID, receiverEmail, imageURL, title string) (Share, error) {
	sh := Share{
		ID:            uuid.NewString(),
		SenderID:      senderID,
		ReceiverEmail: strings.TrimSpace(receiverEmail),
		ImageURL:      imageURL,
		Title:         title,
		CreatedAt:     time.UnixMilli(s.now().UnixMilli()).UTC(),
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO shared_drawings(id, sender_id, receiver_email, image_url, title, created_at) VALUES($1,$2,$3,$4,$5,$6)`,
		sh.ID, sh.SenderID, sh.ReceiverEmail, sh.ImageURL, sh.Title, sh.CreatedAt.UnixMilli()); err != nil {
		return Share{}, fmt.Errorf("insert share: %w", err)
	}
	return sh, nil
}

// SharedWith lists shares addressed to email (case-insensitive), newest first.
func (s *Store) SharedWith(ctx context.Context, email string) ([]Share, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sender_id, receiver_email, image_url, title, created_at FROM shared_drawings
		 WHERE lower(receiver_email) = lower($1) ORDER BY created_at DESC, id`, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []Share{}
	for rows.Next() {
		var (
			sh Share
			ms int64
		)
		if err := rows.Scan(&sh.ID, &sh.SenderID, &sh.ReceiverEmail, &sh.ImageURL, &sh.Title, &ms); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		sh.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, sh)
	}
	return out, rows.Err()
}

// Unshare deletes every share of imageURL made by senderID and returns how
// many were removed.
func (s *Store) Unshare(ctx context.Context, senderID, imageURL string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shared_drawings WHERE sender_id=$1 AND image_url=$2`, senderID, imageURL)
	if err != nil {
		return 0, fmt.Errorf("delete shares: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// applyMigrations applies embedded SQL migrations in filename order.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	// dialect=PostgreSQL
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Close(); err != nil {
		return err
	}

	lg := applog.WithComponent("cloud")
	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		lg.Info("applying migration", slog.String("file", fname))
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES($1,$2)`, version, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	prefix, _, _ := strings.Cut(path.Base(name), "_")
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}

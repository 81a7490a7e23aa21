// Package storage keeps the save history of catalog records and manifests
// in SQLite.
package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
	_ "modernc.org/sqlite"

	"github.com/scriptdex/scriptdex/pkg/manifests"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS saves (
  id          INTEGER PRIMARY KEY,
  slug        TEXT NOT NULL,
  kind        TEXT NOT NULL CHECK (kind IN ('json','manifest')),
  file        TEXT NOT NULL,
  path        TEXT NOT NULL,
  checksum    TEXT NOT NULL,
  size        INTEGER NOT NULL,
  change_type TEXT NOT NULL CHECK (change_type IN ('created','updated','unchanged')),
  saved_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_saves_slug ON saves(slug, saved_at);
CREATE INDEX IF NOT EXISTS idx_saves_path ON saves(path, id);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Checksum returns the sha256 of content. JSON records are canonicalized
// (RFC 8785) first so formatting differences do not count as changes.
func Checksum(kind string, content []byte) (string, error) {
	if kind == manifests.KindRecord {
		canonical, err := jcs.Transform(content)
		if err != nil {
			return "", fmt.Errorf("canonicalizing record: %w", err)
		}
		content = canonical
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]), nil
}

// RecordSave stores s, filling in its checksum, size and change type from
// content and the previous save of the same path.
func (d *DB) RecordSave(ctx context.Context, s Save, content []byte) (Save, error) {
	sum, err := Checksum(s.Kind, content)
	if err != nil {
		return Save{}, err
	}
	s.Checksum = sum
	s.Size = len(content)
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now().UTC()
	}

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return Save{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var prev string
	err = tx.QueryRowContext(ctx, "SELECT checksum FROM saves WHERE path = ? ORDER BY id DESC LIMIT 1", s.Path).Scan(&prev)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.ChangeType = ChangeCreated
	case err != nil:
		return Save{}, err
	case prev == s.Checksum:
		s.ChangeType = ChangeUnchanged
	default:
		s.ChangeType = ChangeUpdated
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO saves(slug, kind, file, path, checksum, size, change_type, saved_at) VALUES(?,?,?,?,?,?,?,?)",
		s.Slug, s.Kind, s.File, s.Path, s.Checksum, s.Size, s.ChangeType, s.SavedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return Save{}, err
	}
	if s.ID, err = res.LastInsertId(); err != nil {
		return Save{}, err
	}
	if err := tx.Commit(); err != nil {
		return Save{}, err
	}
	return s, nil
}

// Record implements manifests.Recorder.
func (d *DB) Record(ctx context.Context, ev manifests.SaveEvent) error {
	_, err := d.RecordSave(ctx, Save{
		Slug:    ev.Slug,
		Kind:    ev.Kind,
		File:    ev.File,
		Path:    ev.Path,
		SavedAt: ev.SavedAt,
	}, ev.Content)
	return err
}

// ListSaves returns saves matching opts, newest first.
func (d *DB) ListSaves(ctx context.Context, opts ListOptions) ([]Save, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.Slug != "" {
		where += " AND slug = ?"
		args = append(args, opts.Slug)
	}
	if opts.Kind != "" {
		where += " AND kind = ?"
		args = append(args, opts.Kind)
	}
	if !opts.Since.IsZero() {
		where += " AND saved_at >= ?"
		args = append(args, opts.Since.UTC().Format(time.RFC3339))
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	q := "SELECT id, slug, kind, file, path, checksum, size, change_type, saved_at FROM saves " + where + " ORDER BY id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Save{}
	for rows.Next() {
		var s Save
		var savedAt string
		if err := rows.Scan(&s.ID, &s.Slug, &s.Kind, &s.File, &s.Path, &s.Checksum, &s.Size, &s.ChangeType, &savedAt); err != nil {
			return nil, err
		}
		s.SavedAt = parseTimestamp(savedAt)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns per-slug save counts ordered by slug.
func (d *DB) Stats(ctx context.Context) ([]SlugStats, error) {
	query := `
		SELECT
			slug,
			SUM(CASE WHEN kind = 'json' THEN 1 ELSE 0 END),
			SUM(CASE WHEN kind = 'manifest' THEN 1 ELSE 0 END),
			MAX(saved_at)
		FROM
			saves
		GROUP BY
			slug
		ORDER BY
			slug;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []SlugStats
	for rows.Next() {
		var s SlugStats
		var last string
		if err := rows.Scan(&s.Slug, &s.Records, &s.Manifests, &last); err != nil {
			return nil, err
		}
		s.LastSaved = parseTimestamp(last)
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// parseTimestamp reads RFC3339 or the SQLite CURRENT_TIMESTAMP format.
func parseTimestamp(v string) time.Time {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
		return t
	}
	return time.Time{}
}

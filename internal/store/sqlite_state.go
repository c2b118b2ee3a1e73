package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// SliceRow is one persisted session slice.
type SliceRow struct {
	Key       string
	JSON      json.RawMessage
	UpdatedAt time.Time
}

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers (TUI and CLI in parallel);
	// busy_timeout avoids "database is locked" flakiness.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLiteState(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLiteState(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS state_meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_slices (
			k TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	_, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO state_meta(k, v) VALUES('version', '1')`)
	return err
}

// LoadSlices returns every persisted slice keyed by name.
func (s Store) LoadSlices(ctx context.Context) (map[string]json.RawMessage, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT k, json FROM session_slices`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]json.RawMessage{}
	for rows.Next() {
		var k, raw string
		if err := rows.Scan(&k, &raw); err != nil {
			return nil, err
		}
		out[k] = json.RawMessage(raw)
	}
	return out, rows.Err()
}

// ReadSlice decodes one slice into v. ok is false when the slice was never saved.
func (s Store) ReadSlice(ctx context.Context, key string, v any) (ok bool, err error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return false, err
	}
	defer db.Close()

	var raw string
	err = db.QueryRowContext(ctx, `SELECT json FROM session_slices WHERE k = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, err
	}
	return true, nil
}

// SaveSlices writes the given slices in one transaction.
func (s Store) SaveSlices(ctx context.Context, slices map[string]any) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	nowMs := time.Now().UTC().UnixMilli()
	for k, v := range slices {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO session_slices(k, json, updated_at_unixms) VALUES(?, ?, ?)`,
			k, string(raw), nowMs); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Clear drops every persisted slice.
func (s Store) Clear(ctx context.Context) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `DELETE FROM session_slices`)
	return err
}

// ListSlices returns slice metadata, newest first.
func (s Store) ListSlices(ctx context.Context) ([]SliceRow, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT k, json, updated_at_unixms FROM session_slices ORDER BY updated_at_unixms DESC, k`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SliceRow
	for rows.Next() {
		var r SliceRow
		var raw string
		var ms int64
		if err := rows.Scan(&r.Key, &raw, &ms); err != nil {
			return nil, err
		}
		r.JSON = json.RawMessage(raw)
		r.UpdatedAt = time.UnixMilli(ms).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore implements TranslationStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStore opens (or creates) a translation cache database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetTranslation returns the cached text for a key. A hit refreshes
// the entry's last-used timestamp and use count.
func (s *SQLiteStore) GetTranslation(ctx context.Context, key string) (string, bool, error) {
	var text string
	err := s.db.QueryRowContext(ctx,
		"SELECT text FROM translations WHERE key = ?", key).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get translation: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE translations SET last_used_at = CURRENT_TIMESTAMP, use_count = use_count + 1 WHERE key = ?",
		key); err != nil {
		return "", false, fmt.Errorf("touch translation: %w", err)
	}

	return text, true, nil
}

// PutTranslation stores or refreshes an entry.
func (s *SQLiteStore) PutTranslation(ctx context.Context, key, provider, model, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO translations (key, provider, model, text)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			provider = excluded.provider,
			model = excluded.model,
			text = excluded.text,
			last_used_at = CURRENT_TIMESTAMP`,
		key, provider, model, text)
	if err != nil {
		return fmt.Errorf("put translation: %w", err)
	}
	return nil
}

// GetEntry returns the full entry for a key.
func (s *SQLiteStore) GetEntry(ctx context.Context, key string) (*Translation, error) {
	t := &Translation{}
	err := s.db.QueryRowContext(ctx, `
		SELECT key, provider, model, text, created_at, last_used_at, use_count
		FROM translations WHERE key = ?`, key).
		Scan(&t.Key, &t.Provider, &t.Model, &t.Text, &t.CreatedAt, &t.LastUsed, &t.UseCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return t, nil
}

// Prune removes entries not used since the cutoff. The cutoff is
// compared textually against CURRENT_TIMESTAMP values, so it must use
// the same "YYYY-MM-DD HH:MM:SS" UTC form.
func (s *SQLiteStore) Prune(ctx context.Context, unusedSince time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM translations WHERE last_used_at < ?",
		unusedSince.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("prune translations: %w", err)
	}
	return res.RowsAffected()
}

// Stats reports entry and usage counts.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(use_count), 0) FROM translations").
		Scan(&stats.Entries, &stats.TotalUses)
	if err != nil {
		return nil, fmt.Errorf("cache stats: %w", err)
	}
	return stats, nil
}

// Package sqlite provides a SQLite-backed interaction storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/marlizel/socialcore/internal/platform/storage/sqlitemigrate"
	"github.com/marlizel/socialcore/internal/services/interactions/storage"
	"github.com/marlizel/socialcore/internal/services/interactions/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists interaction state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite interaction store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// InsertInteraction persists one interaction row. The partial unique index on
// (actor_id, content_id) for likes is the serialization point for concurrent
// like attempts; the losing writer observes ErrConflict.
func (s *Store) InsertInteraction(ctx context.Context, record storage.InteractionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeInteractionRecord(record)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO interactions (id, actor_id, content_id, content_author_id, kind, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		normalized.ID,
		normalized.ActorID,
		normalized.ContentID,
		normalized.ContentAuthorID,
		string(normalized.Kind),
		normalized.Body,
		toMillis(normalized.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// GetInteraction returns one interaction row by id.
func (s *Store) GetInteraction(ctx context.Context, interactionID string) (storage.InteractionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.InteractionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.InteractionRecord{}, fmt.Errorf("storage is not configured")
	}
	interactionID = strings.TrimSpace(interactionID)
	if interactionID == "" {
		return storage.InteractionRecord{}, fmt.Errorf("interaction id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, actor_id, content_id, content_author_id, kind, body, created_at
		 FROM interactions
		 WHERE id = ?`,
		interactionID,
	)
	return scanInteraction(row.Scan)
}

// GetLike returns the like recorded by one actor against one content item.
func (s *Store) GetLike(ctx context.Context, actorID string, contentID string) (storage.InteractionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.InteractionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.InteractionRecord{}, fmt.Errorf("storage is not configured")
	}
	actorID = strings.TrimSpace(actorID)
	contentID = strings.TrimSpace(contentID)
	if actorID == "" {
		return storage.InteractionRecord{}, fmt.Errorf("actor id is required")
	}
	if contentID == "" {
		return storage.InteractionRecord{}, fmt.Errorf("content id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, actor_id, content_id, content_author_id, kind, body, created_at
		 FROM interactions
		 WHERE actor_id = ? AND content_id = ? AND kind = ?`,
		actorID,
		contentID,
		string(storage.KindLike),
	)
	return scanInteraction(row.Scan)
}

// DeleteLike removes one like row. Removing an absent like fails with
// ErrNotFound because the caller asserted a like that does not exist.
func (s *Store) DeleteLike(ctx context.Context, actorID string, contentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	actorID = strings.TrimSpace(actorID)
	contentID = strings.TrimSpace(contentID)
	if actorID == "" {
		return fmt.Errorf("actor id is required")
	}
	if contentID == "" {
		return fmt.Errorf("content id is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM interactions
		 WHERE actor_id = ? AND content_id = ? AND kind = ?`,
		actorID,
		contentID,
		string(storage.KindLike),
	)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete like rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CountLikesForContent returns the number of likes recorded for one content item.
func (s *Store) CountLikesForContent(ctx context.Context, contentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return 0, fmt.Errorf("content id is required")
	}

	var count int
	if err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(1)
		 FROM interactions
		 WHERE content_id = ? AND kind = ?`,
		contentID,
		string(storage.KindLike),
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

type scanner func(dest ...any) error

func scanInteraction(scan scanner) (storage.InteractionRecord, error) {
	var record storage.InteractionRecord
	var kind string
	var createdAt int64
	if err := scan(
		&record.ID,
		&record.ActorID,
		&record.ContentID,
		&record.ContentAuthorID,
		&kind,
		&record.Body,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.InteractionRecord{}, storage.ErrNotFound
		}
		return storage.InteractionRecord{}, fmt.Errorf("scan interaction row: %w", err)
	}
	record.Kind = storage.Kind(kind)
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}

func normalizeInteractionRecord(record storage.InteractionRecord) (storage.InteractionRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.ActorID = strings.TrimSpace(record.ActorID)
	record.ContentID = strings.TrimSpace(record.ContentID)
	record.ContentAuthorID = strings.TrimSpace(record.ContentAuthorID)
	record.Kind = storage.Kind(strings.TrimSpace(string(record.Kind)))
	if record.ID == "" {
		return storage.InteractionRecord{}, fmt.Errorf("interaction id is required")
	}
	if record.ActorID == "" {
		return storage.InteractionRecord{}, fmt.Errorf("actor id is required")
	}
	if record.ContentID == "" {
		return storage.InteractionRecord{}, fmt.Errorf("content id is required")
	}
	if record.ContentAuthorID == "" {
		return storage.InteractionRecord{}, fmt.Errorf("content author id is required")
	}
	if record.Kind != storage.KindLike && record.Kind != storage.KindComment {
		return storage.InteractionRecord{}, fmt.Errorf("unknown interaction kind %q", record.Kind)
	}
	if record.CreatedAt.IsZero() {
		return storage.InteractionRecord{}, fmt.Errorf("created_at is required")
	}
	record.CreatedAt = record.CreatedAt.UTC()
	return record, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "unique constraint failed")
}

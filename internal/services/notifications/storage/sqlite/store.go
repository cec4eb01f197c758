// Package sqlite provides a SQLite-backed notification storage implementation.
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
	"github.com/marlizel/socialcore/internal/services/notifications/storage"
	"github.com/marlizel/socialcore/internal/services/notifications/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for notification state.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a notification SQLite store at the provided path.
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

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutNotification persists one notification row.
func (s *Store) PutNotification(ctx context.Context, record storage.NotificationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeNotificationRecord(record)
	if err != nil {
		return err
	}

	var readAt sql.NullInt64
	if normalized.ReadAt != nil {
		readAt = sql.NullInt64{Int64: toMillis(*normalized.ReadAt), Valid: true}
	}
	unread := 0
	if normalized.Unread {
		unread = 1
	}
	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO notifications (id, recipient_id, actor_id, verb, target_kind, target_id, unread, created_at, read_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		normalized.ID,
		normalized.RecipientID,
		normalized.ActorID,
		normalized.Verb,
		normalized.TargetKind,
		normalized.TargetID,
		unread,
		toMillis(normalized.CreatedAt),
		readAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put notification: %w", err)
	}
	return nil
}

// GetNotification loads one notification row by id.
func (s *Store) GetNotification(ctx context.Context, notificationID string) (storage.NotificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.NotificationRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.NotificationRecord{}, fmt.Errorf("storage is not configured")
	}
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("notification id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, recipient_id, actor_id, verb, target_kind, target_id, unread, created_at, read_at
FROM notifications
WHERE id = ?
`, notificationID)
	record, err := scanNotification(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.NotificationRecord{}, storage.ErrNotFound
		}
		return storage.NotificationRecord{}, fmt.Errorf("get notification: %w", err)
	}
	return record, nil
}

// ListNotificationsByRecipient lists one recipient's notifications newest
// first with cursor pagination. The (created_at DESC, id DESC) composite order
// keeps page boundaries stable while new notifications are inserted.
func (s *Store) ListNotificationsByRecipient(ctx context.Context, recipientID string, pageSize int, pageToken string) (storage.NotificationPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.NotificationPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.NotificationPage{}, fmt.Errorf("storage is not configured")
	}
	recipientID = strings.TrimSpace(recipientID)
	pageToken = strings.TrimSpace(pageToken)
	if recipientID == "" {
		return storage.NotificationPage{}, fmt.Errorf("recipient id is required")
	}
	if pageSize <= 0 {
		return storage.NotificationPage{}, fmt.Errorf("page size must be greater than zero")
	}

	limit := pageSize + 1
	if pageToken == "" {
		rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, recipient_id, actor_id, verb, target_kind, target_id, unread, created_at, read_at
FROM notifications
WHERE recipient_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`, recipientID, limit)
		if err != nil {
			return storage.NotificationPage{}, fmt.Errorf("list notifications: %w", err)
		}
		defer rows.Close()
		return collectNotificationPage(rows, pageSize)
	}

	tokenCreatedAt, err := s.notificationCreatedAtByID(ctx, recipientID, pageToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.NotificationPage{}, nil
		}
		return storage.NotificationPage{}, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, recipient_id, actor_id, verb, target_kind, target_id, unread, created_at, read_at
FROM notifications
WHERE recipient_id = ?
  AND (created_at < ? OR (created_at = ? AND id < ?))
ORDER BY created_at DESC, id DESC
LIMIT ?
`, recipientID, toMillis(tokenCreatedAt), toMillis(tokenCreatedAt), pageToken, limit)
	if err != nil {
		return storage.NotificationPage{}, fmt.Errorf("list notifications with token: %w", err)
	}
	defer rows.Close()
	return collectNotificationPage(rows, pageSize)
}

// CountUnreadByRecipient returns the unread notification count for one recipient.
func (s *Store) CountUnreadByRecipient(ctx context.Context, recipientID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return 0, fmt.Errorf("recipient id is required")
	}

	var unreadCount int
	if err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(1)
FROM notifications
WHERE recipient_id = ? AND unread = 1
`, recipientID).Scan(&unreadCount); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return unreadCount, nil
}

// MarkNotificationRead marks one notification row as read. Rows already read
// keep their original read_at.
func (s *Store) MarkNotificationRead(ctx context.Context, notificationID string, readAt time.Time) (storage.NotificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.NotificationRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.NotificationRecord{}, fmt.Errorf("storage is not configured")
	}
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("notification id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
UPDATE notifications
SET unread = 0, read_at = ?
WHERE id = ? AND unread = 1
`, toMillis(readAt.UTC()), notificationID)
	if err != nil {
		return storage.NotificationRecord{}, fmt.Errorf("mark notification read: %w", err)
	}
	return s.GetNotification(ctx, notificationID)
}

func (s *Store) notificationCreatedAtByID(ctx context.Context, recipientID string, notificationID string) (time.Time, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT created_at
FROM notifications
WHERE recipient_id = ? AND id = ?
`, recipientID, notificationID)
	var createdAtMillis int64
	if err := row.Scan(&createdAtMillis); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("lookup notification cursor: %w", err)
	}
	return fromMillis(createdAtMillis), nil
}

type scanner func(dest ...any) error

func scanNotification(scan scanner) (storage.NotificationRecord, error) {
	var record storage.NotificationRecord
	var unread int
	var createdAt int64
	var readAt sql.NullInt64
	if err := scan(
		&record.ID,
		&record.RecipientID,
		&record.ActorID,
		&record.Verb,
		&record.TargetKind,
		&record.TargetID,
		&unread,
		&createdAt,
		&readAt,
	); err != nil {
		return storage.NotificationRecord{}, err
	}
	record.Unread = unread != 0
	record.CreatedAt = fromMillis(createdAt)
	if readAt.Valid {
		value := fromMillis(readAt.Int64)
		record.ReadAt = &value
	}
	return record, nil
}

func collectNotificationPage(rows *sql.Rows, pageSize int) (storage.NotificationPage, error) {
	page := storage.NotificationPage{
		Notifications: make([]storage.NotificationRecord, 0, pageSize),
	}
	for rows.Next() {
		record, err := scanNotification(rows.Scan)
		if err != nil {
			return storage.NotificationPage{}, fmt.Errorf("scan notification row: %w", err)
		}
		page.Notifications = append(page.Notifications, record)
	}
	if err := rows.Err(); err != nil {
		return storage.NotificationPage{}, fmt.Errorf("iterate notification rows: %w", err)
	}
	if len(page.Notifications) > pageSize {
		page.NextPageToken = page.Notifications[pageSize-1].ID
		page.Notifications = page.Notifications[:pageSize]
	}
	return page, nil
}

func normalizeNotificationRecord(record storage.NotificationRecord) (storage.NotificationRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.RecipientID = strings.TrimSpace(record.RecipientID)
	record.ActorID = strings.TrimSpace(record.ActorID)
	record.Verb = strings.TrimSpace(record.Verb)
	record.TargetKind = strings.TrimSpace(record.TargetKind)
	record.TargetID = strings.TrimSpace(record.TargetID)
	if record.ID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("notification id is required")
	}
	if record.RecipientID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("recipient id is required")
	}
	if record.ActorID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("actor id is required")
	}
	if record.Verb == "" {
		return storage.NotificationRecord{}, fmt.Errorf("verb is required")
	}
	if record.CreatedAt.IsZero() {
		return storage.NotificationRecord{}, fmt.Errorf("created_at is required")
	}
	record.CreatedAt = record.CreatedAt.UTC()
	if record.ReadAt != nil {
		readAt := record.ReadAt.UTC()
		record.ReadAt = &readAt
	}
	return record, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "unique constraint failed")
}

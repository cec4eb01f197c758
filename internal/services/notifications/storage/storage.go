// Package storage defines persistence contracts for notification state.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested notification record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write conflicted with uniqueness constraints.
	ErrConflict = errors.New("record conflict")
)

// NotificationRecord stores one durable recipient notification. TargetKind
// and TargetID form a non-owning polymorphic reference into external stores;
// the referenced entity may be deleted later without corrupting this record.
type NotificationRecord struct {
	ID          string
	RecipientID string
	ActorID     string
	Verb        string
	TargetKind  string
	TargetID    string
	Unread      bool
	CreatedAt   time.Time
	ReadAt      *time.Time
}

// NotificationPage stores a paged recipient listing result.
type NotificationPage struct {
	Notifications []NotificationRecord
	NextPageToken string
}

// NotificationStore persists recipient notification state.
type NotificationStore interface {
	PutNotification(ctx context.Context, record NotificationRecord) error
	GetNotification(ctx context.Context, notificationID string) (NotificationRecord, error)
	ListNotificationsByRecipient(ctx context.Context, recipientID string, pageSize int, pageToken string) (NotificationPage, error)
	CountUnreadByRecipient(ctx context.Context, recipientID string) (int, error)
	// MarkNotificationRead flips unread to read. Marking an already-read
	// notification succeeds without changing read_at.
	MarkNotificationRead(ctx context.Context, notificationID string, readAt time.Time) (NotificationRecord, error)
}

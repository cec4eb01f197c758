package server

import (
	"context"
	"errors"
	"time"

	"github.com/marlizel/socialcore/internal/services/notifications/domain"
	"github.com/marlizel/socialcore/internal/services/notifications/storage"
)

// domainStoreAdapter bridges the notifications domain store contract onto the
// storage layer, translating records and sentinel errors at the boundary.
type domainStoreAdapter struct {
	notificationStore storage.NotificationStore
}

func newDomainStoreAdapter(notificationStore storage.NotificationStore) *domainStoreAdapter {
	return &domainStoreAdapter{notificationStore: notificationStore}
}

func (a *domainStoreAdapter) PutNotification(ctx context.Context, notification domain.Notification) error {
	if a == nil || a.notificationStore == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.notificationStore.PutNotification(ctx, toStorageNotification(notification)))
}

func (a *domainStoreAdapter) GetNotification(ctx context.Context, notificationID string) (domain.Notification, error) {
	if a == nil || a.notificationStore == nil {
		return domain.Notification{}, domain.ErrStoreNotConfigured
	}
	record, err := a.notificationStore.GetNotification(ctx, notificationID)
	if err != nil {
		return domain.Notification{}, mapStorageError(err)
	}
	return toDomainNotification(record), nil
}

func (a *domainStoreAdapter) ListNotificationsByRecipient(ctx context.Context, recipientID string, pageSize int, pageToken string) (domain.NotificationPage, error) {
	if a == nil || a.notificationStore == nil {
		return domain.NotificationPage{}, domain.ErrStoreNotConfigured
	}
	page, err := a.notificationStore.ListNotificationsByRecipient(ctx, recipientID, pageSize, pageToken)
	if err != nil {
		return domain.NotificationPage{}, mapStorageError(err)
	}
	result := domain.NotificationPage{
		Notifications: make([]domain.Notification, 0, len(page.Notifications)),
		NextPageToken: page.NextPageToken,
	}
	for _, record := range page.Notifications {
		result.Notifications = append(result.Notifications, toDomainNotification(record))
	}
	return result, nil
}

func (a *domainStoreAdapter) CountUnreadByRecipient(ctx context.Context, recipientID string) (int, error) {
	if a == nil || a.notificationStore == nil {
		return 0, domain.ErrStoreNotConfigured
	}
	unreadCount, err := a.notificationStore.CountUnreadByRecipient(ctx, recipientID)
	if err != nil {
		return 0, mapStorageError(err)
	}
	return unreadCount, nil
}

func (a *domainStoreAdapter) MarkNotificationRead(ctx context.Context, notificationID string, readAt time.Time) (domain.Notification, error) {
	if a == nil || a.notificationStore == nil {
		return domain.Notification{}, domain.ErrStoreNotConfigured
	}
	record, err := a.notificationStore.MarkNotificationRead(ctx, notificationID, readAt)
	if err != nil {
		return domain.Notification{}, mapStorageError(err)
	}
	return toDomainNotification(record), nil
}

func toStorageNotification(notification domain.Notification) storage.NotificationRecord {
	return storage.NotificationRecord{
		ID:          notification.ID,
		RecipientID: notification.RecipientID,
		ActorID:     notification.ActorID,
		Verb:        notification.Verb,
		TargetKind:  string(notification.TargetKind),
		TargetID:    notification.TargetID,
		Unread:      notification.Unread,
		CreatedAt:   notification.CreatedAt,
		ReadAt:      notification.ReadAt,
	}
}

func toDomainNotification(record storage.NotificationRecord) domain.Notification {
	return domain.Notification{
		ID:          record.ID,
		RecipientID: record.RecipientID,
		ActorID:     record.ActorID,
		Verb:        record.Verb,
		TargetKind:  domain.TargetKind(record.TargetKind),
		TargetID:    record.TargetID,
		Unread:      record.Unread,
		CreatedAt:   record.CreatedAt,
		ReadAt:      record.ReadAt,
	}
}

func mapStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, storage.ErrConflict):
		return domain.ErrConflict
	default:
		return err
	}
}

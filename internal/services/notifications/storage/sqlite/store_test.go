package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marlizel/socialcore/internal/services/notifications/storage"
)

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func notificationRecord(id string, recipientID string, createdAt time.Time) storage.NotificationRecord {
	return storage.NotificationRecord{
		ID:          id,
		RecipientID: recipientID,
		ActorID:     "actor-1",
		Verb:        "liked your post",
		TargetKind:  "post",
		TargetID:    "content-1",
		Unread:      true,
		CreatedAt:   createdAt,
	}
}

func TestPutGetNotificationRoundTrip(t *testing.T) {
	store, err := Open(t.TempDir() + "/notifications.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	if err := store.PutNotification(context.Background(), notificationRecord("notif-1", "account-2", now)); err != nil {
		t.Fatalf("put notification: %v", err)
	}

	record, err := store.GetNotification(context.Background(), "notif-1")
	if err != nil {
		t.Fatalf("get notification: %v", err)
	}
	if record.RecipientID != "account-2" || record.ActorID != "actor-1" {
		t.Fatalf("record = %+v, want recipient account-2 actor actor-1", record)
	}
	if !record.Unread {
		t.Fatal("unread = false, want true")
	}
	if record.ReadAt != nil {
		t.Fatalf("read_at = %v, want nil", record.ReadAt)
	}
	if !record.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", record.CreatedAt, now)
	}
}

func TestPutNotificationDuplicateIDConflicts(t *testing.T) {
	store, err := Open(t.TempDir() + "/notifications.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	if err := store.PutNotification(context.Background(), notificationRecord("notif-1", "account-2", now)); err != nil {
		t.Fatalf("put notification: %v", err)
	}
	err = store.PutNotification(context.Background(), notificationRecord("notif-1", "account-2", now))
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate put err = %v, want ErrConflict", err)
	}
}

func TestGetNotificationNotFound(t *testing.T) {
	store, err := Open(t.TempDir() + "/notifications.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	if _, err := store.GetNotification(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get err = %v, want ErrNotFound", err)
	}
}

func TestListNotificationsByRecipientPagination(t *testing.T) {
	store, err := Open(t.TempDir() + "/notifications.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"notif-1", "notif-2", "notif-3"} {
		if err := store.PutNotification(context.Background(), notificationRecord(id, "account-2", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	if err := store.PutNotification(context.Background(), notificationRecord("notif-other", "account-9", base)); err != nil {
		t.Fatalf("put other recipient: %v", err)
	}

	first, err := store.ListNotificationsByRecipient(context.Background(), "account-2", 2, "")
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if len(first.Notifications) != 2 {
		t.Fatalf("first page len = %d, want 2", len(first.Notifications))
	}
	if first.Notifications[0].ID != "notif-3" || first.Notifications[1].ID != "notif-2" {
		t.Fatalf("first page order = %s, %s; want notif-3, notif-2",
			first.Notifications[0].ID, first.Notifications[1].ID)
	}
	if first.NextPageToken == "" {
		t.Fatal("expected next page token on first page")
	}

	second, err := store.ListNotificationsByRecipient(context.Background(), "account-2", 2, first.NextPageToken)
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second.Notifications) != 1 || second.Notifications[0].ID != "notif-1" {
		t.Fatalf("second page = %+v, want only notif-1", second.Notifications)
	}
	if second.NextPageToken != "" {
		t.Fatalf("second page token = %q, want empty", second.NextPageToken)
	}
}

func TestListNotificationsStableUnderInserts(t *testing.T) {
	store, err := Open(t.TempDir() + "/notifications.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"notif-1", "notif-2", "notif-3"} {
		if err := store.PutNotification(context.Background(), notificationRecord(id, "account-2", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	first, err := store.ListNotificationsByRecipient(context.Background(), "account-2", 2, "")
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}

	// A newer notification arriving mid-traversal must not shift the cursor.
	if err := store.PutNotification(context.Background(), notificationRecord("notif-4", "account-2", base.Add(time.Hour))); err != nil {
		t.Fatalf("put notif-4: %v", err)
	}

	second, err := store.ListNotificationsByRecipient(context.Background(), "account-2", 2, first.NextPageToken)
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second.Notifications) != 1 || second.Notifications[0].ID != "notif-1" {
		t.Fatalf("second page = %+v, want only notif-1", second.Notifications)
	}
}

func TestListNotificationsUnknownTokenReturnsEmptyPage(t *testing.T) {
	store, err := Open(t.TempDir() + "/notifications.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	page, err := store.ListNotificationsByRecipient(context.Background(), "account-2", 10, "missing")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Notifications) != 0 || page.NextPageToken != "" {
		t.Fatalf("page = %+v, want empty", page)
	}
}

func TestCountUnreadByRecipient(t *testing.T) {
	store, err := Open(t.TempDir() + "/notifications.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"notif-1", "notif-2"} {
		if err := store.PutNotification(context.Background(), notificationRecord(id, "account-2", now)); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	readAt := now.Add(time.Minute)
	read := notificationRecord("notif-3", "account-2", now)
	read.Unread = false
	read.ReadAt = &readAt
	if err := store.PutNotification(context.Background(), read); err != nil {
		t.Fatalf("put read notification: %v", err)
	}

	count, err := store.CountUnreadByRecipient(context.Background(), "account-2")
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	store, err := Open(t.TempDir() + "/notifications.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	if err := store.PutNotification(context.Background(), notificationRecord("notif-1", "account-2", now)); err != nil {
		t.Fatalf("put notification: %v", err)
	}

	readAt := now.Add(time.Minute)
	record, err := store.MarkNotificationRead(context.Background(), "notif-1", readAt)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if record.Unread {
		t.Fatal("unread = true after mark read, want false")
	}
	if record.ReadAt == nil || !record.ReadAt.Equal(readAt) {
		t.Fatalf("read_at = %v, want %v", record.ReadAt, readAt)
	}
}

func TestMarkNotificationReadIsIdempotent(t *testing.T) {
	store, err := Open(t.TempDir() + "/notifications.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	if err := store.PutNotification(context.Background(), notificationRecord("notif-1", "account-2", now)); err != nil {
		t.Fatalf("put notification: %v", err)
	}

	firstReadAt := now.Add(time.Minute)
	if _, err := store.MarkNotificationRead(context.Background(), "notif-1", firstReadAt); err != nil {
		t.Fatalf("first mark read: %v", err)
	}
	record, err := store.MarkNotificationRead(context.Background(), "notif-1", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("second mark read: %v", err)
	}
	if record.ReadAt == nil || !record.ReadAt.Equal(firstReadAt) {
		t.Fatalf("read_at = %v, want original %v", record.ReadAt, firstReadAt)
	}
}

func TestMarkNotificationReadMissingReturnsNotFound(t *testing.T) {
	store, err := Open(t.TempDir() + "/notifications.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	if _, err := store.MarkNotificationRead(context.Background(), "missing", time.Now()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("mark read err = %v, want ErrNotFound", err)
	}
}

func TestNotificationSurvivesDanglingTarget(t *testing.T) {
	store, err := Open(t.TempDir() + "/notifications.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	// The target reference is non-owning; a record pointing at content that no
	// longer exists loads without error.
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	record := notificationRecord("notif-1", "account-2", now)
	record.TargetID = "deleted-content"
	if err := store.PutNotification(context.Background(), record); err != nil {
		t.Fatalf("put notification: %v", err)
	}
	loaded, err := store.GetNotification(context.Background(), "notif-1")
	if err != nil {
		t.Fatalf("get notification: %v", err)
	}
	if loaded.TargetID != "deleted-content" {
		t.Fatalf("target_id = %q, want deleted-content", loaded.TargetID)
	}
}

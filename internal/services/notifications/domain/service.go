// Package domain implements notification lifecycle behavior.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/marlizel/socialcore/internal/platform/id"
	"github.com/marlizel/socialcore/internal/platform/pagination"
)

var (
	// ErrNotFound indicates a notification record was not found.
	ErrNotFound = errors.New("notification not found")
	// ErrForbidden indicates the caller does not own the notification.
	ErrForbidden = errors.New("notification belongs to another account")
	// ErrConflict indicates a write conflicted with existing uniqueness constraints.
	ErrConflict = errors.New("notification conflict")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("notification store is not configured")
	// ErrRecipientIDRequired indicates recipient identity is required.
	ErrRecipientIDRequired = errors.New("recipient id is required")
	// ErrActorIDRequired indicates actor identity is required.
	ErrActorIDRequired = errors.New("actor id is required")
	// ErrVerbRequired indicates a verb is required.
	ErrVerbRequired = errors.New("notification verb is required")
	// ErrNotificationIDRequired indicates notification ID is required.
	ErrNotificationIDRequired = errors.New("notification id is required")
	// ErrCallerIDRequired indicates caller identity is required.
	ErrCallerIDRequired = errors.New("caller id is required")
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Notification captures one durable recipient notification.
type Notification struct {
	ID          string
	RecipientID string
	ActorID     string
	Verb        string
	TargetKind  TargetKind
	TargetID    string
	Unread      bool
	CreatedAt   time.Time
	ReadAt      *time.Time
}

// NotificationPage is a paged recipient listing view.
type NotificationPage struct {
	Notifications []Notification
	NextPageToken string
}

// ListInput configures recipient notification listing.
type ListInput struct {
	RecipientID string
	PageSize    int
	PageToken   string
}

// Store is the domain persistence boundary for notification lifecycle behavior.
type Store interface {
	PutNotification(ctx context.Context, notification Notification) error
	GetNotification(ctx context.Context, notificationID string) (Notification, error)
	ListNotificationsByRecipient(ctx context.Context, recipientID string, pageSize int, pageToken string) (NotificationPage, error)
	CountUnreadByRecipient(ctx context.Context, recipientID string) (int, error)
	MarkNotificationRead(ctx context.Context, notificationID string, readAt time.Time) (Notification, error)
}

// Service orchestrates notification lifecycle behavior.
type Service struct {
	store     Store
	resolvers *ResolverSet
	clock     func() time.Time
	newID     func() (string, error)
}

// NewService constructs notification domain use-cases.
func NewService(store Store, resolvers *ResolverSet, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store:     store,
		resolvers: resolvers,
		clock:     clock,
		newID:     newID,
	}
}

// Notify persists one unread notification for the recipient. Self-actions are
// suppressed by policy: when the actor is the recipient, Notify is a no-op.
func (s *Service) Notify(ctx context.Context, recipientID string, actorID string, verb string, targetKind string, targetID string) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	recipientID = strings.TrimSpace(recipientID)
	actorID = strings.TrimSpace(actorID)
	verb = strings.TrimSpace(verb)
	if recipientID == "" {
		return ErrRecipientIDRequired
	}
	if actorID == "" {
		return ErrActorIDRequired
	}
	if verb == "" {
		return ErrVerbRequired
	}
	if recipientID == actorID {
		return nil
	}

	notificationID, err := s.newID()
	if err != nil {
		return err
	}
	return s.store.PutNotification(ctx, Notification{
		ID:          notificationID,
		RecipientID: recipientID,
		ActorID:     actorID,
		Verb:        verb,
		TargetKind:  TargetKind(strings.TrimSpace(targetKind)),
		TargetID:    strings.TrimSpace(targetID),
		Unread:      true,
		CreatedAt:   s.nowUTC(),
	})
}

// ListFor lists recipient notifications newest first with stable cursor
// pagination.
func (s *Service) ListFor(ctx context.Context, input ListInput) (NotificationPage, error) {
	if s == nil || s.store == nil {
		return NotificationPage{}, ErrStoreNotConfigured
	}
	recipientID := strings.TrimSpace(input.RecipientID)
	if recipientID == "" {
		return NotificationPage{}, ErrRecipientIDRequired
	}
	pageSize := pagination.ClampPageSize(input.PageSize, pagination.PageSizeConfig{
		Default: defaultPageSize,
		Max:     maxPageSize,
	})
	return s.store.ListNotificationsByRecipient(ctx, recipientID, pageSize, strings.TrimSpace(input.PageToken))
}

// UnreadCount returns the unread notification count for one account.
func (s *Service) UnreadCount(ctx context.Context, accountID string) (int, error) {
	if s == nil || s.store == nil {
		return 0, ErrStoreNotConfigured
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return 0, ErrRecipientIDRequired
	}
	return s.store.CountUnreadByRecipient(ctx, accountID)
}

// MarkRead marks one notification as read on behalf of the caller. Only the
// recipient may acknowledge a notification; re-acknowledging an already-read
// notification succeeds silently.
func (s *Service) MarkRead(ctx context.Context, notificationID string, callerID string) (Notification, error) {
	if s == nil || s.store == nil {
		return Notification{}, ErrStoreNotConfigured
	}
	notificationID = strings.TrimSpace(notificationID)
	callerID = strings.TrimSpace(callerID)
	if notificationID == "" {
		return Notification{}, ErrNotificationIDRequired
	}
	if callerID == "" {
		return Notification{}, ErrCallerIDRequired
	}

	notification, err := s.store.GetNotification(ctx, notificationID)
	if err != nil {
		return Notification{}, err
	}
	if notification.RecipientID != callerID {
		return Notification{}, ErrForbidden
	}
	if !notification.Unread {
		return notification, nil
	}
	return s.store.MarkNotificationRead(ctx, notificationID, s.nowUTC())
}

// ResolveTarget resolves a notification's polymorphic target for display.
// Dangling references resolve to an absent target, never an error.
func (s *Service) ResolveTarget(ctx context.Context, notification Notification) Target {
	if s == nil || s.resolvers == nil {
		return Target{Kind: notification.TargetKind, ID: notification.TargetID}
	}
	return s.resolvers.Resolve(ctx, notification.TargetKind, notification.TargetID)
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

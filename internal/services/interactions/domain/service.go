// Package domain implements like and comment recording behavior.
package domain

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/marlizel/socialcore/internal/platform/id"
	"github.com/marlizel/socialcore/internal/services/interactions/storage"
)

var (
	// ErrLikeNotFound indicates an unlike targeted a like that does not exist.
	ErrLikeNotFound = errors.New("like not found")
	// ErrActorIDRequired indicates actor identity is required.
	ErrActorIDRequired = errors.New("actor id is required")
	// ErrContentIDRequired indicates a content reference is required.
	ErrContentIDRequired = errors.New("content id is required")
	// ErrContentAuthorIDRequired indicates the resolved content author is required.
	ErrContentAuthorIDRequired = errors.New("content author id is required")
	// ErrCommentBodyRequired indicates a comment needs a non-empty body.
	ErrCommentBodyRequired = errors.New("comment body is required")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("interaction store is not configured")
)

// Notification verbs recorded for interaction fan-out.
const (
	VerbLiked     = "liked your post"
	VerbCommented = "commented on your post"
)

// Target kinds referenced by interaction notifications.
const (
	TargetKindPost    = "post"
	TargetKindComment = "comment"
)

// LikeResult reports one like mutation outcome.
type LikeResult struct {
	Interaction storage.InteractionRecord
	// Created is false when the actor had already liked the content and the
	// existing record was returned instead.
	Created bool
	// NotifyErr carries a best-effort notification failure. The like itself
	// has already been durably recorded when this is set.
	NotifyErr error
}

// CommentResult reports one comment mutation outcome.
type CommentResult struct {
	Interaction storage.InteractionRecord
	NotifyErr   error
}

// Notifier receives interaction fan-out events.
type Notifier interface {
	Notify(ctx context.Context, recipientID string, actorID string, verb string, targetKind string, targetID string) error
}

// Service orchestrates interaction recording and notification fan-out.
type Service struct {
	store    storage.InteractionStore
	notifier Notifier
	clock    func() time.Time
	newID    func() (string, error)
}

// NewService constructs interaction use-cases. The notifier is optional;
// without one, interactions are recorded silently.
func NewService(store storage.InteractionStore, notifier Notifier, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store:    store,
		notifier: notifier,
		clock:    clock,
		newID:    newID,
	}
}

// RecordLike records a like with get-or-create semantics. A retried or
// concurrent duplicate returns the existing record with Created=false and
// produces no additional notification.
func (s *Service) RecordLike(ctx context.Context, actorID string, contentID string, contentAuthorID string) (LikeResult, error) {
	if s == nil || s.store == nil {
		return LikeResult{}, ErrStoreNotConfigured
	}
	actorID = strings.TrimSpace(actorID)
	contentID = strings.TrimSpace(contentID)
	contentAuthorID = strings.TrimSpace(contentAuthorID)
	if actorID == "" {
		return LikeResult{}, ErrActorIDRequired
	}
	if contentID == "" {
		return LikeResult{}, ErrContentIDRequired
	}
	if contentAuthorID == "" {
		return LikeResult{}, ErrContentAuthorIDRequired
	}

	existing, err := s.store.GetLike(ctx, actorID, contentID)
	if err == nil {
		return LikeResult{Interaction: existing, Created: false}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return LikeResult{}, err
	}

	likeID, err := s.newID()
	if err != nil {
		return LikeResult{}, err
	}
	record := storage.InteractionRecord{
		ID:              likeID,
		ActorID:         actorID,
		ContentID:       contentID,
		ContentAuthorID: contentAuthorID,
		Kind:            storage.KindLike,
		CreatedAt:       s.nowUTC(),
	}
	if err := s.store.InsertInteraction(ctx, record); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Lost the insert race; the winner's record is the like.
			winner, lookupErr := s.store.GetLike(ctx, actorID, contentID)
			if lookupErr != nil {
				return LikeResult{}, lookupErr
			}
			return LikeResult{Interaction: winner, Created: false}, nil
		}
		return LikeResult{}, err
	}

	result := LikeResult{Interaction: record, Created: true}
	result.NotifyErr = s.notify(ctx, contentAuthorID, actorID, VerbLiked, TargetKindPost, contentID)
	return result, nil
}

// RemoveLike deletes one like. No notification is generated or retracted; a
// prior "liked your post" notification stands after unlike.
func (s *Service) RemoveLike(ctx context.Context, actorID string, contentID string) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	actorID = strings.TrimSpace(actorID)
	contentID = strings.TrimSpace(contentID)
	if actorID == "" {
		return ErrActorIDRequired
	}
	if contentID == "" {
		return ErrContentIDRequired
	}
	if err := s.store.DeleteLike(ctx, actorID, contentID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrLikeNotFound
		}
		return err
	}
	return nil
}

// RecordComment records a comment. Comments are never deduplicated; each call
// creates a new record and notifies the content author.
func (s *Service) RecordComment(ctx context.Context, actorID string, contentID string, contentAuthorID string, body string) (CommentResult, error) {
	if s == nil || s.store == nil {
		return CommentResult{}, ErrStoreNotConfigured
	}
	actorID = strings.TrimSpace(actorID)
	contentID = strings.TrimSpace(contentID)
	contentAuthorID = strings.TrimSpace(contentAuthorID)
	body = strings.TrimSpace(body)
	if actorID == "" {
		return CommentResult{}, ErrActorIDRequired
	}
	if contentID == "" {
		return CommentResult{}, ErrContentIDRequired
	}
	if contentAuthorID == "" {
		return CommentResult{}, ErrContentAuthorIDRequired
	}
	if body == "" {
		return CommentResult{}, ErrCommentBodyRequired
	}

	commentID, err := s.newID()
	if err != nil {
		return CommentResult{}, err
	}
	record := storage.InteractionRecord{
		ID:              commentID,
		ActorID:         actorID,
		ContentID:       contentID,
		ContentAuthorID: contentAuthorID,
		Kind:            storage.KindComment,
		Body:            body,
		CreatedAt:       s.nowUTC(),
	}
	if err := s.store.InsertInteraction(ctx, record); err != nil {
		return CommentResult{}, err
	}

	result := CommentResult{Interaction: record}
	result.NotifyErr = s.notify(ctx, contentAuthorID, actorID, VerbCommented, TargetKindComment, commentID)
	return result, nil
}

// LikesForContent returns the like count for one content item.
func (s *Service) LikesForContent(ctx context.Context, contentID string) (int, error) {
	if s == nil || s.store == nil {
		return 0, ErrStoreNotConfigured
	}
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return 0, ErrContentIDRequired
	}
	return s.store.CountLikesForContent(ctx, contentID)
}

// GetInteraction returns one interaction record, used by notification target
// resolution for the comment kind.
func (s *Service) GetInteraction(ctx context.Context, interactionID string) (storage.InteractionRecord, error) {
	if s == nil || s.store == nil {
		return storage.InteractionRecord{}, ErrStoreNotConfigured
	}
	return s.store.GetInteraction(ctx, strings.TrimSpace(interactionID))
}

// notify delivers a fan-out event. The interaction is already durable, so a
// notifier failure degrades the result instead of rolling it back.
func (s *Service) notify(ctx context.Context, recipientID string, actorID string, verb string, targetKind string, targetID string) error {
	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.Notify(ctx, recipientID, actorID, verb, targetKind, targetID); err != nil {
		log.Printf("interaction notification for %s: %v", recipientID, err)
		return err
	}
	return nil
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

// Package storage defines persistence contracts for recorded interactions.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested interaction record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write conflicted with the like uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

// Kind identifies one interaction variant.
type Kind string

const (
	// KindLike marks a like interaction. At most one like exists per
	// (actor_id, content_id) pair.
	KindLike Kind = "like"
	// KindComment marks a comment interaction. Comments carry no uniqueness
	// constraint.
	KindComment Kind = "comment"
)

// InteractionRecord stores one recorded actor action against a content item.
// ContentID and ContentAuthorID are non-owning references into the external
// content store.
type InteractionRecord struct {
	ID              string
	ActorID         string
	ContentID       string
	ContentAuthorID string
	Kind            Kind
	Body            string
	CreatedAt       time.Time
}

// InteractionStore persists interaction records with like uniqueness enforced
// at the storage layer.
type InteractionStore interface {
	// InsertInteraction persists one record. A like colliding with an
	// existing (actor_id, content_id) like fails with ErrConflict.
	InsertInteraction(ctx context.Context, record InteractionRecord) error
	GetInteraction(ctx context.Context, interactionID string) (InteractionRecord, error)
	GetLike(ctx context.Context, actorID string, contentID string) (InteractionRecord, error)
	// DeleteLike removes one like; a missing like fails with ErrNotFound.
	DeleteLike(ctx context.Context, actorID string, contentID string) error
	CountLikesForContent(ctx context.Context, contentID string) (int, error)
}

// Package storage defines the content port consumed by feed assembly.
//
// Content bodies are owned by the external content store; the feed only needs
// the (id, author, created_at) index surface plus an author resolver.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested content item is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write conflicted with the content id constraint.
	ErrConflict = errors.New("record conflict")
)

// ContentItem stores the feed-facing projection of one content item.
type ContentItem struct {
	ID        string
	AuthorID  string
	Title     string
	CreatedAt time.Time
}

// ContentPage stores a paged author-restricted content listing result.
type ContentPage struct {
	Items         []ContentItem
	NextPageToken string
}

// ContentStore is the external content capability the feed depends on. Calls
// are ordinary synchronous I/O and must be treated as fallible.
type ContentStore interface {
	// ListByAuthors lists content authored by any account in authorIDs,
	// newest first with (created_at DESC, id DESC) tie-break and cursor
	// pagination.
	ListByAuthors(ctx context.Context, authorIDs []string, pageSize int, pageToken string) (ContentPage, error)
	GetContentItem(ctx context.Context, contentID string) (ContentItem, error)
	// AuthorOf resolves the author account for one content id.
	AuthorOf(ctx context.Context, contentID string) (string, error)
}

// ContentWriter accepts content index writes. The reference adapter exposes
// it so hosts without a real content store can register items.
type ContentWriter interface {
	PutContentItem(ctx context.Context, item ContentItem) error
}

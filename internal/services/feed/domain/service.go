// Package domain implements pull-on-read feed assembly.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marlizel/socialcore/internal/platform/pagination"
	"github.com/marlizel/socialcore/internal/services/feed/storage"
)

var (
	// ErrAccountIDRequired indicates the requesting account is required.
	ErrAccountIDRequired = errors.New("account id is required")
	// ErrGraphNotConfigured indicates the service is missing follow graph wiring.
	ErrGraphNotConfigured = errors.New("follow graph is not configured")
	// ErrContentStoreNotConfigured indicates the service is missing content wiring.
	ErrContentStoreNotConfigured = errors.New("content store is not configured")
	// ErrContentStoreUnavailable indicates the external content store failed
	// to respond.
	ErrContentStoreUnavailable = errors.New("content store unavailable")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// FeedPage is a derived, non-persisted view of content authored by the
// requesting account's followees. It is recomputed per request.
type FeedPage struct {
	Items         []storage.ContentItem
	NextPageToken string
}

// FollowingLister resolves the requesting account's following set. Every feed
// read goes through this query; the following set is never cached
// process-wide.
type FollowingLister interface {
	FollowingIDs(ctx context.Context, accountID string) ([]string, error)
}

// Service assembles per-account feeds from the follow graph and the external
// content store.
type Service struct {
	graph   FollowingLister
	content storage.ContentStore
}

// NewService constructs feed assembly use-cases.
func NewService(graph FollowingLister, content storage.ContentStore) *Service {
	return &Service{
		graph:   graph,
		content: content,
	}
}

// GetFeed returns one page of content authored by accounts the requester
// follows, newest first. An empty following set yields an empty page, not an
// error.
func (s *Service) GetFeed(ctx context.Context, accountID string, pageSize int, pageToken string) (FeedPage, error) {
	if s == nil || s.graph == nil {
		return FeedPage{}, ErrGraphNotConfigured
	}
	if s.content == nil {
		return FeedPage{}, ErrContentStoreNotConfigured
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return FeedPage{}, ErrAccountIDRequired
	}
	pageSize = pagination.ClampPageSize(pageSize, pagination.PageSizeConfig{
		Default: defaultPageSize,
		Max:     maxPageSize,
	})

	followingIDs, err := s.graph.FollowingIDs(ctx, accountID)
	if err != nil {
		return FeedPage{}, fmt.Errorf("resolve following set: %w", err)
	}
	if len(followingIDs) == 0 {
		return FeedPage{Items: []storage.ContentItem{}}, nil
	}

	page, err := s.content.ListByAuthors(ctx, followingIDs, pageSize, strings.TrimSpace(pageToken))
	if err != nil {
		return FeedPage{}, fmt.Errorf("%w: %v", ErrContentStoreUnavailable, err)
	}
	return FeedPage{
		Items:         page.Items,
		NextPageToken: page.NextPageToken,
	}, nil
}

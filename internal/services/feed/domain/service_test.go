package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marlizel/socialcore/internal/services/feed/storage"
)

type fakeGraph struct {
	following map[string][]string
	err       error
}

func (f *fakeGraph) FollowingIDs(_ context.Context, accountID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.following[accountID], nil
}

type fakeContentStore struct {
	items []storage.ContentItem
	err   error

	lastAuthorIDs []string
	lastPageSize  int
	lastPageToken string
}

func (f *fakeContentStore) ListByAuthors(_ context.Context, authorIDs []string, pageSize int, pageToken string) (storage.ContentPage, error) {
	f.lastAuthorIDs = authorIDs
	f.lastPageSize = pageSize
	f.lastPageToken = pageToken
	if f.err != nil {
		return storage.ContentPage{}, f.err
	}
	allowed := make(map[string]bool, len(authorIDs))
	for _, authorID := range authorIDs {
		allowed[authorID] = true
	}
	page := storage.ContentPage{Items: []storage.ContentItem{}}
	for _, item := range f.items {
		if allowed[item.AuthorID] {
			page.Items = append(page.Items, item)
		}
	}
	return page, nil
}

func (f *fakeContentStore) GetContentItem(_ context.Context, contentID string) (storage.ContentItem, error) {
	for _, item := range f.items {
		if item.ID == contentID {
			return item, nil
		}
	}
	return storage.ContentItem{}, storage.ErrNotFound
}

func (f *fakeContentStore) AuthorOf(ctx context.Context, contentID string) (string, error) {
	item, err := f.GetContentItem(ctx, contentID)
	if err != nil {
		return "", err
	}
	return item.AuthorID, nil
}

func TestGetFeedRestrictsToFollowing(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	graph := &fakeGraph{following: map[string][]string{
		"account-1": {"account-2", "account-3"},
	}}
	content := &fakeContentStore{items: []storage.ContentItem{
		{ID: "content-1", AuthorID: "account-2", CreatedAt: now},
		{ID: "content-2", AuthorID: "account-3", CreatedAt: now},
		{ID: "content-3", AuthorID: "account-9", CreatedAt: now},
	}}
	service := NewService(graph, content)

	page, err := service.GetFeed(context.Background(), "account-1", 10, "")
	if err != nil {
		t.Fatalf("get feed: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items len = %d, want 2", len(page.Items))
	}
	for _, item := range page.Items {
		if item.AuthorID == "account-9" {
			t.Fatalf("item %s from unfollowed author leaked into feed", item.ID)
		}
	}
}

func TestGetFeedEmptyFollowingReturnsEmptyPage(t *testing.T) {
	graph := &fakeGraph{following: map[string][]string{}}
	content := &fakeContentStore{}
	service := NewService(graph, content)

	page, err := service.GetFeed(context.Background(), "account-1", 10, "")
	if err != nil {
		t.Fatalf("get feed: %v", err)
	}
	if len(page.Items) != 0 || page.NextPageToken != "" {
		t.Fatalf("page = %+v, want empty", page)
	}
	if content.lastAuthorIDs != nil {
		t.Fatal("content store was queried despite empty following set")
	}
}

func TestGetFeedContentStoreFailureIsUnavailable(t *testing.T) {
	graph := &fakeGraph{following: map[string][]string{
		"account-1": {"account-2"},
	}}
	content := &fakeContentStore{err: errors.New("connection refused")}
	service := NewService(graph, content)

	_, err := service.GetFeed(context.Background(), "account-1", 10, "")
	if !errors.Is(err, ErrContentStoreUnavailable) {
		t.Fatalf("err = %v, want ErrContentStoreUnavailable", err)
	}
}

func TestGetFeedGraphFailurePropagates(t *testing.T) {
	graph := &fakeGraph{err: errors.New("graph down")}
	service := NewService(graph, &fakeContentStore{})

	_, err := service.GetFeed(context.Background(), "account-1", 10, "")
	if err == nil || errors.Is(err, ErrContentStoreUnavailable) {
		t.Fatalf("err = %v, want plain graph failure", err)
	}
}

func TestGetFeedRequiresAccount(t *testing.T) {
	service := NewService(&fakeGraph{}, &fakeContentStore{})
	if _, err := service.GetFeed(context.Background(), "  ", 10, ""); !errors.Is(err, ErrAccountIDRequired) {
		t.Fatalf("err = %v, want ErrAccountIDRequired", err)
	}
}

func TestGetFeedClampsPageSize(t *testing.T) {
	graph := &fakeGraph{following: map[string][]string{
		"account-1": {"account-2"},
	}}
	content := &fakeContentStore{}
	service := NewService(graph, content)

	if _, err := service.GetFeed(context.Background(), "account-1", 0, ""); err != nil {
		t.Fatalf("get feed: %v", err)
	}
	if content.lastPageSize != defaultPageSize {
		t.Fatalf("page size = %d, want default %d", content.lastPageSize, defaultPageSize)
	}

	if _, err := service.GetFeed(context.Background(), "account-1", 10_000, ""); err != nil {
		t.Fatalf("get feed: %v", err)
	}
	if content.lastPageSize != maxPageSize {
		t.Fatalf("page size = %d, want max %d", content.lastPageSize, maxPageSize)
	}
}

func TestGetFeedPassesPageToken(t *testing.T) {
	graph := &fakeGraph{following: map[string][]string{
		"account-1": {"account-2"},
	}}
	content := &fakeContentStore{}
	service := NewService(graph, content)

	if _, err := service.GetFeed(context.Background(), "account-1", 5, "  content-7  "); err != nil {
		t.Fatalf("get feed: %v", err)
	}
	if content.lastPageToken != "content-7" {
		t.Fatalf("page token = %q, want content-7", content.lastPageToken)
	}
}

// Package storage defines persistence contracts for the follow graph.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested follow edge is missing.
var ErrNotFound = errors.New("record not found")

// Edge stores one directed follow relationship. Edges are present or absent;
// nothing on an edge is ever updated.
type Edge struct {
	FollowerID string
	FolloweeID string
	CreatedAt  time.Time
}

// EdgePage stores a page of directed follow edges.
type EdgePage struct {
	Edges         []Edge
	NextPageToken string
}

// EdgeStore persists directed follow edges with pair uniqueness enforced at
// the storage layer.
type EdgeStore interface {
	// PutEdge inserts one edge and reports whether a new row was created.
	// Re-inserting an existing edge succeeds with created=false.
	PutEdge(ctx context.Context, edge Edge) (created bool, err error)
	// DeleteEdge removes one edge; deleting an absent edge is a no-op.
	DeleteEdge(ctx context.Context, followerID string, followeeID string) error
	GetEdge(ctx context.Context, followerID string, followeeID string) (Edge, error)
	ListFollowers(ctx context.Context, followeeID string, pageSize int, pageToken string) (EdgePage, error)
	ListFollowing(ctx context.Context, followerID string, pageSize int, pageToken string) (EdgePage, error)
	// FollowingIDs returns the complete set of accounts the follower follows.
	FollowingIDs(ctx context.Context, followerID string) ([]string, error)
}

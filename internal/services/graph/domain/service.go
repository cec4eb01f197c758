// Package domain implements follow graph lifecycle behavior.
package domain

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/marlizel/socialcore/internal/platform/pagination"
	"github.com/marlizel/socialcore/internal/services/graph/storage"
)

var (
	// ErrSelfFollow indicates an account attempted to follow itself.
	ErrSelfFollow = errors.New("account cannot follow itself")
	// ErrFollowerIDRequired indicates follower identity is required.
	ErrFollowerIDRequired = errors.New("follower id is required")
	// ErrFolloweeIDRequired indicates followee identity is required.
	ErrFolloweeIDRequired = errors.New("followee id is required")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("edge store is not configured")
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// VerbStartedFollowing is the notification verb recorded on a first-time follow.
const VerbStartedFollowing = "started following you"

// TargetKindAccount marks notification targets that reference an account.
const TargetKindAccount = "account"

// FollowResult reports one follow mutation outcome.
type FollowResult struct {
	Edge storage.Edge
	// Created is false when the edge already existed and the call converged
	// as a no-op.
	Created bool
	// NotifyErr carries a best-effort notification failure. The follow itself
	// has already been durably recorded when this is set.
	NotifyErr error
}

// Notifier receives follow fan-out events.
type Notifier interface {
	Notify(ctx context.Context, recipientID string, actorID string, verb string, targetKind string, targetID string) error
}

// Service orchestrates directed follow relationships.
type Service struct {
	store    storage.EdgeStore
	notifier Notifier
	clock    func() time.Time
}

// NewService constructs follow graph use-cases. The notifier is optional;
// without one, follows are recorded silently.
func NewService(store storage.EdgeStore, notifier Notifier, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		store:    store,
		notifier: notifier,
		clock:    clock,
	}
}

// Follow records a directed follow edge. Repeated calls converge to the same
// single edge without error; only the call that created the edge notifies the
// followee.
func (s *Service) Follow(ctx context.Context, followerID string, followeeID string) (FollowResult, error) {
	if s == nil || s.store == nil {
		return FollowResult{}, ErrStoreNotConfigured
	}
	followerID = strings.TrimSpace(followerID)
	followeeID = strings.TrimSpace(followeeID)
	if followerID == "" {
		return FollowResult{}, ErrFollowerIDRequired
	}
	if followeeID == "" {
		return FollowResult{}, ErrFolloweeIDRequired
	}
	if followerID == followeeID {
		return FollowResult{}, ErrSelfFollow
	}

	edge := storage.Edge{
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  s.nowUTC(),
	}
	created, err := s.store.PutEdge(ctx, edge)
	if err != nil {
		return FollowResult{}, err
	}
	result := FollowResult{Edge: edge, Created: created}
	if !created {
		persisted, getErr := s.store.GetEdge(ctx, followerID, followeeID)
		if getErr == nil {
			result.Edge = persisted
		}
		return result, nil
	}

	if s.notifier != nil {
		if notifyErr := s.notifier.Notify(ctx, followeeID, followerID, VerbStartedFollowing, TargetKindAccount, followerID); notifyErr != nil {
			log.Printf("follow notification for %s: %v", followeeID, notifyErr)
			result.NotifyErr = notifyErr
		}
	}
	return result, nil
}

// Unfollow removes a directed follow edge. The edge's absence is the desired
// post-condition, so unfollowing a missing edge succeeds.
func (s *Service) Unfollow(ctx context.Context, followerID string, followeeID string) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	followerID = strings.TrimSpace(followerID)
	followeeID = strings.TrimSpace(followeeID)
	if followerID == "" {
		return ErrFollowerIDRequired
	}
	if followeeID == "" {
		return ErrFolloweeIDRequired
	}
	if followerID == followeeID {
		return ErrSelfFollow
	}
	return s.store.DeleteEdge(ctx, followerID, followeeID)
}

// IsFollowing reports whether the directed edge exists.
func (s *Service) IsFollowing(ctx context.Context, followerID string, followeeID string) (bool, error) {
	if s == nil || s.store == nil {
		return false, ErrStoreNotConfigured
	}
	followerID = strings.TrimSpace(followerID)
	followeeID = strings.TrimSpace(followeeID)
	if followerID == "" {
		return false, ErrFollowerIDRequired
	}
	if followeeID == "" {
		return false, ErrFolloweeIDRequired
	}
	_, err := s.store.GetEdge(ctx, followerID, followeeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FollowersOf lists accounts following the given account, newest first.
func (s *Service) FollowersOf(ctx context.Context, accountID string, pageSize int, pageToken string) (storage.EdgePage, error) {
	if s == nil || s.store == nil {
		return storage.EdgePage{}, ErrStoreNotConfigured
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return storage.EdgePage{}, ErrFolloweeIDRequired
	}
	pageSize = pagination.ClampPageSize(pageSize, pagination.PageSizeConfig{
		Default: defaultPageSize,
		Max:     maxPageSize,
	})
	return s.store.ListFollowers(ctx, accountID, pageSize, strings.TrimSpace(pageToken))
}

// FollowingOf lists accounts the given account follows, newest first.
func (s *Service) FollowingOf(ctx context.Context, accountID string, pageSize int, pageToken string) (storage.EdgePage, error) {
	if s == nil || s.store == nil {
		return storage.EdgePage{}, ErrStoreNotConfigured
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return storage.EdgePage{}, ErrFollowerIDRequired
	}
	pageSize = pagination.ClampPageSize(pageSize, pagination.PageSizeConfig{
		Default: defaultPageSize,
		Max:     maxPageSize,
	})
	return s.store.ListFollowing(ctx, accountID, pageSize, strings.TrimSpace(pageToken))
}

// FollowingIDs resolves the complete following set for feed assembly.
func (s *Service) FollowingIDs(ctx context.Context, accountID string) ([]string, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, ErrFollowerIDRequired
	}
	return s.store.FollowingIDs(ctx, accountID)
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

// Package sqlite provides a SQLite-backed follow graph storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/marlizel/socialcore/internal/platform/storage/sqlitemigrate"
	"github.com/marlizel/socialcore/internal/services/graph/storage"
	"github.com/marlizel/socialcore/internal/services/graph/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists follow graph state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite follow graph store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutEdge inserts one directed follow edge. The pair primary key makes the
// insert converge under concurrent callers; created reports whether this call
// persisted a new row.
func (s *Store) PutEdge(ctx context.Context, edge storage.Edge) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	followerID := strings.TrimSpace(edge.FollowerID)
	followeeID := strings.TrimSpace(edge.FolloweeID)
	if followerID == "" {
		return false, fmt.Errorf("follower id is required")
	}
	if followeeID == "" {
		return false, fmt.Errorf("followee id is required")
	}
	if followerID == followeeID {
		return false, fmt.Errorf("followee id must differ from follower id")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO follow_edges (follower_id, followee_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(follower_id, followee_id) DO NOTHING`,
		followerID,
		followeeID,
		toMillis(edge.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("put edge: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("put edge rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteEdge removes one directed follow edge. Absence is the desired
// post-condition, so deleting a missing edge succeeds.
func (s *Store) DeleteEdge(ctx context.Context, followerID string, followeeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	followerID = strings.TrimSpace(followerID)
	followeeID = strings.TrimSpace(followeeID)
	if followerID == "" {
		return fmt.Errorf("follower id is required")
	}
	if followeeID == "" {
		return fmt.Errorf("followee id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM follow_edges
		 WHERE follower_id = ? AND followee_id = ?`,
		followerID,
		followeeID,
	)
	if err != nil {
		return fmt.Errorf("delete edge: %w", err)
	}
	return nil
}

// GetEdge returns one directed follow edge.
func (s *Store) GetEdge(ctx context.Context, followerID string, followeeID string) (storage.Edge, error) {
	if err := ctx.Err(); err != nil {
		return storage.Edge{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Edge{}, fmt.Errorf("storage is not configured")
	}
	followerID = strings.TrimSpace(followerID)
	followeeID = strings.TrimSpace(followeeID)
	if followerID == "" {
		return storage.Edge{}, fmt.Errorf("follower id is required")
	}
	if followeeID == "" {
		return storage.Edge{}, fmt.Errorf("followee id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT follower_id, followee_id, created_at
		 FROM follow_edges
		 WHERE follower_id = ? AND followee_id = ?`,
		followerID,
		followeeID,
	)
	var edge storage.Edge
	var createdAt int64
	if err := row.Scan(&edge.FollowerID, &edge.FolloweeID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Edge{}, storage.ErrNotFound
		}
		return storage.Edge{}, fmt.Errorf("get edge: %w", err)
	}
	edge.CreatedAt = fromMillis(createdAt)
	return edge, nil
}

// ListFollowers returns one page of accounts following the followee, newest first.
func (s *Store) ListFollowers(ctx context.Context, followeeID string, pageSize int, pageToken string) (storage.EdgePage, error) {
	return s.listEdges(ctx, "followee_id", "follower_id", followeeID, pageSize, pageToken)
}

// ListFollowing returns one page of accounts the follower follows, newest first.
func (s *Store) ListFollowing(ctx context.Context, followerID string, pageSize int, pageToken string) (storage.EdgePage, error) {
	return s.listEdges(ctx, "follower_id", "followee_id", followerID, pageSize, pageToken)
}

// listEdges pages edges anchored on anchorColumn, ordered by
// (created_at DESC, otherColumn DESC) with the page token naming the last
// returned account on the other side of the edge.
func (s *Store) listEdges(ctx context.Context, anchorColumn string, otherColumn string, anchorID string, pageSize int, pageToken string) (storage.EdgePage, error) {
	if err := ctx.Err(); err != nil {
		return storage.EdgePage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.EdgePage{}, fmt.Errorf("storage is not configured")
	}
	anchorID = strings.TrimSpace(anchorID)
	pageToken = strings.TrimSpace(pageToken)
	if anchorID == "" {
		return storage.EdgePage{}, fmt.Errorf("account id is required")
	}
	if pageSize <= 0 {
		return storage.EdgePage{}, fmt.Errorf("page size must be greater than zero")
	}

	limit := pageSize + 1
	var (
		rows *sql.Rows
		err  error
	)
	if pageToken == "" {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT follower_id, followee_id, created_at
			 FROM follow_edges
			 WHERE `+anchorColumn+` = ?
			 ORDER BY created_at DESC, `+otherColumn+` DESC
			 LIMIT ?`,
			anchorID,
			limit,
		)
	} else {
		tokenCreatedAt, tokenErr := s.edgeCreatedAt(ctx, anchorColumn, otherColumn, anchorID, pageToken)
		if tokenErr != nil {
			if errors.Is(tokenErr, storage.ErrNotFound) {
				return storage.EdgePage{}, nil
			}
			return storage.EdgePage{}, tokenErr
		}
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT follower_id, followee_id, created_at
			 FROM follow_edges
			 WHERE `+anchorColumn+` = ?
			   AND (created_at < ? OR (created_at = ? AND `+otherColumn+` < ?))
			 ORDER BY created_at DESC, `+otherColumn+` DESC
			 LIMIT ?`,
			anchorID,
			tokenCreatedAt,
			tokenCreatedAt,
			pageToken,
			limit,
		)
	}
	if err != nil {
		return storage.EdgePage{}, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()

	page := storage.EdgePage{
		Edges: make([]storage.Edge, 0, pageSize),
	}
	for rows.Next() {
		var edge storage.Edge
		var createdAt int64
		if err := rows.Scan(&edge.FollowerID, &edge.FolloweeID, &createdAt); err != nil {
			return storage.EdgePage{}, fmt.Errorf("scan edge row: %w", err)
		}
		edge.CreatedAt = fromMillis(createdAt)
		page.Edges = append(page.Edges, edge)
	}
	if err := rows.Err(); err != nil {
		return storage.EdgePage{}, fmt.Errorf("iterate edge rows: %w", err)
	}
	if len(page.Edges) > pageSize {
		last := page.Edges[pageSize-1]
		if anchorColumn == "follower_id" {
			page.NextPageToken = last.FolloweeID
		} else {
			page.NextPageToken = last.FollowerID
		}
		page.Edges = page.Edges[:pageSize]
	}
	return page, nil
}

// FollowingIDs returns every followee id for one follower. Feed assembly needs
// the whole set, so this listing is unpaged.
func (s *Store) FollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	followerID = strings.TrimSpace(followerID)
	if followerID == "" {
		return nil, fmt.Errorf("follower id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT followee_id
		 FROM follow_edges
		 WHERE follower_id = ?
		 ORDER BY followee_id ASC`,
		followerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list following ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var followeeID string
		if err := rows.Scan(&followeeID); err != nil {
			return nil, fmt.Errorf("scan following id row: %w", err)
		}
		ids = append(ids, followeeID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate following id rows: %w", err)
	}
	return ids, nil
}

func (s *Store) edgeCreatedAt(ctx context.Context, anchorColumn string, otherColumn string, anchorID string, otherID string) (int64, error) {
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT created_at
		 FROM follow_edges
		 WHERE `+anchorColumn+` = ? AND `+otherColumn+` = ?`,
		anchorID,
		otherID,
	)
	var createdAt int64
	if err := row.Scan(&createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("lookup edge cursor: %w", err)
	}
	return createdAt, nil
}

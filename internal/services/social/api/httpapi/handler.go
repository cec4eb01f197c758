package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marlizel/socialcore/internal/platform/id"
	feeddomain "github.com/marlizel/socialcore/internal/services/feed/domain"
	feedstorage "github.com/marlizel/socialcore/internal/services/feed/storage"
	graphdomain "github.com/marlizel/socialcore/internal/services/graph/domain"
	interactionsdomain "github.com/marlizel/socialcore/internal/services/interactions/domain"
	notificationsdomain "github.com/marlizel/socialcore/internal/services/notifications/domain"
)

// Handler serves the social JSON API.
type Handler struct {
	graph         *graphdomain.Service
	interactions  *interactionsdomain.Service
	notifications *notificationsdomain.Service
	feed          *feeddomain.Service
	content       feedstorage.ContentStore
	contentWriter feedstorage.ContentWriter
	newID         func() (string, error)
}

// NewHandler constructs the API handler over assembled domain services.
func NewHandler(
	graph *graphdomain.Service,
	interactions *interactionsdomain.Service,
	notifications *notificationsdomain.Service,
	feed *feeddomain.Service,
	content feedstorage.ContentStore,
	contentWriter feedstorage.ContentWriter,
) *Handler {
	return &Handler{
		graph:         graph,
		interactions:  interactions,
		notifications: notifications,
		feed:          feed,
		content:       content,
		contentWriter: contentWriter,
		newID:         id.NewID,
	}
}

// Register mounts all routes on the engine. Everything under /api/v1 requires
// a bearer token; /health does not.
func (h *Handler) Register(engine *gin.Engine, jwtSecret string) {
	engine.GET("/health", h.health)

	api := engine.Group("/api/v1")
	api.Use(AuthRequired(jwtSecret))

	api.POST("/follows", h.follow)
	api.DELETE("/follows/:id", h.unfollow)
	api.GET("/follows/:id", h.getFollow)
	api.GET("/followers", h.listFollowers)
	api.GET("/following", h.listFollowing)

	api.POST("/likes", h.like)
	api.DELETE("/likes/:content_id", h.unlike)

	api.POST("/comments", h.comment)

	api.GET("/notifications", h.listNotifications)
	api.POST("/notifications/:id/read", h.markNotificationRead)

	api.GET("/feed", h.getFeed)
	api.POST("/contents", h.putContent)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type followRequest struct {
	FolloweeID string `json:"followee_id"`
}

type followResponse struct {
	FollowerID        string    `json:"follower_id"`
	FolloweeID        string    `json:"followee_id"`
	Created           bool      `json:"created"`
	CreatedAt         time.Time `json:"created_at"`
	NotificationError string    `json:"notification_error,omitempty"`
}

func (h *Handler) follow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.graph.Follow(c.Request.Context(), CallerID(c), req.FolloweeID)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, followResponse{
		FollowerID:        result.Edge.FollowerID,
		FolloweeID:        result.Edge.FolloweeID,
		Created:           result.Created,
		CreatedAt:         result.Edge.CreatedAt,
		NotificationError: errorText(result.NotifyErr),
	})
}

func (h *Handler) unfollow(c *gin.Context) {
	if err := h.graph.Unfollow(c.Request.Context(), CallerID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getFollow(c *gin.Context) {
	following, err := h.graph.IsFollowing(c.Request.Context(), CallerID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": following})
}

type edgeEntry struct {
	AccountID  string    `json:"account_id"`
	FollowedAt time.Time `json:"followed_at"`
}

func (h *Handler) listFollowers(c *gin.Context) {
	page, err := h.graph.FollowersOf(c.Request.Context(), CallerID(c), queryPageSize(c), c.Query("page_token"))
	if err != nil {
		writeError(c, err)
		return
	}
	entries := make([]edgeEntry, 0, len(page.Edges))
	for _, edge := range page.Edges {
		entries = append(entries, edgeEntry{AccountID: edge.FollowerID, FollowedAt: edge.CreatedAt})
	}
	c.JSON(http.StatusOK, gin.H{
		"followers":       entries,
		"next_page_token": page.NextPageToken,
	})
}

func (h *Handler) listFollowing(c *gin.Context) {
	page, err := h.graph.FollowingOf(c.Request.Context(), CallerID(c), queryPageSize(c), c.Query("page_token"))
	if err != nil {
		writeError(c, err)
		return
	}
	entries := make([]edgeEntry, 0, len(page.Edges))
	for _, edge := range page.Edges {
		entries = append(entries, edgeEntry{AccountID: edge.FolloweeID, FollowedAt: edge.CreatedAt})
	}
	c.JSON(http.StatusOK, gin.H{
		"following":       entries,
		"next_page_token": page.NextPageToken,
	})
}

type likeRequest struct {
	ContentID string `json:"content_id"`
}

type likeResponse struct {
	ID                string    `json:"id"`
	ContentID         string    `json:"content_id"`
	Created           bool      `json:"created"`
	CreatedAt         time.Time `json:"created_at"`
	LikeCount         int       `json:"like_count"`
	NotificationError string    `json:"notification_error,omitempty"`
}

func (h *Handler) like(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ctx := c.Request.Context()
	authorID, err := h.content.AuthorOf(ctx, strings.TrimSpace(req.ContentID))
	if err != nil {
		writeError(c, err)
		return
	}
	result, err := h.interactions.RecordLike(ctx, CallerID(c), req.ContentID, authorID)
	if err != nil {
		writeError(c, err)
		return
	}
	likeCount, err := h.interactions.LikesForContent(ctx, req.ContentID)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, likeResponse{
		ID:                result.Interaction.ID,
		ContentID:         result.Interaction.ContentID,
		Created:           result.Created,
		CreatedAt:         result.Interaction.CreatedAt,
		LikeCount:         likeCount,
		NotificationError: errorText(result.NotifyErr),
	})
}

func (h *Handler) unlike(c *gin.Context) {
	if err := h.interactions.RemoveLike(c.Request.Context(), CallerID(c), c.Param("content_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type commentRequest struct {
	ContentID string `json:"content_id"`
	Body      string `json:"body"`
}

type commentResponse struct {
	ID                string    `json:"id"`
	ContentID         string    `json:"content_id"`
	Body              string    `json:"body"`
	CreatedAt         time.Time `json:"created_at"`
	NotificationError string    `json:"notification_error,omitempty"`
}

func (h *Handler) comment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ctx := c.Request.Context()
	authorID, err := h.content.AuthorOf(ctx, strings.TrimSpace(req.ContentID))
	if err != nil {
		writeError(c, err)
		return
	}
	result, err := h.interactions.RecordComment(ctx, CallerID(c), req.ContentID, authorID, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commentResponse{
		ID:                result.Interaction.ID,
		ContentID:         result.Interaction.ContentID,
		Body:              result.Interaction.Body,
		CreatedAt:         result.Interaction.CreatedAt,
		NotificationError: errorText(result.NotifyErr),
	})
}

type notificationEntry struct {
	ID            string     `json:"id"`
	ActorID       string     `json:"actor_id"`
	Verb          string     `json:"verb"`
	TargetKind    string     `json:"target_kind"`
	TargetID      string     `json:"target_id"`
	TargetSummary string     `json:"target_summary,omitempty"`
	TargetFound   bool       `json:"target_found"`
	Unread        bool       `json:"unread"`
	CreatedAt     time.Time  `json:"created_at"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
}

func (h *Handler) listNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	callerID := CallerID(c)
	page, err := h.notifications.ListFor(ctx, notificationsdomain.ListInput{
		RecipientID: callerID,
		PageSize:    queryPageSize(c),
		PageToken:   c.Query("page_token"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	unreadCount, err := h.notifications.UnreadCount(ctx, callerID)
	if err != nil {
		writeError(c, err)
		return
	}
	entries := make([]notificationEntry, 0, len(page.Notifications))
	for _, notification := range page.Notifications {
		entries = append(entries, toNotificationEntry(notification, h.notifications.ResolveTarget(ctx, notification)))
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications":   entries,
		"unread_count":    unreadCount,
		"next_page_token": page.NextPageToken,
	})
}

func (h *Handler) markNotificationRead(c *gin.Context) {
	ctx := c.Request.Context()
	notification, err := h.notifications.MarkRead(ctx, c.Param("id"), CallerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toNotificationEntry(notification, h.notifications.ResolveTarget(ctx, notification)))
}

func toNotificationEntry(notification notificationsdomain.Notification, target notificationsdomain.Target) notificationEntry {
	return notificationEntry{
		ID:            notification.ID,
		ActorID:       notification.ActorID,
		Verb:          notification.Verb,
		TargetKind:    string(notification.TargetKind),
		TargetID:      notification.TargetID,
		TargetSummary: target.Summary,
		TargetFound:   target.Found,
		Unread:        notification.Unread,
		CreatedAt:     notification.CreatedAt,
		ReadAt:        notification.ReadAt,
	}
}

type feedEntry struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) getFeed(c *gin.Context) {
	page, err := h.feed.GetFeed(c.Request.Context(), CallerID(c), queryPageSize(c), c.Query("page_token"))
	if err != nil {
		writeError(c, err)
		return
	}
	entries := make([]feedEntry, 0, len(page.Items))
	for _, item := range page.Items {
		entries = append(entries, feedEntry{
			ID:        item.ID,
			AuthorID:  item.AuthorID,
			Title:     item.Title,
			CreatedAt: item.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"items":           entries,
		"next_page_token": page.NextPageToken,
	})
}

type contentRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (h *Handler) putContent(c *gin.Context) {
	if h.contentWriter == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "content index writes are not enabled"})
		return
	}
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	contentID := strings.TrimSpace(req.ID)
	if contentID == "" {
		generated, err := h.newID()
		if err != nil {
			writeError(c, err)
			return
		}
		contentID = generated
	}
	item := feedstorage.ContentItem{
		ID:        contentID,
		AuthorID:  CallerID(c),
		Title:     strings.TrimSpace(req.Title),
		CreatedAt: time.Now().UTC(),
	}
	if err := h.contentWriter.PutContentItem(c.Request.Context(), item); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, feedEntry{
		ID:        item.ID,
		AuthorID:  item.AuthorID,
		Title:     item.Title,
		CreatedAt: item.CreatedAt,
	})
}

func queryPageSize(c *gin.Context) int {
	raw := strings.TrimSpace(c.Query("page_size"))
	if raw == "" {
		return 0
	}
	pageSize, err := strconv.Atoi(raw)
	if err != nil || pageSize < 0 {
		return 0
	}
	return pageSize
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// writeError maps domain sentinels onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, graphdomain.ErrSelfFollow),
		errors.Is(err, graphdomain.ErrFollowerIDRequired),
		errors.Is(err, graphdomain.ErrFolloweeIDRequired),
		errors.Is(err, interactionsdomain.ErrActorIDRequired),
		errors.Is(err, interactionsdomain.ErrContentIDRequired),
		errors.Is(err, interactionsdomain.ErrContentAuthorIDRequired),
		errors.Is(err, interactionsdomain.ErrCommentBodyRequired),
		errors.Is(err, notificationsdomain.ErrNotificationIDRequired),
		errors.Is(err, notificationsdomain.ErrRecipientIDRequired),
		errors.Is(err, feeddomain.ErrAccountIDRequired):
		status = http.StatusBadRequest
	case errors.Is(err, notificationsdomain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, interactionsdomain.ErrLikeNotFound),
		errors.Is(err, notificationsdomain.ErrNotFound),
		errors.Is(err, feedstorage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, notificationsdomain.ErrConflict),
		errors.Is(err, feedstorage.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, feeddomain.ErrContentStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

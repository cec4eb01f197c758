// Package server wires the social engine runtime and HTTP lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marlizel/socialcore/internal/platform/config"
	feedsqlite "github.com/marlizel/socialcore/internal/services/feed/content/sqlite"
	feeddomain "github.com/marlizel/socialcore/internal/services/feed/domain"
	feedstorage "github.com/marlizel/socialcore/internal/services/feed/storage"
	graphdomain "github.com/marlizel/socialcore/internal/services/graph/domain"
	graphsqlite "github.com/marlizel/socialcore/internal/services/graph/storage/sqlite"
	interactionsdomain "github.com/marlizel/socialcore/internal/services/interactions/domain"
	interactionsstorage "github.com/marlizel/socialcore/internal/services/interactions/storage"
	interactionssqlite "github.com/marlizel/socialcore/internal/services/interactions/storage/sqlite"
	notificationsdomain "github.com/marlizel/socialcore/internal/services/notifications/domain"
	notificationssqlite "github.com/marlizel/socialcore/internal/services/notifications/storage/sqlite"
	"github.com/marlizel/socialcore/internal/services/social/api/httpapi"
)

type serverEnv struct {
	DataDir   string `env:"SOCIALCORE_DATA_DIR"`
	JWTSecret string `env:"SOCIALCORE_JWT_SECRET"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "data"
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		cfg.JWTSecret = "dev-secret-key"
	}
	return cfg
}

// Server hosts the social HTTP API and storage lifecycle.
type Server struct {
	listener           net.Listener
	httpServer         *http.Server
	graphStore         *graphsqlite.Store
	interactionsStore  *interactionssqlite.Store
	notificationsStore *notificationssqlite.Store
	contentStore       *feedsqlite.Store
}

// New creates a configured social server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured social server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	srvEnv := loadServerEnv()

	server := &Server{listener: listener}
	if err := server.openStores(srvEnv.DataDir); err != nil {
		server.Close()
		return nil, err
	}

	notifications := notificationsdomain.NewService(
		newDomainStoreAdapter(server.notificationsStore),
		newTargetResolvers(server.contentStore, server.interactionsStore),
		nil, nil,
	)
	graph := graphdomain.NewService(server.graphStore, notifications, nil)
	interactions := interactionsdomain.NewService(server.interactionsStore, notifications, nil, nil)
	feed := feeddomain.NewService(graph, server.contentStore)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(httpapi.Recovery(), httpapi.Tracing())
	handler := httpapi.NewHandler(graph, interactions, notifications, feed, server.contentStore, server.contentStore)
	handler.Register(engine, srvEnv.JWTSecret)

	server.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server, nil
}

func (s *Server) openStores(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	graphStore, err := graphsqlite.Open(filepath.Join(dataDir, "graph.db"))
	if err != nil {
		return fmt.Errorf("open graph sqlite store: %w", err)
	}
	s.graphStore = graphStore

	interactionsStore, err := interactionssqlite.Open(filepath.Join(dataDir, "interactions.db"))
	if err != nil {
		return fmt.Errorf("open interactions sqlite store: %w", err)
	}
	s.interactionsStore = interactionsStore

	notificationsStore, err := notificationssqlite.Open(filepath.Join(dataDir, "notifications.db"))
	if err != nil {
		return fmt.Errorf("open notifications sqlite store: %w", err)
	}
	s.notificationsStore = notificationsStore

	contentStore, err := feedsqlite.Open(filepath.Join(dataDir, "content.db"))
	if err != nil {
		return fmt.Errorf("open content sqlite store: %w", err)
	}
	s.contentStore = contentStore
	return nil
}

// newTargetResolvers registers display resolvers per notification target kind.
// Accounts are owned by the external identity subsystem, so account targets
// resolve to the bare account id.
func newTargetResolvers(content feedstorage.ContentStore, interactions interactionsstorage.InteractionStore) *notificationsdomain.ResolverSet {
	resolvers := notificationsdomain.NewResolverSet()
	resolvers.Register(notificationsdomain.TargetKindPost, func(ctx context.Context, targetID string) (string, bool, error) {
		item, err := content.GetContentItem(ctx, targetID)
		if err != nil {
			if errors.Is(err, feedstorage.ErrNotFound) {
				return "", false, nil
			}
			return "", false, err
		}
		return item.Title, true, nil
	})
	resolvers.Register(notificationsdomain.TargetKindComment, func(ctx context.Context, targetID string) (string, bool, error) {
		record, err := interactions.GetInteraction(ctx, targetID)
		if err != nil {
			if errors.Is(err, interactionsstorage.ErrNotFound) {
				return "", false, nil
			}
			return "", false, err
		}
		if record.Kind != interactionsstorage.KindComment {
			return "", false, nil
		}
		return record.Body, true, nil
	})
	resolvers.Register(notificationsdomain.TargetKindAccount, func(_ context.Context, targetID string) (string, bool, error) {
		return targetID, true, nil
	})
	return resolvers
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a social server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("social server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		err := <-serveErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	}
}

// Close releases social server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	closeStore := func(name string, close func() error) {
		if err := close(); err != nil {
			log.Printf("close %s store: %v", name, err)
		}
	}
	if s.graphStore != nil {
		closeStore("graph", s.graphStore.Close)
	}
	if s.interactionsStore != nil {
		closeStore("interactions", s.interactionsStore.Close)
	}
	if s.notificationsStore != nil {
		closeStore("notifications", s.notificationsStore.Close)
	}
	if s.contentStore != nil {
		closeStore("content", s.contentStore.Close)
	}
}

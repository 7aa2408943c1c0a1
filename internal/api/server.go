// Package api exposes the category hierarchy and profile slugs over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/directory/middlewares"
	"github.com/dmitrymomot/directory/pkg/cache"
	"github.com/dmitrymomot/directory/pkg/health"
	"github.com/dmitrymomot/directory/pkg/logger"
	"github.com/dmitrymomot/directory/pkg/profile"
	"github.com/dmitrymomot/directory/pkg/taxonomy"
)

const (
	DefaultTreeTTL        = 5 * time.Minute
	DefaultRequestTimeout = 15 * time.Second
)

// Linker stores which categories a profile is listed under.
type Linker interface {
	Link(ctx context.Context, profileID, categoryID uuid.UUID) error
	Unlink(ctx context.Context, profileID, categoryID uuid.UUID) error
	CategoriesOf(ctx context.Context, profileID uuid.UUID) ([]uuid.UUID, error)
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	categories *taxonomy.Graph
	profiles   *profile.Service
	links      Linker
	tree       *cache.Loader[[]*taxonomy.TreeNode]
	health     *health.Checker
	logger     *slog.Logger
	origins    []string
	timeout    time.Duration
	bodyLimit  int64
	treeStore  cache.Store[[]*taxonomy.TreeNode]
	treeTTL    time.Duration
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger for request and failure records.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLinks enables the profile category routes.
func WithLinks(l Linker) Option {
	return func(s *Server) {
		s.links = l
	}
}

// WithTreeCache replaces the in-memory tree cache, e.g. with cache.NewRedis.
func WithTreeCache(store cache.Store[[]*taxonomy.TreeNode], ttl time.Duration) Option {
	return func(s *Server) {
		if store != nil {
			s.treeStore = store
		}
		if ttl > 0 {
			s.treeTTL = ttl
		}
	}
}

// WithHealth mounts the checker at /health.
func WithHealth(c *health.Checker) Option {
	return func(s *Server) {
		s.health = c
	}
}

// WithCORS allows browser calls from the given origins.
func WithCORS(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithRequestTimeout bounds each request. Defaults to 15 seconds.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithBodyLimit caps request bodies. Defaults to middlewares.DefaultMaxBodySize.
func WithBodyLimit(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.bodyLimit = n
		}
	}
}

// NewServer wires the handlers to the category graph and profile service.
func NewServer(categories *taxonomy.Graph, profiles *profile.Service, opts ...Option) *Server {
	s := &Server{
		categories: categories,
		profiles:   profiles,
		logger:     logger.NewNope(),
		timeout:    DefaultRequestTimeout,
		bodyLimit:  middlewares.DefaultMaxBodySize,
		treeTTL:    DefaultTreeTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.treeStore == nil {
		s.treeStore = cache.NewMemory[[]*taxonomy.TreeNode]()
	}
	s.tree = cache.NewLoader(s.treeStore, s.treeTTL, cache.WithLogger(s.logger))
	return s
}

// Handler returns the router with every route and middleware mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middlewares.RequestID(),
		middlewares.Logger(s.logger),
		middlewares.Recover(s.logger),
	)
	if len(s.origins) > 0 {
		r.Use(middlewares.CORS(middlewares.WithAllowOrigins(s.origins...)))
	}

	r.Get("/health/live", health.Live())
	if s.health != nil {
		r.Get("/health", s.health.Ready())
	}

	r.Group(func(r chi.Router) {
		r.Use(
			middlewares.Timeout(s.timeout),
			middlewares.MaxBodySize(s.bodyLimit),
		)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.categoryTree)
			r.Post("/", s.createCategory)
			r.Get("/id/{id}", s.getCategory)
			r.Get("/id/{id}/path", s.categoryPath)
			r.Get("/{ref}", s.getCategoryBySlug)
			r.Patch("/{ref}", s.updateCategory)
			r.Delete("/{ref}", s.deleteCategory)
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Post("/", s.createProfile)
			r.Get("/id/{id}", s.getProfile)
			r.Get("/{ref}", s.getProfileBySlug)
			r.Patch("/{ref}", s.updateProfile)
			if s.links != nil {
				r.Get("/id/{id}/categories", s.profileCategories)
				r.Put("/id/{id}/categories/{categoryID}", s.linkCategory)
				r.Delete("/id/{id}/categories/{categoryID}", s.unlinkCategory)
			}
		})

		r.Get("/slugs/check", s.checkSlug)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})
	return r
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	v, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", ErrBadRequest, raw)
	}
	return v, nil
}

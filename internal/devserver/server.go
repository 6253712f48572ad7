// Package devserver is an in-memory backend that speaks the same REST
// protocol as the production fintrack service: cookie-based sessions with
// short-lived access tokens and rotating refresh tokens. It exists for
// local runs of the CLI and for end-to-end tests of the client pipeline.
package devserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/dmitrijs2005/fintrack/internal/devserver/config"
	"github.com/dmitrijs2005/fintrack/internal/logging"
)

type Option func(*Server)

// WithClock replaces time.Now for token issuing and checks.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

type Server struct {
	cfg      *config.Config
	store    *Store
	log      logging.Logger
	validate *validator.Validate
	secret   []byte
	now      func() time.Time
}

func NewServer(cfg *config.Config, store *Store, log logging.Logger, opts ...Option) *Server {
	if log == nil {
		log = logging.Nop()
	}
	s := &Server{
		cfg:      cfg,
		store:    store,
		log:      log,
		validate: validator.New(),
		secret:   []byte(cfg.SecretKey),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the HTTP handler with every API route under cfg.BasePath.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		s.logRequests,
	)

	basePath := s.cfg.BasePath
	if basePath == "" {
		basePath = "/"
	}

	r.Route(basePath, func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAccess)

			r.Get("/auth/me", s.handleMe)

			r.Get("/user/settings", s.handleGetSettings)
			r.Put("/user/settings", s.handlePutSettings)

			r.Get("/categories", s.handleListCategories)
			r.Post("/categories", s.handleCreateCategory)
			r.Patch("/categories/{id}", s.handlePatchCategory)
			r.Delete("/categories/{id}", s.handleDeleteCategory)

			r.Post("/transactions/import", s.handleImport)
		})
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.Debug(r.Context(), "http request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

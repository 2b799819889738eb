// Package api provides the HTTP API server and handlers for TemplateDir.
//
// Two surfaces share one chi router: the legacy form endpoints (/, /repos,
// /submit-repo) with their bare JSON response shapes, and the versioned
// huma API under /api/v1 whose bodies are wrapped by EnvelopeTransformer.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/templatedir/templatedir-server/internal/ratelimit"
	"github.com/templatedir/templatedir-server/internal/sse"
	"github.com/templatedir/templatedir-server/internal/store"
)

// Options configures the HTTP surface.
type Options struct {
	CORSOrigins        []string // Empty allows every origin
	RateLimitPerMinute int      // Per client IP on auth and submit routes; 0 disables
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      store.Store
	services   *Services
	sseManager *sse.Manager
	sseHandler *sse.Handler
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger

	authRateLimiter   *ratelimit.KeyedRateLimiter
	submitRateLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, sseManager *sse.Manager, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		store:      st,
		services:   services,
		sseManager: sseManager,
		router:     chi.NewRouter(),
		logger:     logger,
	}

	if opts.RateLimitPerMinute > 0 {
		s.authRateLimiter = ratelimit.PerMinute(opts.RateLimitPerMinute)
		s.submitRateLimiter = ratelimit.PerMinute(opts.RateLimitPerMinute)
	}

	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, logger, s.resolveStreamUser)
	}

	s.setupMiddleware(opts.CORSOrigins)
	s.setupAPI()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background cleanup of the rate limiters.
func (s *Server) Close() {
	if s.authRateLimiter != nil {
		s.authRateLimiter.Stop()
	}
	if s.submitRateLimiter != nil {
		s.submitRateLimiter.Stop()
	}
}

// setupMiddleware configures middleware stack. It must run before any route
// is registered.
func (s *Server) setupMiddleware(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.services != nil && s.services.Auth != nil {
		s.router.Use(authMiddleware(s.services.Auth))
	}
}

// setupAPI creates the huma API on top of the chi router.
func (s *Server) setupAPI() {
	humaConfig := huma.DefaultConfig("TemplateDir API", "1.0.0")
	humaConfig.Info.Description = "Crowdsourced directory of software project templates"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerLegacyRoutes()

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerFeedRoutes()
	s.registerListingRoutes()
	s.registerReviewRoutes()
	s.registerListRoutes()
	s.registerProfileRoutes()
	s.registerSearchRoutes()

	if s.sseHandler != nil {
		s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
	}
}

// resolveStreamUser identifies the user of an event stream. Browsers cannot
// set headers on EventSource, so a ?token= query parameter is accepted too.
func (s *Server) resolveStreamUser(r *http.Request) string {
	if userID := OptionalUserID(r.Context()); userID != "" {
		return userID
	}

	token := r.URL.Query().Get("token")
	if token == "" || s.services == nil || s.services.Auth == nil {
		return ""
	}

	user, _, err := s.services.Auth.VerifyAccessToken(r.Context(), token)
	if err != nil {
		s.logger.Debug("event stream token rejected", "error", err)
		return ""
	}
	return user.ID
}

// requestLogger logs one line per request once the response is written.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

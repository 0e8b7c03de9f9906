// Package api wires the HTTP surface: ingestion and query endpoints, health
// probes, and the middleware chain around them.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/socialpulse/tiktok-metrics/internal/apify"
	"github.com/socialpulse/tiktok-metrics/internal/archive"
	"github.com/socialpulse/tiktok-metrics/internal/clock/system"
	"github.com/socialpulse/tiktok-metrics/internal/obs"
	"github.com/socialpulse/tiktok-metrics/internal/publisher"
	"github.com/socialpulse/tiktok-metrics/internal/store"
	"github.com/socialpulse/tiktok-metrics/internal/tiktok"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// queryTimeout bounds database query handlers. Ingestion handlers are exempt:
// a scrape run can take minutes.
const queryTimeout = 30 * time.Second

// Deps are the collaborators a Server needs.
type Deps struct {
	Logger     *zap.Logger
	Provider   apify.Provider
	Store      store.MetricStore
	Archive    archive.BlobStore
	Publisher  publisher.Publisher
	Normalizer *tiktok.Normalizer
	Clock      tiktok.Clock

	// APIKey enables header auth on mutating endpoints when non-empty.
	APIKey string
	// ArchivePrefix is the leading path segment for raw payload blobs.
	ArchivePrefix string
	// Topic names the ingest notification topic.
	Topic string
}

// Server hosts the HTTP API.
type Server struct {
	router        chi.Router
	logger        *zap.Logger
	provider      apify.Provider
	store         store.MetricStore
	archive       archive.BlobStore
	publisher     publisher.Publisher
	normalizer    *tiktok.Normalizer
	clock         tiktok.Clock
	apiKey        string
	archivePrefix string
	topic         string
}

// NewServer builds the router with the standard middleware chain. Nil optional
// collaborators degrade to no-ops.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Archive == nil {
		deps.Archive = archive.NoOp{}
	}
	if deps.Publisher == nil {
		deps.Publisher = publisher.NoOp{}
	}
	if deps.Normalizer == nil {
		deps.Normalizer = tiktok.NewNormalizer(nil)
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if deps.ArchivePrefix == "" {
		deps.ArchivePrefix = "raw"
	}

	s := &Server{
		logger:        deps.Logger,
		provider:      deps.Provider,
		store:         deps.Store,
		archive:       deps.Archive,
		publisher:     deps.Publisher,
		normalizer:    deps.Normalizer,
		clock:         deps.Clock,
		apiKey:        deps.APIKey,
		archivePrefix: deps.ArchivePrefix,
		topic:         deps.Topic,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(obs.Middleware)
	r.Use(s.loggingMiddleware)

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.apiKeyMiddleware)

		r.Post("/apify-connection/normalized", s.handleIngest(store.ScopeUser))
		r.Post("/apify-connection/admin/normalized", s.handleIngest(store.ScopeAdmin))

		r.Group(func(r chi.Router) {
			r.Use(timeoutMiddleware(queryTimeout))
			r.Post("/dbquery/user", s.handleQuery(store.ScopeUser))
			r.Post("/dbquery/admin", s.handleQuery(store.ScopeAdmin))
		})
	})

	return r
}

// ServeHTTP lets the Server act as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", requestIDFrom(r.Context())),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.String("request_id", requestIDFrom(r.Context())),
				)
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("X-API-Key") != s.apiKey {
			s.writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

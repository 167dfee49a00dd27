package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/waveline/waveline/pkg/logger"
	"github.com/waveline/waveline/pkg/metrics"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	// Channels handles channel state inspection endpoints.
	Channels *ChannelHandler

	// Stream handles the websocket batch stream.
	Stream *StreamHandler

	// Metrics is the optional metrics manager; when set, /metrics is served
	// and requests are instrumented.
	Metrics *metrics.Manager
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(log logger.Logger, handlers *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(chimiddleware.Recoverer)
	if handlers.Metrics != nil {
		r.Use(requestMetrics(handlers.Metrics))
	}

	RegisterRoutes(r, handlers)

	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, handlers *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		if handlers.Channels != nil {
			r.Route("/channels", func(r chi.Router) {
				r.Get("/", handlers.Channels.ListChannels)
				r.Get("/{id}", handlers.Channels.GetChannel)
			})
		}
	})

	if handlers.Stream != nil {
		r.Get("/ws", handlers.Stream.ServeHTTP)
	}

	if handlers.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", handlers.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// requestLogger logs one line per served request.
func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(started),
			)
		})
	}
}

// requestMetrics records request counters and latency.
func requestMetrics(m *metrics.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			routePath := chi.RouteContext(r.Context()).RoutePattern()
			if routePath == "" {
				routePath = r.URL.Path
			}
			m.RecordHTTPRequest(r.Method, routePath, strconv.Itoa(ww.Status()), time.Since(started))
		})
	}
}

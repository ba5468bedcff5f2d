package api

import (
	"net/http"
	"time"

	"assistantpro-backend/internal/config"
	"assistantpro-backend/internal/handlers"
	"assistantpro-backend/internal/metrics"
	"assistantpro-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// requestTimeout must exceed the completion timeout so the provider error
// is reported by the chat handler rather than the timeout middleware.
const requestTimeout = 60 * time.Second

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler   *handlers.AuthHandler
	ChatHandler   *handlers.ChatHandlers
	UploadHandler *handlers.UploadHandler
	Config        *config.Config
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Logger        *zap.Logger
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.ChatHandler == nil {
		panic("ChatHandler dependency is nil in router setup")
	}

	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger, deps.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	// --- CORS Configuration ---
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.FrontendURL,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// --- Public Routes ---
	r.Get("/health", deps.ChatHandler.HandleHealth)
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/personalities", deps.ChatHandler.HandlePersonalities)
		r.Post("/chat", deps.ChatHandler.HandleChat)
		r.Get("/history/{sessionID}", deps.ChatHandler.HandleHistory)
		r.Post("/clear", deps.ChatHandler.HandleClear)

		if deps.UploadHandler != nil {
			r.Post("/upload", deps.UploadHandler.HandleUpload)
		} else {
			logger.Warn("UploadHandler dependency is nil, skipping /v1/upload route")
		}

		if deps.Config.AuthEnabled() && deps.AuthHandler != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/signup", deps.AuthHandler.HandleSignup)
				r.Post("/login", deps.AuthHandler.HandleLogin)
			})
		}

		// --- Admin Routes ---
		r.Route("/admin", func(r chi.Router) {
			if deps.Config.AuthEnabled() {
				r.Use(JwtAuthMiddleware(deps.Config.JWTSecret, logger))
			} else {
				logger.Warn("operator auth is unavailable for this store backend, admin routes are unauthenticated",
					zap.String("store_backend", deps.Config.StoreBackend))
			}
			r.Get("/stats", deps.ChatHandler.HandleStats)
			r.Get("/sessions", deps.ChatHandler.HandleSessions)
			r.Get("/test-db", deps.ChatHandler.HandleTestStore)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondError(w, http.StatusNotFound, "Not found")
	})

	return r
}

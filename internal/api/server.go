package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropskill/dropskill/internal/advisor"
	"github.com/dropskill/dropskill/internal/auth"
	"github.com/dropskill/dropskill/internal/storage"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Store       *storage.DB     // Required
	Engine      *advisor.Engine // Required
	Tokens      *auth.Tokens    // Required
	Pool        *pgxpool.Pool   // Optional: nil disables pool stats in /ready
	Version     string          // Reported by GET /
	CORSOrigins []string        // Allowed origins for CORS
	IsDev       bool            // Disables HSTS (plain HTTP in development)
	TrustProxy  bool            // Trust X-Real-IP/X-Forwarded-For headers
	RateBurst   int             // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Engine == nil {
		return nil, errors.New("advisor engine is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token signer is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ah := &authHandler{users: cfg.Store, tokens: cfg.Tokens, logger: logger}
	sh := &storeHandler{stores: cfg.Store, logger: logger}
	ph := &productHandler{catalog: cfg.Store, logger: logger}
	adm := &adminHandler{store: cfg.Store, logger: logger}
	ai := &advisorAPIHandler{store: cfg.Store, engine: cfg.Engine, logger: logger}

	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /api/auth/register", ah.register)
	mux.HandleFunc("POST /api/auth/login", ah.login)
	mux.HandleFunc("GET /api/auth/me", ah.me)

	// Stores
	mux.HandleFunc("POST /api/stores", sh.create)
	mux.HandleFunc("GET /api/stores", sh.list)
	mux.HandleFunc("GET /api/stores/my", sh.list)
	mux.HandleFunc("GET /api/stores/public/{slug}", sh.public)
	mux.HandleFunc("GET /api/stores/{id}", sh.get)
	mux.HandleFunc("PUT /api/stores/{id}", sh.update)
	mux.HandleFunc("DELETE /api/stores/{id}", sh.delete)

	// Store products (import and customization)
	mux.HandleFunc("POST /api/stores/{id}/products", ph.importProduct)
	mux.HandleFunc("GET /api/stores/{id}/products", ph.storeProducts)
	mux.HandleFunc("PUT /api/stores/{id}/products/{spID}", ph.updateStoreProduct)
	mux.HandleFunc("DELETE /api/stores/{id}/products/{spID}", ph.removeStoreProduct)

	// Catalog
	mux.HandleFunc("GET /api/products", ph.list)
	mux.HandleFunc("GET /api/products/categories/list", ph.categories)
	mux.HandleFunc("GET /api/products/{id}", ph.get)

	// Admin
	mux.HandleFunc("POST /api/admin/products", adm.createProduct)
	mux.HandleFunc("GET /api/admin/products", adm.listProducts)
	mux.HandleFunc("PUT /api/admin/products/{id}", adm.updateProduct)
	mux.HandleFunc("DELETE /api/admin/products/{id}", adm.deleteProduct)
	mux.HandleFunc("GET /api/admin/analytics", adm.analytics)
	mux.HandleFunc("POST /api/admin/users/{id}/make-admin", adm.makeAdmin)

	// AI advisor
	mux.HandleFunc("POST /api/ai/recommend", ai.recommend)
	mux.HandleFunc("POST /api/ai/chat", ai.chat)
	mux.HandleFunc("GET /api/ai/insights/{storeID}", ai.insights)

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Auth → Routes
	// RequestID must be before Logging so request_id is available in log
	// attributes. CORS must be before RateLimit so preflight OPTIONS gets
	// proper CORS headers.
	var handler http.Handler = mux
	handler = authMiddleware(cfg.Tokens)(handler)
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	isDev := cfg.IsDev
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, isDev)
		handler.ServeHTTP(w, r)
	})

	// Top-level mux keeps health probes and the root banner outside the
	// middleware stack.
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"name":    "DropSkill API",
			"version": version,
			"status":  "running",
		})
	})
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

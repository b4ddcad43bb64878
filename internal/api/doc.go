// Package api provides the JSON REST API server for DropSkill.
//
// # Architecture
//
// The API server uses Go 1.22+ routing with a layered middleware stack:
//
//	Recovery → RequestID → Logging → CORS → RateLimit → Auth → Routes
//
// Health probes (/health, /ready) and the root banner bypass the middleware
// stack via a top-level mux, ensuring they remain fast and unauthenticated.
//
// # Endpoints
//
// Health probes (no middleware):
//   - GET /health — returns {"status":"ok"}
//   - GET /ready  — database reachability and pool stats
//
// Auth:
//   - POST /api/auth/register — create seller account, returns bearer token
//   - POST /api/auth/login    — exchange credentials for bearer token
//   - GET  /api/auth/me       — current account
//
// Stores (ownership-enforced):
//   - POST   /api/stores               — create store (slug auto-generated)
//   - GET    /api/stores, /api/stores/my — list caller's stores
//   - GET    /api/stores/{id}          — get store
//   - PUT    /api/stores/{id}          — partial update
//   - DELETE /api/stores/{id}          — delete store and its imports
//   - GET    /api/stores/public/{slug} — public storefront, no auth
//
// Store products (ownership-enforced):
//   - POST   /api/stores/{id}/products        — import catalog product
//   - GET    /api/stores/{id}/products        — list imports
//   - PUT    /api/stores/{id}/products/{spID} — customize import
//   - DELETE /api/stores/{id}/products/{spID} — remove import
//
// Catalog (authenticated browse):
//   - GET /api/products                 — filtered, sorted, paginated
//   - GET /api/products/{id}            — single product
//   - GET /api/products/categories/list — distinct categories
//
// Admin (role-gated):
//   - POST   /api/admin/products              — create catalog product
//   - GET    /api/admin/products              — full catalog
//   - PUT    /api/admin/products/{id}         — update product
//   - DELETE /api/admin/products/{id}         — soft deactivate
//   - GET    /api/admin/analytics             — platform stats
//   - POST   /api/admin/users/{id}/make-admin — promote user
//
// AI advisor:
//   - POST /api/ai/recommend           — scored product recommendations
//   - POST /api/ai/chat                — rule-based chat reply
//   - GET  /api/ai/insights/{storeID}  — store health report
//
// # Authentication
//
// Bearer tokens in the Authorization header, HMAC-SHA256 signed and
// stateless. The auth middleware puts the verified user ID in the request
// context; handlers reject unauthenticated requests with 401. Ownership
// checks return 404 for foreign resources so their existence is not leaked.
//
// # Error Handling
//
// Error responses use a flat body:
//
//	{"error": "<code>", "message": "<detail>"}
//
// Storage sentinels map to statuses: ErrNotFound → 404, ErrDuplicate → 400.
//
// # Security
//
// The middleware stack enforces:
//   - Per-IP rate limiting (token bucket, 60 req/min burst)
//   - CORS with explicit origin allowlist
//   - Security headers (CSP, HSTS, X-Frame-Options, etc.)
package api

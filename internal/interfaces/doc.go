// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help contributors find
// extension points and see how to implement new functionality.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - auth.AccountStore: Create and look up accounts (internal/auth/service.go)
//   - auth.AccountFinder: Resolve a token subject to an account (internal/auth/middleware.go)
//   - http.AccountStore: Account listing and counting for admin endpoints (internal/http/stores.go)
//   - http.DesignStore: Design catalogue CRUD (internal/http/stores.go)
//   - http.ImageStore: Uploaded design images (internal/http/stores.go)
//   - http.Pinger: Health checks (internal/http/health.go)
//
// ## Login Throttling
//
//   - auth.LoginLimiter: Per client and email lockout (internal/auth/ratelimit.go)
//
// Two implementations exist: an in-memory limiter for a single process and a
// Redis limiter shared by every replica. The entrypoint picks Redis when
// REDIS_ADDR is set.
//
// # Adding a New Protected Resource
//
//  1. Define the store interface in internal/http/stores.go and implement it
//     in a new sub-package of internal/database:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  2. Create a controller in internal/http/ and register its routes in
//     router.go behind the gate:
//
//     gate := auth.NewGate(cfg.Tokens, cfg.Accounts, cfg.Logger, cfg.Metrics)
//     orders := api.Group("/orders", gate.Protect())
//     orders.DELETE("/:id", gate.RequireRole(entities.RoleAdmin), ctrl.Delete)
//
//  3. Add a compile-time check to checks.go.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces

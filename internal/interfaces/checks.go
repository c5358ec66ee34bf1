package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/asowa/marketplace/internal/auth"
	"github.com/asowa/marketplace/internal/database"
	"github.com/asowa/marketplace/internal/database/accounts"
	"github.com/asowa/marketplace/internal/database/designs"
	"github.com/asowa/marketplace/internal/http"
	"github.com/asowa/marketplace/internal/uploads"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Account storage, as seen by the auth service, the gate and the admin API
var _ auth.AccountStore = (*accounts.Repository)(nil)
var _ auth.AccountFinder = (*accounts.Repository)(nil)
var _ http.AccountStore = (*accounts.Repository)(nil)

// DesignStore implementations
var _ http.DesignStore = (*designs.Repository)(nil)

// ImageStore implementations
var _ http.ImageStore = (*uploads.Store)(nil)

// Pinger implementations
var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Login Throttling
// =============================================================================

// LoginLimiter implementations
var _ auth.LoginLimiter = (*auth.RateLimiter)(nil)
var _ auth.LoginLimiter = (*auth.RedisRateLimiter)(nil)

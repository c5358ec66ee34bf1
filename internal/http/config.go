package http

import (
	"github.com/sirupsen/logrus"

	"github.com/asowa/marketplace/internal/audit"
	"github.com/asowa/marketplace/internal/auth"
	"github.com/asowa/marketplace/internal/metrics"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database Pinger
	Accounts AccountStore
	Designs  DesignStore
	Images   ImageStore

	// Authentication
	AuthService  *auth.Service
	Tokens       *auth.TokenManager
	LoginLimiter auth.LoginLimiter // optional

	// Uploads
	UploadDir     string // served under /uploads when set
	MaxImageBytes int64

	// Observability
	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics // optional
	Audit   *audit.Service   // optional; /api/audit is only served when set

	// CORS origins for the storefront; "*" allows any origin
	CORSAllowedOrigins []string

	// Proxies allowed to set X-Forwarded-For; empty means the peer address is the client IP
	TrustedProxies []string

	// HSTS max-age in seconds; zero disables the header
	HSTSMaxAge int

	// Application info
	Version string
}

package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/asowa/marketplace/internal/audit"
	"github.com/asowa/marketplace/internal/config"
	"github.com/asowa/marketplace/internal/database"
	"github.com/asowa/marketplace/internal/database/accounts"
	auditRepo "github.com/asowa/marketplace/internal/database/audit"
	"github.com/asowa/marketplace/internal/entities"
	"github.com/asowa/marketplace/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	db       *gorm.DB
	accounts *accounts.Repository
	hasher   *PasswordHasher
	tokens   *TokenManager
	service  *Service
	audit    *audit.Service
	metrics  *metrics.Metrics
	log      *logrus.Logger
	hook     *test.Hook
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewDatabase(config.Database{
		Driver: config.DatabaseDriverSQLite,
		Path:   filepath.Join(t.TempDir(), "auth.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := accounts.NewRepository(db.DB)
	hasher := NewPasswordHasher(bcrypt.MinCost)
	tokens, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)

	service, err := NewService(repo, hasher, tokens)
	require.NoError(t, err)

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	auditor := audit.NewService(auditRepo.NewRepository(db.DB), log)
	t.Cleanup(auditor.Wait)

	return &testEnv{
		db:       db.DB,
		accounts: repo,
		hasher:   hasher,
		tokens:   tokens,
		service:  service,
		audit:    auditor,
		metrics:  metrics.New(prometheus.NewRegistry()),
		log:      log,
		hook:     hook,
	}
}

func (e *testEnv) gate() *Gate {
	return NewGate(e.tokens, e.accounts, e.log, e.metrics)
}

// router wires the auth endpoints plus one protected and one admin-only route.
func (e *testEnv) router(limiter LoginLimiter) *gin.Engine {
	router := gin.New()
	gate := e.gate()

	NewAuthController(e.service, limiter, e.audit, e.log, e.metrics).RegisterRoutes(router, gate)

	router.GET("/protected", gate.Protect(), func(c *gin.Context) {
		account, _ := CurrentAccount(c)
		c.JSON(200, gin.H{"success": true, "email": account.Email, "hashEmpty": account.PasswordHash == ""})
	})
	router.GET("/admin", gate.Protect(), gate.RequireRole(entities.RoleAdmin), func(c *gin.Context) {
		c.JSON(200, gin.H{"success": true})
	})
	return router
}

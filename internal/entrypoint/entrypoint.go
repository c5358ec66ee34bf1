package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/asowa/marketplace/internal/audit"
	"github.com/asowa/marketplace/internal/auth"
	"github.com/asowa/marketplace/internal/config"
	"github.com/asowa/marketplace/internal/database"
	"github.com/asowa/marketplace/internal/database/accounts"
	auditRepo "github.com/asowa/marketplace/internal/database/audit"
	"github.com/asowa/marketplace/internal/database/designs"
	http_controllers "github.com/asowa/marketplace/internal/http"
	"github.com/asowa/marketplace/internal/logging"
	"github.com/asowa/marketplace/internal/metrics"
	"github.com/asowa/marketplace/internal/scheduler"
	"github.com/asowa/marketplace/internal/uploads"
)

// hstsMaxAge is one year, applied only to HTTPS requests.
const hstsMaxAge = 31536000

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the wired application.
type App struct {
	Router *gin.Engine

	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// NewApp validates cfg and wires every component. A missing signing secret
// fails here, before anything listens.
func NewApp(ctx context.Context, cfg *config.Config, log *logrus.Logger, version string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &App{}
	fail := func(err error) (*App, error) {
		app.Close()
		return nil, err
	}

	tokens, err := auth.NewTokenManager([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenExpiry)
	if err != nil {
		return fail(err)
	}

	db, err := database.NewDatabase(cfg.Database, log)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize database: %w", err))
	}
	app.closers = append(app.closers, func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("error closing database")
		}
	})

	accountsRepo := accounts.NewRepository(db.DB)
	designsRepo := designs.NewRepository(db.DB)

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	authService, err := auth.NewService(accountsRepo, hasher, tokens)
	if err != nil {
		return fail(err)
	}

	auditor := audit.NewService(auditRepo.NewRepository(db.DB), log)
	app.closers = append(app.closers, auditor.Wait)

	retention := scheduler.NewAuditRetentionScheduler(auditor, scheduler.RetentionConfig{
		Retention: cfg.Audit.Retention,
		Schedule:  cfg.Audit.RetentionSchedule,
	}, log)
	if err := retention.Start(); err != nil {
		return fail(err)
	}
	app.closers = append(app.closers, retention.Stop)

	images, err := uploads.NewStore(cfg.Uploads)
	if err != nil {
		return fail(err)
	}

	limiter, err := newLoginLimiter(ctx, cfg, log, app)
	if err != nil {
		return fail(err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	app.Router = http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:           db,
		Accounts:           accountsRepo,
		Designs:            designsRepo,
		Images:             images,
		AuthService:        authService,
		Tokens:             tokens,
		LoginLimiter:       limiter,
		UploadDir:          images.Root(),
		MaxImageBytes:      images.MaxBytes(),
		Logger:             log,
		Metrics:            m,
		Audit:              auditor,
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		TrustedProxies:     cfg.HTTP.TrustedProxies,
		HSTSMaxAge:         hstsMaxAge,
		Version:            version,
	})

	log.WithFields(logrus.Fields{
		"token_expiry": tokens.TTL().String(),
		"bcrypt_cost":  hasher.Cost(),
		"upload_dir":   images.Root(),
	}).Info("application wired")

	return app, nil
}

// newLoginLimiter prefers Redis when configured so replicas share lockouts.
func newLoginLimiter(ctx context.Context, cfg *config.Config, log *logrus.Logger, app *App) (auth.LoginLimiter, error) {
	limits := auth.RateLimitConfigFrom(cfg.Auth)

	if cfg.Redis.Addr != "" {
		client, err := newRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.closers = append(app.closers, func() {
			if err := client.Close(); err != nil {
				log.WithError(err).Warn("error closing redis client")
			}
		})
		log.Info("login throttling backed by redis")
		return auth.NewRedisRateLimiter(client, limits), nil
	}

	limiter := auth.NewRateLimiter(limits)
	app.closers = append(app.closers, limiter.Stop)
	log.Info("login throttling in memory")
	return limiter, nil
}

func Serve(router http.Handler, cfg *config.Config, log logrus.FieldLogger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen failed")
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.WithField("timeout", timeout.String()).Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info("server exiting")
}

func Run(cfg *config.Config, version string) {
	log := logging.New(cfg.Log)
	if gin.Mode() == gin.DebugMode && log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	log.WithField("version", version).Info("starting Asowa API")

	app, err := NewApp(context.Background(), cfg, log, version)
	if err != nil {
		log.WithError(err).Fatal("startup failed")
	}

	Serve(app.Router, cfg, log, func(context.Context) {
		app.Close()
	})
}

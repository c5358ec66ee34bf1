package auth

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/asowa/marketplace/internal/audit"
	"github.com/asowa/marketplace/internal/entities"
	"github.com/asowa/marketplace/internal/metrics"
)

// Client-facing endpoint messages.
const (
	MessageInvalidBody        = "Invalid request body"
	MessageInvalidEmail       = "Invalid email address"
	MessageUserExists         = "User already exists"
	MessageInvalidCredentials = "Invalid email or password"
	MessageTooManyAttempts    = "Too many login attempts, please try again later"
	MessageRegisterFailed     = "Server error during registration"
	MessageLoginFailed        = "Server error during login"
)

type registerRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthController handles the register, login and me endpoints.
type AuthController struct {
	service *Service
	limiter LoginLimiter
	audit   *audit.Service
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewAuthController creates the controller. limiter, auditor and m may be nil.
func NewAuthController(service *Service, limiter LoginLimiter, auditor *audit.Service, log logrus.FieldLogger, m *metrics.Metrics) *AuthController {
	return &AuthController{
		service: service,
		limiter: limiter,
		audit:   auditor,
		log:     log,
		metrics: m,
	}
}

// RegisterRoutes registers authentication routes under /api/auth.
func (ac *AuthController) RegisterRoutes(router gin.IRouter, gate *Gate) {
	group := router.Group("/api/auth")
	group.POST("/register", ac.Register)
	group.POST("/login", ac.Login)
	group.GET("/me", gate.Protect(), ac.Me)
}

// Register handles POST /api/auth/register.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ac.metrics.Registration("invalid")
		abortWithMessage(c, http.StatusBadRequest, MessageInvalidBody)
		return
	}

	result, err := ac.service.Register(c.Request.Context(), RegistrationInput{
		Fullname: req.Fullname,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailInvalid):
			ac.metrics.Registration("invalid")
			abortWithMessage(c, http.StatusBadRequest, MessageInvalidEmail)
		case errors.Is(err, entities.ErrDuplicateEmail):
			ac.metrics.Registration("duplicate")
			abortWithMessage(c, http.StatusBadRequest, MessageUserExists)
		case IsValidationError(err):
			ac.metrics.Registration("invalid")
			abortWithMessage(c, http.StatusBadRequest, err.Error())
		default:
			ac.metrics.Registration("error")
			ac.log.WithError(err).Error("registration failed")
			abortWithMessage(c, http.StatusInternalServerError, MessageRegisterFailed)
		}
		return
	}

	ac.metrics.Registration("created")
	ac.log.WithField("account_id", result.Account.ID).Info("account registered")
	ac.audit.LogAuth(result.Account.ID, audit.ActionRegister, result.Account.Email, c.ClientIP(), c.Request.UserAgent(), true)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    result.Account,
		"token":   result.Token,
	})
}

// Login handles POST /api/auth/login.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, MessageInvalidBody)
		return
	}

	ctx := c.Request.Context()
	ip := c.ClientIP()
	email := NormalizeEmail(req.Email)

	if ac.limiter != nil {
		allowed, retryAfter, err := ac.limiter.Allow(ctx, ip, email)
		if err != nil {
			ac.log.WithError(err).Warn("login limiter unavailable")
		} else if !allowed {
			ac.metrics.LoginAttempt("throttled")
			ac.tooManyAttempts(c, retryAfter)
			return
		}
	}

	result, err := ac.service.Login(ctx, email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			ac.metrics.LoginAttempt("invalid_credentials")
			ac.audit.LogAuth(0, audit.ActionLogin, email, ip, c.Request.UserAgent(), false)
			ac.recordFailure(c, ip, email)
			abortWithMessage(c, http.StatusUnauthorized, MessageInvalidCredentials)
			return
		}
		ac.metrics.LoginAttempt("error")
		ac.log.WithError(err).Error("login failed")
		abortWithMessage(c, http.StatusInternalServerError, MessageLoginFailed)
		return
	}

	if ac.limiter != nil {
		if err := ac.limiter.RecordSuccess(ctx, ip, email); err != nil {
			ac.log.WithError(err).Warn("failed to reset login limiter")
		}
	}

	ac.metrics.LoginAttempt("success")
	ac.audit.LogAuth(result.Account.ID, audit.ActionLogin, email, ip, c.Request.UserAgent(), true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    result.Account,
		"token":   result.Token,
	})
}

// Me handles GET /api/auth/me.
func (ac *AuthController) Me(c *gin.Context) {
	account, ok := CurrentAccount(c)
	if !ok {
		abortWithMessage(c, http.StatusUnauthorized, MessageNoToken)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    account,
	})
}

func (ac *AuthController) recordFailure(c *gin.Context, ip, email string) {
	if ac.limiter == nil {
		return
	}
	locked, retryAfter, err := ac.limiter.RecordFailure(c.Request.Context(), ip, email)
	if err != nil {
		ac.log.WithError(err).Warn("failed to record login failure")
		return
	}
	if locked {
		ac.log.WithFields(logrus.Fields{
			"client_ip":   ip,
			"retry_after": retryAfter.String(),
		}).Warn("login locked after repeated failures")
		ac.audit.LogAuth(0, audit.ActionLoginLocked, email, ip, c.Request.UserAgent(), false)
	}
}

func (ac *AuthController) tooManyAttempts(c *gin.Context, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	abortWithMessage(c, http.StatusTooManyRequests, MessageTooManyAttempts)
}

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/asowa/marketplace/internal/entities"
	"github.com/asowa/marketplace/internal/metrics"
)

// ContextKeyAccount holds the resolved *entities.Account on protected routes.
const ContextKeyAccount = "auth_account"

// Client-facing gate messages.
const (
	MessageNoToken      = "Not authorized, no token"
	MessageTokenFailed  = "Not authorized, token failed"
	MessageUserNotFound = "Not authorized, user not found"
	MessageNotAdmin     = "Not authorized as an admin"
)

// Rejection reasons, logged server-side and used as metric outcomes.
const (
	ReasonNoToken      = "no_token"
	ReasonBadScheme    = "bad_scheme"
	ReasonMalformed    = "malformed"
	ReasonBadSignature = "bad_signature"
	ReasonExpired      = "expired"
	ReasonUserNotFound = "user_not_found"
	ReasonLookupFailed = "lookup_failed"
	ReasonForbidden    = "forbidden"

	outcomeAllowed = "allowed"
)

// AccountFinder resolves a verified token subject.
type AccountFinder interface {
	FindByID(ctx context.Context, id uint) (*entities.Account, error)
}

// Gate guards protected routes.
type Gate struct {
	tokens   *TokenManager
	accounts AccountFinder
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
}

// NewGate creates the auth gate. m may be nil.
func NewGate(tokens *TokenManager, accounts AccountFinder, log logrus.FieldLogger, m *metrics.Metrics) *Gate {
	return &Gate{
		tokens:   tokens,
		accounts: accounts,
		log:      log,
		metrics:  m,
	}
}

// Protect requires a valid bearer token whose account still exists.
func (g *Gate) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, reason := bearerToken(c.GetHeader("Authorization"))
		if reason != "" {
			g.reject(c, http.StatusUnauthorized, reason, MessageNoToken, nil)
			return
		}

		claims, err := g.tokens.Verify(token)
		if err != nil {
			g.reject(c, http.StatusUnauthorized, tokenFailureReason(err), MessageTokenFailed, err)
			return
		}

		account, err := g.accounts.FindByID(c.Request.Context(), claims.AccountID)
		if err != nil {
			if errors.Is(err, entities.ErrAccountNotFound) {
				g.reject(c, http.StatusUnauthorized, ReasonUserNotFound, MessageUserNotFound, nil)
				return
			}
			g.reject(c, http.StatusInternalServerError, ReasonLookupFailed, "Server error", err)
			return
		}

		// The stored account is the source of truth for role, not the token.
		safe := *account
		safe.PasswordHash = ""
		c.Set(ContextKeyAccount, &safe)

		g.metrics.GateDecision(outcomeAllowed)
		c.Next()
	}
}

// RequireRole must run after Protect. Without a resolved account it answers
// like Protect would for a request without a token.
func (g *Gate) RequireRole(role entities.Role) gin.HandlerFunc {
	message := "Not authorized as a " + role.String()
	if role == entities.RoleAdmin {
		message = MessageNotAdmin
	}

	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok {
			g.reject(c, http.StatusUnauthorized, ReasonNoToken, MessageNoToken, nil)
			return
		}
		if account.Role != role {
			g.log.WithFields(logrus.Fields{
				"account_id": account.ID,
				"role":       account.Role,
				"required":   role,
			}).Debug("role gate denied")
			g.reject(c, http.StatusForbidden, ReasonForbidden, message, nil)
			return
		}
		c.Next()
	}
}

func (g *Gate) reject(c *gin.Context, status int, reason, message string, cause error) {
	entry := g.log.WithFields(logrus.Fields{
		"reason":    reason,
		"path":      c.Request.URL.Path,
		"client_ip": c.ClientIP(),
	})
	if cause != nil {
		entry = entry.WithError(cause)
	}
	if status >= http.StatusInternalServerError {
		entry.Error("auth gate failed")
	} else {
		entry.Warn("auth gate rejected request")
	}

	g.metrics.GateDecision(reason)
	abortWithMessage(c, status, message)
}

// bearerToken extracts the token from an Authorization header. A non-empty
// reason means no usable token was presented.
func bearerToken(header string) (string, string) {
	header = strings.TrimSpace(header)
	if header == "" || strings.EqualFold(header, "bearer") {
		return "", ReasonNoToken
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", ReasonBadScheme
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ReasonNoToken
	}
	return token, ""
}

func tokenFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, ErrTokenBadSignature):
		return ReasonBadSignature
	default:
		return ReasonMalformed
	}
}

// CurrentAccount returns the account resolved by Protect.
func CurrentAccount(c *gin.Context) (*entities.Account, bool) {
	v, exists := c.Get(ContextKeyAccount)
	if !exists {
		return nil, false
	}
	account, ok := v.(*entities.Account)
	return account, ok && account != nil
}

func abortWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

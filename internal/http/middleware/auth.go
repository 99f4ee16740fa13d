package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/logging"
	"github.com/gin-gonic/gin"
)

// Gin context keys set by WithJWT
const (
	KeyUserID    = "user_id"
	KeyUserRole  = "user_role"
	KeySessionID = "session_id"
)

// AuthMW validates bearer tokens against the session store
type AuthMW struct {
	tokenSvc    domain.TokenService
	sessionRepo domain.SessionRepository
	log         logging.Logger
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(tokenSvc domain.TokenService, sessionRepo domain.SessionRepository, log logging.Logger) *AuthMW {
	if log == nil {
		log = logging.Discard()
	}
	return &AuthMW{tokenSvc: tokenSvc, sessionRepo: sessionRepo, log: log}
}

// WithJWT requires a valid access token backed by a live session and
// attaches the caller to the request context as a domain.Principal.
func (mw *AuthMW) WithJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || scheme != "Bearer" || token == "" {
			abort(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := mw.tokenSvc.ValidateAccessToken(token)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrTokenExpired):
				abort(c, http.StatusUnauthorized, "Token expired")
			default:
				abort(c, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		ctx := c.Request.Context()
		session, err := mw.sessionRepo.FindByID(ctx, claims.SessionID)
		if err != nil {
			if !errors.Is(err, domain.ErrSessionNotFound) && !errors.Is(err, domain.ErrSessionExpired) {
				mw.log.Error(ctx, "session lookup failed", "session_id", claims.SessionID, "error", err)
			}
			abort(c, http.StatusUnauthorized, "Session invalid or expired")
			return
		}
		if session.UserID != claims.UserID {
			abort(c, http.StatusUnauthorized, "Session user mismatch")
			return
		}

		principal := domain.Principal{UserID: claims.UserID, Role: claims.Role, SessionID: session.ID}
		ctx = domain.WithPrincipal(ctx, principal)
		if cc := domain.ClientContextFrom(ctx); cc != nil {
			cc.SessionID = session.ID
		}
		c.Request = c.Request.WithContext(ctx)

		c.Set(KeyUserID, principal.UserID)
		c.Set(KeyUserRole, string(principal.Role))
		c.Set(KeySessionID, principal.SessionID)
		c.Next()
	}
}

// ClientInfo records the caller's address and user agent for audit events
func ClientInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		cc := &domain.ClientContext{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		c.Request = c.Request.WithContext(domain.WithClientContext(c.Request.Context(), cc))
		c.Next()
	}
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

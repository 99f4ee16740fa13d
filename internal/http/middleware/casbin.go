package middleware

import (
	"net/http"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/infrastructure/auth"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/logging"
	"github.com/gin-gonic/gin"
)

// CasbinMW authorizes the principal's role for the requested route
type CasbinMW struct {
	policy domain.PolicyService
	log    logging.Logger
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(policy domain.PolicyService, log logging.Logger) *CasbinMW {
	if log == nil {
		log = logging.Discard()
	}
	return &CasbinMW{policy: policy, log: log}
}

// Enforce must run after AuthMW.WithJWT
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := domain.PrincipalFrom(c.Request.Context())
		if !ok {
			abort(c, http.StatusUnauthorized, "User ID or role not found in token")
			return
		}

		if headerUserID := c.GetHeader("x-user-id"); headerUserID != "" && headerUserID != principal.UserID {
			abort(c, http.StatusForbidden, "Header x-user-id does not match token user ID")
			return
		}

		path := c.Request.URL.Path
		method := c.Request.Method
		allowed, err := mw.policy.CheckPermission(auth.RoleSubject(principal.Role), path, method)
		if err != nil {
			mw.log.Error(c.Request.Context(), "authorization check failed", "path", path, "method", method, "error", err)
			abort(c, http.StatusInternalServerError, "Authorization check failed")
			return
		}
		if !allowed {
			abort(c, http.StatusForbidden, "Access Denied")
			return
		}

		c.Next()
	}
}

package httpx

import (
	"net/http"

	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/http/handlers"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/http/middleware"
	"github.com/gin-gonic/gin"
)

// BuildRouter wires every route. Admin routes are gated by the role_admin policy.
func BuildRouter(ah *handlers.AccountHandlers, adh *handlers.AdminHandlers, ph *handlers.PolicyHandlers, jwtmw *middleware.AuthMW, cb *middleware.CasbinMW) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.ClientInfo())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	pub := r.Group("/auth")
	pub.POST("/users", ah.CreateUser)
	pub.POST("/users/otp", ah.CreateUserWithOTP)
	pub.POST("/login", ah.Login)
	pub.POST("/authenticate", ah.Authenticate)
	pub.POST("/otp/verify", ah.VerifyOTP)
	pub.POST("/password/reset", ah.RequestPasswordReset)
	pub.POST("/password/reset/confirm", ah.ConfirmPasswordReset)
	pub.POST("/username/remind", ah.RemindUsername)
	pub.POST("/refresh", ah.Refresh)

	me := r.Group("/auth").Use(jwtmw.WithJWT())
	me.GET("/me", ah.Me)
	me.POST("/logout", ah.Logout)
	me.POST("/password/change", ah.ChangePassword)

	adm := r.Group("/admin").Use(jwtmw.WithJWT(), cb.Enforce())
	adm.POST("/users", adh.AddAdmin)
	adm.GET("/accounts", adh.ListAdmins)
	adm.DELETE("/accounts/:id", adh.DeleteAccount)
	adm.GET("/policies", ph.List)
	adm.POST("/policies", ph.Add)
	adm.DELETE("/policies", ph.Remove)

	return r
}

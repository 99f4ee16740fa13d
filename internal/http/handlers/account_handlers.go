package handlers

import (
	"context"
	"net/http"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/logging"
	"github.com/gin-gonic/gin"
)

// AccountHandlers serves the public and self-service account endpoints
type AccountHandlers struct {
	accounts    domain.AccountService
	credentials domain.CredentialService
	audit       domain.AuditLogger
	log         logging.Logger
}

// NewAccountHandlers creates new account handlers
func NewAccountHandlers(accounts domain.AccountService, credentials domain.CredentialService, audit domain.AuditLogger, log logging.Logger) *AccountHandlers {
	if log == nil {
		log = logging.Discard()
	}
	return &AccountHandlers{accounts: accounts, credentials: credentials, audit: audit, log: log}
}

// CreateUserRequest is the signup body for both signup flows
type CreateUserRequest struct {
	Email        string              `json:"email"`
	Username     string              `json:"username"`
	Password     string              `json:"password" binding:"required"`
	Type         domain.IdentityType `json:"type"`
	Profile      ProfileBody         `json:"profile"`
	ProfileImage string              `json:"profile_image"`
}

func (r CreateUserRequest) toInput() domain.CreateUserInput {
	return domain.CreateUserInput{
		Email:        r.Email,
		Username:     r.Username,
		Password:     r.Password,
		Type:         r.Type,
		Profile:      r.Profile.toDomain(),
		ProfileImage: r.ProfileImage,
	}
}

// LoginRequest identifies the account by email or username
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// VerifyOTPRequest presents a code for an account named by user_id or login
type VerifyOTPRequest struct {
	UserID string `json:"user_id" binding:"required_without=Login"`
	Login  string `json:"login"`
	OTP    string `json:"otp" binding:"required"`
}

// ResetPasswordRequest starts a reset for an email or username
type ResetPasswordRequest struct {
	LoginTypeValue string `json:"login_type_value" binding:"required"`
}

// ConfirmResetRequest commits a new password with the reset code
type ConfirmResetRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	OTP      string `json:"otp" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RemindUsernameRequest asks for the username tied to an address
type RemindUsernameRequest struct {
	Email string `json:"email" binding:"required"`
}

// ChangePasswordRequest replaces the caller's password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// RefreshRequest represents token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateUser handles plain signup, optionally logging the account in
func (h *AccountHandlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.accounts.CreateUser(c.Request.Context(), req.toInput())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	data := gin.H{}
	if result.UserID != "" {
		data["user_id"] = result.UserID
	}
	if result.LoginResult != nil {
		data["login"] = tokensView(result.LoginResult)
	}
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

// CreateUserWithOTP handles signup that must be confirmed with a code
func (h *AccountHandlers) CreateUserWithOTP(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.accounts.CreateUserWithOTP(c.Request.Context(), req.toInput())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	data := gin.H{"message": "Verification code sent"}
	if result.UserID != "" {
		data["user_id"] = result.UserID
	}
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

// Login requires a verified identifier
func (h *AccountHandlers) Login(c *gin.Context) {
	h.login(c, h.accounts.Login)
}

// Authenticate logs in without the verification check
func (h *AccountHandlers) Authenticate(c *gin.Context) {
	h.login(c, h.accounts.Authenticate)
}

func (h *AccountHandlers) login(c *gin.Context, fn func(context.Context, domain.LoginInput) (*domain.LoginResult, error)) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := fn(c.Request.Context(), domain.LoginInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tokensView(result)})
}

// VerifyOTP answers verified=false with 200 when the code has expired
func (h *AccountHandlers) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ok, err := h.accounts.VerifyOTP(c.Request.Context(), domain.VerifyOTPInput{UserID: req.UserID, Login: req.Login, OTP: req.OTP})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"verified": ok}})
}

// RequestPasswordReset sends a reset code to the account's channel
func (h *AccountHandlers) RequestPasswordReset(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.accounts.RequestPasswordReset(c.Request.Context(), domain.ResetPasswordInput{LoginTypeValue: req.LoginTypeValue})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"user_id": result.UserID, "success": result.Success}})
}

// ConfirmPasswordReset stores the new password once the code checks out
func (h *AccountHandlers) ConfirmPasswordReset(c *gin.Context) {
	var req ConfirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ok, err := h.accounts.ResetPasswordAfterOTP(c.Request.Context(), domain.ResetPasswordCommitInput{
		UserID:   req.UserID,
		OTP:      req.OTP,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"verified": ok}})
}

// RemindUsername emails the username for an address
func (h *AccountHandlers) RemindUsername(c *gin.Context) {
	var req RemindUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.accounts.RemindUsername(c.Request.Context(), domain.RemindUsernameInput{Email: req.Email}); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Username reminder sent"}})
}

// Refresh rotates the access token
func (h *AccountHandlers) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.credentials.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"access_token": result.Tokens.AccessToken,
		"token_type":   result.Tokens.TokenType,
		"expires_in":   result.Tokens.ExpiresIn,
	}})
}

// Me returns the caller's account (requires authentication)
func (h *AccountHandlers) Me(c *gin.Context) {
	principal, ok := domain.PrincipalFrom(c.Request.Context())
	if !ok {
		respondError(c, h.log, domain.ErrUnauthorized)
		return
	}

	account, err := h.accounts.GetAccount(c.Request.Context(), principal.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": accountView(account)})
}

// ChangePassword replaces the caller's password (requires authentication)
func (h *AccountHandlers) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ok, err := h.accounts.ChangePassword(c.Request.Context(), domain.ChangePasswordInput{
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"success": ok}})
}

// Logout ends the caller's session (requires authentication)
func (h *AccountHandlers) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	principal, ok := domain.PrincipalFrom(ctx)
	if !ok {
		respondError(c, h.log, domain.ErrUnauthorized)
		return
	}

	if err := h.credentials.Logout(ctx, principal.SessionID); err != nil {
		respondError(c, h.log, err)
		return
	}
	if h.audit != nil {
		event := domain.NewAuditEvent(domain.UserLogoutEvent, principal.UserID)
		event.SessionID = principal.SessionID
		h.audit.LogEvent(ctx, event)
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Logged out successfully"}})
}

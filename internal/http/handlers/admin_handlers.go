package handlers

import (
	"net/http"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/logging"
	"github.com/gin-gonic/gin"
)

// AdminHandlers serves the admin-only account endpoints
type AdminHandlers struct {
	accounts domain.AccountService
	log      logging.Logger
}

// NewAdminHandlers creates new admin handlers
func NewAdminHandlers(accounts domain.AccountService, log logging.Logger) *AdminHandlers {
	if log == nil {
		log = logging.Discard()
	}
	return &AdminHandlers{accounts: accounts, log: log}
}

// AddAdminRequest creates an admin; the password is generated and emailed
type AddAdminRequest struct {
	Email        string      `json:"email" binding:"required"`
	Profile      ProfileBody `json:"profile"`
	ProfileImage string      `json:"profile_image"`
}

// AddAdmin creates an admin account
func (h *AdminHandlers) AddAdmin(c *gin.Context) {
	var req AddAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.accounts.AddAdmin(c.Request.Context(), domain.CreateUserInput{
		Email:        req.Email,
		Profile:      req.Profile.toDomain(),
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	data := gin.H{}
	if result.UserID != "" {
		data["user_id"] = result.UserID
	}
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

// ListAdmins returns every admin profile
func (h *AdminHandlers) ListAdmins(c *gin.Context) {
	profiles, err := h.accounts.AdminAccounts(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := make([]gin.H, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, profileView(p))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// DeleteAccount soft-deletes the account in the path
func (h *AdminHandlers) DeleteAccount(c *gin.Context) {
	if err := h.accounts.DeleteAccount(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

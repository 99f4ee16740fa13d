package handlers

import (
	"net/http"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/logging"
	"github.com/gin-gonic/gin"
)

// PolicyHandlers manages route policies at runtime
type PolicyHandlers struct {
	policy domain.PolicyService
	log    logging.Logger
}

// NewPolicyHandlers creates new policy handlers
func NewPolicyHandlers(policy domain.PolicyService, log logging.Logger) *PolicyHandlers {
	if log == nil {
		log = logging.Discard()
	}
	return &PolicyHandlers{policy: policy, log: log}
}

// PolicyRequest is one sub/obj/act rule, e.g. role_admin, /admin/*, (GET)
type PolicyRequest struct {
	Sub string `json:"sub" binding:"required"`
	Obj string `json:"obj" binding:"required"`
	Act string `json:"act" binding:"required"`
}

func (h *PolicyHandlers) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.policy.GetPolicies()})
}

func (h *PolicyHandlers) Add(c *gin.Context) {
	var r PolicyRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.policy.AddPolicy(r.Sub, r.Obj, r.Act); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PolicyHandlers) Remove(c *gin.Context) {
	var r PolicyRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.policy.RemovePolicy(r.Sub, r.Obj, r.Act); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

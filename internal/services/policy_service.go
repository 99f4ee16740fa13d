package services

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/logging"
)

// CasbinEnforcerWrapper adapts *casbin.Enforcer to domain.CasbinEnforcer
type CasbinEnforcerWrapper struct {
	enforcer *casbin.Enforcer
}

// NewCasbinEnforcerWrapper wraps a real Casbin enforcer
func NewCasbinEnforcerWrapper(enforcer *casbin.Enforcer) domain.CasbinEnforcer {
	return &CasbinEnforcerWrapper{enforcer: enforcer}
}

func (w *CasbinEnforcerWrapper) AddPolicy(params ...interface{}) (bool, error) {
	return w.enforcer.AddPolicy(params...)
}

func (w *CasbinEnforcerWrapper) RemovePolicy(params ...interface{}) (bool, error) {
	return w.enforcer.RemovePolicy(params...)
}

func (w *CasbinEnforcerWrapper) Enforce(rvals ...interface{}) (bool, error) {
	return w.enforcer.Enforce(rvals...)
}

func (w *CasbinEnforcerWrapper) GetPolicy() ([][]string, error) {
	return w.enforcer.GetPolicy()
}

// SavePolicy is a no-op for in-memory enforcers
func (w *CasbinEnforcerWrapper) SavePolicy() error {
	if w.enforcer.GetAdapter() == nil {
		return nil
	}
	return w.enforcer.SavePolicy()
}

// PolicyServiceImpl implements domain.PolicyService using Casbin.
// Roles passed in are policy subjects, see auth.RoleSubject.
type PolicyServiceImpl struct {
	enforcer domain.CasbinEnforcer
	log      logging.Logger
}

// NewPolicyService creates a new policy service
func NewPolicyService(enforcer *casbin.Enforcer, log logging.Logger) domain.PolicyService {
	return NewPolicyServiceWithEnforcer(NewCasbinEnforcerWrapper(enforcer), log)
}

// NewPolicyServiceWithEnforcer creates a policy service over any domain.CasbinEnforcer
func NewPolicyServiceWithEnforcer(enforcer domain.CasbinEnforcer, log logging.Logger) domain.PolicyService {
	if log == nil {
		log = logging.Discard()
	}
	return &PolicyServiceImpl{enforcer: enforcer, log: log}
}

// AddPolicy implements domain.PolicyService. Adding an existing rule is not an error.
func (p *PolicyServiceImpl) AddPolicy(role, resource, action string) error {
	added, err := p.enforcer.AddPolicy(role, resource, action)
	if err != nil {
		return fmt.Errorf("failed to add policy: %w", err)
	}
	if !added {
		return nil
	}
	if err := p.enforcer.SavePolicy(); err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

// RemovePolicy implements domain.PolicyService
func (p *PolicyServiceImpl) RemovePolicy(role, resource, action string) error {
	removed, err := p.enforcer.RemovePolicy(role, resource, action)
	if err != nil {
		return fmt.Errorf("failed to remove policy: %w", err)
	}
	if !removed {
		return nil
	}
	if err := p.enforcer.SavePolicy(); err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

// CheckPermission implements domain.PolicyService
func (p *PolicyServiceImpl) CheckPermission(role, resource, action string) (bool, error) {
	ok, err := p.enforcer.Enforce(role, resource, action)
	if err != nil {
		return false, fmt.Errorf("failed to enforce policy: %w", err)
	}
	return ok, nil
}

// GetPolicies implements domain.PolicyService
func (p *PolicyServiceImpl) GetPolicies() [][]string {
	policies, err := p.enforcer.GetPolicy()
	if err != nil {
		p.log.Warn(context.Background(), "failed to read policies", "error", err)
		return nil
	}
	return policies
}

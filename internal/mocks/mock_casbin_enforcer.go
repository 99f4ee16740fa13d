package mocks

import (
	"slices"
	"strings"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
)

// MockCasbinEnforcer implements domain.CasbinEnforcer over an in-memory policy list
type MockCasbinEnforcer struct {
	AddPolicyFunc    func(params ...interface{}) (bool, error)
	RemovePolicyFunc func(params ...interface{}) (bool, error)
	EnforceFunc      func(rvals ...interface{}) (bool, error)
	GetPolicyFunc    func() ([][]string, error)
	SavePolicyFunc   func() error

	policies [][]string
	Saves    int
}

var _ domain.CasbinEnforcer = (*MockCasbinEnforcer)(nil)

// NewMockCasbinEnforcer creates an enforcer seeded with the admin route policy
func NewMockCasbinEnforcer() *MockCasbinEnforcer {
	return &MockCasbinEnforcer{
		policies: [][]string{{"role_admin", "/admin/*", "(GET)|(POST)|(DELETE)"}},
	}
}

func toRule(params []interface{}) []string {
	rule := make([]string, 0, len(params))
	for _, p := range params {
		s, _ := p.(string)
		rule = append(rule, s)
	}
	return rule
}

func (m *MockCasbinEnforcer) AddPolicy(params ...interface{}) (bool, error) {
	if m.AddPolicyFunc != nil {
		return m.AddPolicyFunc(params...)
	}
	rule := toRule(params)
	if len(rule) < 3 || m.index(rule) >= 0 {
		return false, nil
	}
	m.policies = append(m.policies, rule)
	return true, nil
}

func (m *MockCasbinEnforcer) RemovePolicy(params ...interface{}) (bool, error) {
	if m.RemovePolicyFunc != nil {
		return m.RemovePolicyFunc(params...)
	}
	i := m.index(toRule(params))
	if i < 0 {
		return false, nil
	}
	m.policies = append(m.policies[:i], m.policies[i+1:]...)
	return true, nil
}

// Enforce matches the subject exactly, a trailing "*" as a path prefix and
// the action against the "(A)|(B)" alternatives of the rule.
func (m *MockCasbinEnforcer) Enforce(rvals ...interface{}) (bool, error) {
	if m.EnforceFunc != nil {
		return m.EnforceFunc(rvals...)
	}
	req := toRule(rvals)
	if len(req) < 3 {
		return false, nil
	}
	for _, p := range m.policies {
		if p[0] != req[0] {
			continue
		}
		if !matchPath(p[1], req[1]) {
			continue
		}
		actions := strings.Split(strings.NewReplacer("(", "", ")", "").Replace(p[2]), "|")
		if slices.Contains(actions, req[2]) {
			return true, nil
		}
	}
	return false, nil
}

func matchPath(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(path, prefix)
	}
	return pattern == path
}

func (m *MockCasbinEnforcer) GetPolicy() ([][]string, error) {
	if m.GetPolicyFunc != nil {
		return m.GetPolicyFunc()
	}
	out := make([][]string, len(m.policies))
	for i, p := range m.policies {
		out[i] = slices.Clone(p)
	}
	return out, nil
}

func (m *MockCasbinEnforcer) SavePolicy() error {
	m.Saves++
	if m.SavePolicyFunc != nil {
		return m.SavePolicyFunc()
	}
	return nil
}

func (m *MockCasbinEnforcer) index(rule []string) int {
	return slices.IndexFunc(m.policies, func(p []string) bool { return slices.Equal(p, rule) })
}

package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"gorm.io/gorm"
)

// PolicyModel matches role subjects against route patterns and a method regexp
const PolicyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// DefaultPolicies restrict the admin surface to the admin role
var DefaultPolicies = [][]string{
	{RoleSubject(domain.RoleAdmin), "/admin/*", "(GET)|(POST)|(DELETE)"},
}

// RoleSubject converts an account role into its policy subject
func RoleSubject(role domain.Role) string {
	return "role_" + string(role)
}

// NewCasbinEnforcer builds an enforcer backed by the casbin_rule table and
// seeds DefaultPolicies when they are missing.
func NewCasbinEnforcer(db *gorm.DB) (*casbin.Enforcer, error) {
	adp, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	m, err := model.NewModelFromString(PolicyModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	e, err := casbin.NewEnforcer(m, adp)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load casbin policy: %w", err)
	}

	if err := seedPolicies(e, DefaultPolicies); err != nil {
		return nil, err
	}
	return e, nil
}

// NewMemoryEnforcer builds an adapter-less enforcer holding DefaultPolicies
func NewMemoryEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(PolicyModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := seedPolicies(e, DefaultPolicies); err != nil {
		return nil, err
	}
	return e, nil
}

func seedPolicies(e *casbin.Enforcer, policies [][]string) error {
	for _, p := range policies {
		// AddPolicy reports false without error for rules already present.
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return fmt.Errorf("failed to seed policy %v: %w", p, err)
		}
	}
	return nil
}

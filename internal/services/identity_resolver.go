package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IdentityResolverImpl implements domain.IdentityResolver
type IdentityResolverImpl struct {
	accounts domain.AccountRepository
}

// NewIdentityResolver creates a new identity resolver
func NewIdentityResolver(accounts domain.AccountRepository) domain.IdentityResolver {
	return &IdentityResolverImpl{accounts: accounts}
}

// Classify implements domain.IdentityResolver
func (r *IdentityResolverImpl) Classify(identifier string) domain.IdentifierKind {
	if emailPattern.MatchString(strings.TrimSpace(identifier)) {
		return domain.IdentifierEmail
	}
	return domain.IdentifierUsername
}

// Resolve implements domain.IdentityResolver
func (r *IdentityResolverImpl) Resolve(ctx context.Context, identifier string) (*domain.Account, domain.IdentifierKind, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, domain.IdentifierUsername, domain.InvalidParameter("Please provide an email address or username")
	}

	kind := r.Classify(identifier)
	var (
		account *domain.Account
		err     error
	)
	if kind == domain.IdentifierEmail {
		account, err = r.accounts.FindByEmail(ctx, identifier)
	} else {
		account, err = r.accounts.FindByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, kind, err
	}
	return account, kind, nil
}

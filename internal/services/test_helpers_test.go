package services

import (
	"testing"
	"time"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/mocks"
)

const testOTP = "123456"

// harness wires the real services over in-memory mocks
type harness struct {
	accounts     *mocks.MockAccountRepository
	sessions     *mocks.MockSessionRepository
	shops        *mocks.MockShopRepository
	passwords    *mocks.MockPasswordService
	tokens       *mocks.MockTokenService
	generator    *mocks.MockOTPGenerator
	limiter      *mocks.MockOTPLimiter
	dispatcher   *mocks.MockDispatcher
	audit        *mocks.MockAuditLogger
	credentials  *CredentialServiceImpl
	verification *VerificationServiceImpl
	svc          *AccountServiceImpl
}

func newHarness(t *testing.T, policy AccountPolicy) *harness {
	t.Helper()

	h := &harness{
		accounts:   mocks.NewMockAccountRepository(),
		sessions:   mocks.NewMockSessionRepository(),
		shops:      mocks.NewMockShopRepository(),
		passwords:  mocks.NewMockPasswordService(),
		tokens:     mocks.NewMockTokenService(),
		generator:  mocks.NewMockOTPGenerator(testOTP),
		limiter:    mocks.NewMockOTPLimiter(),
		dispatcher: mocks.NewMockDispatcher(),
		audit:      mocks.NewMockAuditLogger(),
	}
	h.credentials = NewCredentialService(h.accounts, h.sessions, h.passwords, h.tokens, time.Hour)
	h.verification = NewVerificationService(VerificationDeps{
		Accounts:    h.accounts,
		Gate:        h.accounts,
		Shops:       h.shops,
		Generator:   h.generator,
		Limiter:     h.limiter,
		Dispatcher:  h.dispatcher,
		Credentials: h.credentials,
		Audit:       h.audit,
	})

	svc, err := NewAccountService(AccountDeps{
		Credentials:  h.credentials,
		Verification: h.verification,
		Resolver:     NewIdentityResolver(h.accounts),
		Accounts:     h.accounts,
		Gate:         h.accounts,
		Shops:        h.shops,
		Dispatcher:   h.dispatcher,
		Audit:        h.audit,
	}, policy)
	if err != nil {
		t.Fatalf("failed to create account service: %v", err)
	}
	h.svc = svc
	return h
}

// seedAccount stores an email account whose password is password
func (h *harness) seedAccount(t *testing.T, id, email, password string, verified bool) *domain.Account {
	t.Helper()
	account := &domain.Account{
		ID:           id,
		Emails:       []domain.Email{{Address: email, Verified: verified, Provides: "default"}},
		Type:         domain.IdentityEmail,
		Role:         domain.RoleUser,
		PasswordHash: "hashed:" + password,
		State:        domain.AccountStateNew,
	}
	h.accounts.Put(account)
	return account
}

// seedPhoneAccount stores a phone account; the number doubles as the username
func (h *harness) seedPhoneAccount(t *testing.T, id, phone, password string) *domain.Account {
	t.Helper()
	account := &domain.Account{
		ID:           id,
		Username:     phone,
		Type:         domain.IdentityPhone,
		Role:         domain.RoleUser,
		PasswordHash: "hashed:" + password,
		State:        domain.AccountStateNew,
	}
	h.accounts.Put(account)
	return account
}

// sequenceGenerator returns codes in order, each valid for 15 minutes
func sequenceGenerator(codes ...string) func() (domain.OTPChallenge, error) {
	i := 0
	return func() (domain.OTPChallenge, error) {
		code := codes[i%len(codes)]
		i++
		return domain.OTPChallenge{Code: code, ExpiresAt: time.Now().Add(15 * time.Minute)}, nil
	}
}

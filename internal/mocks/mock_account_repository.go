package mocks

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
)

// MockAccountRepository implements domain.AccountRepository and domain.AccountGate for testing
type MockAccountRepository struct {
	CreateFunc             func(ctx context.Context, account *domain.Account) error
	FindByIDFunc           func(ctx context.Context, id string) (*domain.Account, error)
	FindByEmailFunc        func(ctx context.Context, email string) (*domain.Account, error)
	FindByUsernameFunc     func(ctx context.Context, username string) (*domain.Account, error)
	SaveChallengeFunc      func(ctx context.Context, id string, challenge domain.OTPChallenge) error
	MarkVerifiedFunc       func(ctx context.Context, id string, proof domain.ChallengeProof, field domain.VerificationField) error
	ResetPasswordFunc      func(ctx context.Context, id string, proof domain.ChallengeProof, passwordHash string, field domain.VerificationField) error
	UpdatePasswordFunc     func(ctx context.Context, id, passwordHash string) error
	CreateProfileFunc      func(ctx context.Context, profile *domain.AccountProfile) error
	FindProfileFunc        func(ctx context.Context, id string) (*domain.AccountProfile, error)
	ListProfilesByRoleFunc func(ctx context.Context, role domain.Role) ([]domain.AccountProfile, error)
	SoftDeleteFunc         func(ctx context.Context, id string) error
	EnsureActiveFunc       func(ctx context.Context, id string) error

	mu       sync.Mutex
	accounts map[string]*domain.Account
	profiles map[string]*domain.AccountProfile
}

var (
	_ domain.AccountRepository = (*MockAccountRepository)(nil)
	_ domain.AccountGate       = (*MockAccountRepository)(nil)
)

// NewMockAccountRepository creates a MockAccountRepository whose default
// behavior is an in-memory store with the same uniqueness rules as the database.
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
		profiles: make(map[string]*domain.AccountProfile),
	}
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	c.Emails = slices.Clone(a.Emails)
	if a.OTPExpiresAt != nil {
		t := *a.OTPExpiresAt
		c.OTPExpiresAt = &t
	}
	return &c
}

// Put stores account directly, bypassing uniqueness checks
func (m *MockAccountRepository) Put(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = cloneAccount(account)
}

// Get returns a copy of the stored account, or nil
func (m *MockAccountRepository) Get(id string) *domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil
	}
	return cloneAccount(a)
}

func (m *MockAccountRepository) update(id string, fn func(a *domain.Account)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	fn(a)
	return nil
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if account.PrimaryEmail() != "" && strings.EqualFold(existing.PrimaryEmail(), account.PrimaryEmail()) {
			return domain.ErrEmailExists
		}
		if account.Username != "" && existing.Username == account.Username {
			return domain.ErrUsernameExists
		}
	}
	m.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	if a := m.Get(id); a != nil {
		return a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return m.findBy(func(a *domain.Account) bool {
		return slices.ContainsFunc(a.Emails, func(e domain.Email) bool {
			return strings.EqualFold(e.Address, strings.TrimSpace(email))
		})
	})
}

func (m *MockAccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	if m.FindByUsernameFunc != nil {
		return m.FindByUsernameFunc(ctx, username)
	}
	return m.findBy(func(a *domain.Account) bool { return username != "" && a.Username == username })
}

func (m *MockAccountRepository) findBy(match func(a *domain.Account) bool) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if match(a) {
			return cloneAccount(a), nil
		}
	}
	// Default behavior: not found
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) SaveChallenge(ctx context.Context, id string, challenge domain.OTPChallenge) error {
	if m.SaveChallengeFunc != nil {
		return m.SaveChallengeFunc(ctx, id, challenge)
	}
	return m.update(id, func(a *domain.Account) {
		expires := challenge.ExpiresAt
		a.OTP = challenge.Code
		a.OTPExpiresAt = &expires
	})
}

func (m *MockAccountRepository) MarkVerified(ctx context.Context, id string, proof domain.ChallengeProof, field domain.VerificationField) error {
	if m.MarkVerifiedFunc != nil {
		return m.MarkVerifiedFunc(ctx, id, proof, field)
	}
	return m.consume(id, proof, func(a *domain.Account) { markVerified(a, field) })
}

func (m *MockAccountRepository) ResetPassword(ctx context.Context, id string, proof domain.ChallengeProof, passwordHash string, field domain.VerificationField) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, id, proof, passwordHash, field)
	}
	return m.consume(id, proof, func(a *domain.Account) {
		markVerified(a, field)
		a.PasswordHash = passwordHash
	})
}

// consume applies fn only while the stored challenge still matches proof
func (m *MockAccountRepository) consume(id string, proof domain.ChallengeProof, fn func(a *domain.Account)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	challenge := a.Challenge()
	if challenge == nil || proof.Code == "" || challenge.Code != proof.Code || challenge.ExpiredAt(proof.At) {
		return domain.ErrOTPIncorrect
	}
	fn(a)
	return nil
}

func (m *MockAccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return m.update(id, func(a *domain.Account) { a.PasswordHash = passwordHash })
}

func (m *MockAccountRepository) CreateProfile(ctx context.Context, profile *domain.AccountProfile) error {
	if m.CreateProfileFunc != nil {
		return m.CreateProfileFunc(ctx, profile)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := *profile
	m.profiles[profile.AccountID] = &p
	return nil
}

func (m *MockAccountRepository) FindProfile(ctx context.Context, id string) (*domain.AccountProfile, error) {
	if m.FindProfileFunc != nil {
		return m.FindProfileFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	c := *p
	return &c, nil
}

func (m *MockAccountRepository) ListProfilesByRole(ctx context.Context, role domain.Role) ([]domain.AccountProfile, error) {
	if m.ListProfilesByRoleFunc != nil {
		return m.ListProfilesByRoleFunc(ctx, role)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.AccountProfile{}
	for _, p := range m.profiles {
		if p.Role == role && !p.IsDeleted {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *MockAccountRepository) SoftDelete(ctx context.Context, id string) error {
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, id)
	}
	err := m.update(id, func(a *domain.Account) { a.IsDeleted = true })
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		p.IsDeleted = true
	}
	return nil
}

// EnsureActive implements domain.AccountGate
func (m *MockAccountRepository) EnsureActive(ctx context.Context, id string) error {
	if m.EnsureActiveFunc != nil {
		return m.EnsureActiveFunc(ctx, id)
	}
	a := m.Get(id)
	if a == nil {
		return domain.ErrAccountNotFound
	}
	if a.IsDeleted {
		return domain.ErrAccountDeleted
	}
	return nil
}

func markVerified(a *domain.Account, field domain.VerificationField) {
	a.OTP = ""
	a.OTPExpiresAt = nil
	switch field {
	case domain.FieldPhoneVerified:
		a.PhoneVerified = true
	case domain.FieldEmailVerified:
		if len(a.Emails) > 0 {
			a.Emails[0].Verified = true
		}
	}
}

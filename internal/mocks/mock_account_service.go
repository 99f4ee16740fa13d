package mocks

import (
	"context"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
)

// MockAccountService implements domain.AccountService for handler tests
type MockAccountService struct {
	CreateUserFunc            func(ctx context.Context, in domain.CreateUserInput) (*domain.CreateUserResult, error)
	CreateUserWithOTPFunc     func(ctx context.Context, in domain.CreateUserInput) (*domain.CreateUserResult, error)
	AddAdminFunc              func(ctx context.Context, in domain.CreateUserInput) (*domain.CreateUserResult, error)
	LoginFunc                 func(ctx context.Context, in domain.LoginInput) (*domain.LoginResult, error)
	AuthenticateFunc          func(ctx context.Context, in domain.LoginInput) (*domain.LoginResult, error)
	ChangePasswordFunc        func(ctx context.Context, in domain.ChangePasswordInput) (bool, error)
	RequestPasswordResetFunc  func(ctx context.Context, in domain.ResetPasswordInput) (*domain.ResetPasswordResult, error)
	VerifyOTPFunc             func(ctx context.Context, in domain.VerifyOTPInput) (bool, error)
	ResetPasswordAfterOTPFunc func(ctx context.Context, in domain.ResetPasswordCommitInput) (bool, error)
	RemindUsernameFunc        func(ctx context.Context, in domain.RemindUsernameInput) error
	AdminAccountsFunc         func(ctx context.Context) ([]domain.AccountProfile, error)
	DeleteAccountFunc         func(ctx context.Context, id string) error
	GetAccountFunc            func(ctx context.Context, id string) (*domain.Account, error)
}

var _ domain.AccountService = (*MockAccountService)(nil)

// NewMockAccountService creates a new MockAccountService with default behaviors
func NewMockAccountService() *MockAccountService {
	return &MockAccountService{}
}

func (m *MockAccountService) CreateUser(ctx context.Context, in domain.CreateUserInput) (*domain.CreateUserResult, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, in)
	}
	// Default behavior: created without autologin
	return &domain.CreateUserResult{UserID: "user-1"}, nil
}

func (m *MockAccountService) CreateUserWithOTP(ctx context.Context, in domain.CreateUserInput) (*domain.CreateUserResult, error) {
	if m.CreateUserWithOTPFunc != nil {
		return m.CreateUserWithOTPFunc(ctx, in)
	}
	return &domain.CreateUserResult{UserID: "user-1"}, nil
}

func (m *MockAccountService) AddAdmin(ctx context.Context, in domain.CreateUserInput) (*domain.CreateUserResult, error) {
	if m.AddAdminFunc != nil {
		return m.AddAdminFunc(ctx, in)
	}
	return &domain.CreateUserResult{UserID: "admin-1"}, nil
}

func (m *MockAccountService) Login(ctx context.Context, in domain.LoginInput) (*domain.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, in)
	}
	// Default behavior: reject
	return nil, domain.ErrInvalidCredentials
}

func (m *MockAccountService) Authenticate(ctx context.Context, in domain.LoginInput) (*domain.LoginResult, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, in)
	}
	return nil, domain.ErrInvalidCredentials
}

func (m *MockAccountService) ChangePassword(ctx context.Context, in domain.ChangePasswordInput) (bool, error) {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, in)
	}
	return true, nil
}

func (m *MockAccountService) RequestPasswordReset(ctx context.Context, in domain.ResetPasswordInput) (*domain.ResetPasswordResult, error) {
	if m.RequestPasswordResetFunc != nil {
		return m.RequestPasswordResetFunc(ctx, in)
	}
	return &domain.ResetPasswordResult{UserID: "user-1", Success: true}, nil
}

func (m *MockAccountService) VerifyOTP(ctx context.Context, in domain.VerifyOTPInput) (bool, error) {
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, in)
	}
	return true, nil
}

func (m *MockAccountService) ResetPasswordAfterOTP(ctx context.Context, in domain.ResetPasswordCommitInput) (bool, error) {
	if m.ResetPasswordAfterOTPFunc != nil {
		return m.ResetPasswordAfterOTPFunc(ctx, in)
	}
	return true, nil
}

func (m *MockAccountService) RemindUsername(ctx context.Context, in domain.RemindUsernameInput) error {
	if m.RemindUsernameFunc != nil {
		return m.RemindUsernameFunc(ctx, in)
	}
	return nil
}

func (m *MockAccountService) AdminAccounts(ctx context.Context) ([]domain.AccountProfile, error) {
	if m.AdminAccountsFunc != nil {
		return m.AdminAccountsFunc(ctx)
	}
	return []domain.AccountProfile{}, nil
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, id string) error {
	if m.DeleteAccountFunc != nil {
		return m.DeleteAccountFunc(ctx, id)
	}
	return nil
}

func (m *MockAccountService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(ctx, id)
	}
	return nil, domain.ErrAccountNotFound
}

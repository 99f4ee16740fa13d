package mocks

import (
	"context"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
)

// MockCredentialService implements domain.CredentialService for testing
type MockCredentialService struct {
	CreateUserFunc     func(ctx context.Context, user domain.NewUser) (string, error)
	AuthenticateFunc   func(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error)
	LoginWithUserFunc  func(ctx context.Context, account *domain.Account) (*domain.LoginResult, error)
	ChangePasswordFunc func(ctx context.Context, userID, oldPassword, newPassword string) error
	ResetPasswordFunc  func(ctx context.Context, account *domain.Account, proof domain.ChallengeProof, newPassword string) error
	FindUserByIDFunc   func(ctx context.Context, id string) (*domain.Account, error)
	RefreshFunc        func(ctx context.Context, refreshToken string) (*domain.LoginResult, error)
	LogoutFunc         func(ctx context.Context, sessionID string) error
}

var _ domain.CredentialService = (*MockCredentialService)(nil)

// NewMockCredentialService creates a new MockCredentialService with default behaviors
func NewMockCredentialService() *MockCredentialService {
	return &MockCredentialService{}
}

func (m *MockCredentialService) CreateUser(ctx context.Context, user domain.NewUser) (string, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, user)
	}
	return "user-1", nil
}

func (m *MockCredentialService) Authenticate(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, creds)
	}
	// Default behavior: reject
	return nil, domain.ErrInvalidCredentials
}

func (m *MockCredentialService) LoginWithUser(ctx context.Context, account *domain.Account) (*domain.LoginResult, error) {
	if m.LoginWithUserFunc != nil {
		return m.LoginWithUserFunc(ctx, account)
	}
	return &domain.LoginResult{UserID: account.ID, Success: true, Account: account}, nil
}

func (m *MockCredentialService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, userID, oldPassword, newPassword)
	}
	return nil
}

func (m *MockCredentialService) ResetPassword(ctx context.Context, account *domain.Account, proof domain.ChallengeProof, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, account, proof, newPassword)
	}
	return nil
}

func (m *MockCredentialService) FindUserByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.FindUserByIDFunc != nil {
		return m.FindUserByIDFunc(ctx, id)
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockCredentialService) Refresh(ctx context.Context, refreshToken string) (*domain.LoginResult, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return nil, domain.ErrTokenInvalid
}

func (m *MockCredentialService) Logout(ctx context.Context, sessionID string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, sessionID)
	}
	return nil
}

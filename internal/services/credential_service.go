package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/google/uuid"
)

// DefaultSessionTTL is used when no session lifetime is configured
const DefaultSessionTTL = 7 * 24 * time.Hour

// CredentialServiceImpl implements domain.CredentialService
type CredentialServiceImpl struct {
	accounts   domain.AccountRepository
	sessions   domain.SessionRepository
	passwords  domain.PasswordService
	tokens     domain.TokenService
	sessionTTL time.Duration
	now        func() time.Time
	newID      func() string
}

// NewCredentialService creates a new credential service
func NewCredentialService(
	accounts domain.AccountRepository,
	sessions domain.SessionRepository,
	passwords domain.PasswordService,
	tokens domain.TokenService,
	sessionTTL time.Duration,
) *CredentialServiceImpl {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &CredentialServiceImpl{
		accounts:   accounts,
		sessions:   sessions,
		passwords:  passwords,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

var _ domain.CredentialService = (*CredentialServiceImpl)(nil)

// CreateUser implements domain.CredentialService. Every failure is a *domain.CreateUserError.
func (s *CredentialServiceImpl) CreateUser(ctx context.Context, user domain.NewUser) (string, error) {
	hashed, err := s.passwords.Hash(user.Password)
	if err != nil {
		return "", domain.NewCreateUserError(err)
	}

	role := user.Role
	if role == "" {
		role = domain.RoleUser
	}
	identityType := user.Type
	if identityType == "" {
		identityType = domain.IdentityUsername
		if user.Email != "" {
			identityType = domain.IdentityEmail
		}
	}

	now := s.now()
	account := &domain.Account{
		ID:           s.newID(),
		Username:     strings.TrimSpace(user.Username),
		Type:         identityType,
		Role:         role,
		PasswordHash: hashed,
		State:        domain.AccountStateNew,
		Profile:      user.Profile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if user.Email != "" {
		account.Emails = []domain.Email{{
			Address:  strings.ToLower(strings.TrimSpace(user.Email)),
			Verified: user.EmailVerified,
			Provides: "default",
		}}
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return "", domain.NewCreateUserError(err)
	}
	return account.ID, nil
}

// Authenticate implements domain.CredentialService
func (s *CredentialServiceImpl) Authenticate(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	var (
		account *domain.Account
		err     error
	)
	if creds.Kind == domain.IdentifierEmail {
		account, err = s.accounts.FindByEmail(ctx, creds.Identifier)
	} else {
		account, err = s.accounts.FindByUsername(ctx, creds.Identifier)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if !s.passwords.Verify(account.PasswordHash, creds.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.LoginWithUser(ctx, account)
}

// LoginWithUser implements domain.CredentialService
func (s *CredentialServiceImpl) LoginWithUser(ctx context.Context, account *domain.Account) (*domain.LoginResult, error) {
	now := s.now()
	session := &domain.Session{
		ID:        s.newID(),
		UserID:    account.ID,
		Role:      account.Role,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	tokens, err := s.issueTokens(account, session.ID)
	if err != nil {
		return nil, err
	}

	return &domain.LoginResult{
		UserID:    account.ID,
		Success:   true,
		SessionID: session.ID,
		Tokens:    tokens,
		Account:   account,
	}, nil
}

// ChangePassword implements domain.CredentialService
func (s *CredentialServiceImpl) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.passwords.Verify(account.PasswordHash, oldPassword) {
		return domain.ErrInvalidCredentials
	}

	hashed, err := s.passwords.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, userID, hashed); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ResetPassword implements domain.CredentialService. Proving the OTP also
// proves the identity channel, so the channel is marked verified.
func (s *CredentialServiceImpl) ResetPassword(ctx context.Context, account *domain.Account, proof domain.ChallengeProof, newPassword string) error {
	channel, err := account.Channel()
	if err != nil {
		return err
	}

	hashed, err := s.passwords.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.ResetPassword(ctx, account.ID, proof, hashed, channel.VerificationField()); err != nil {
		return fmt.Errorf("failed to store new password: %w", err)
	}
	return nil
}

// FindUserByID implements domain.CredentialService
func (s *CredentialServiceImpl) FindUserByID(ctx context.Context, id string) (*domain.Account, error) {
	return s.accounts.FindByID(ctx, id)
}

// Refresh implements domain.CredentialService. The refresh token is kept; only
// the access token is rotated.
func (s *CredentialServiceImpl) Refresh(ctx context.Context, refreshToken string) (*domain.LoginResult, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != claims.UserID {
		return nil, domain.ErrTokenInvalid
	}

	account, err := s.accounts.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if account.IsDeleted {
		return nil, domain.ErrAccountDeleted
	}

	accessToken, err := s.tokens.GenerateAccessToken(account.ID, account.Role, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.LoginResult{
		UserID:    account.ID,
		Success:   true,
		SessionID: session.ID,
		Tokens: domain.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		},
		Account: account,
	}, nil
}

// Logout implements domain.CredentialService
func (s *CredentialServiceImpl) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrSessionNotFound
	}
	return s.sessions.Delete(ctx, sessionID)
}

func (s *CredentialServiceImpl) issueTokens(account *domain.Account, sessionID string) (domain.TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(account.ID, account.Role, sessionID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(account.ID, account.Role, sessionID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

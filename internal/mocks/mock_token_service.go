package mocks

import (
	"fmt"
	"strings"
	"time"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
)

// MockTokenService implements domain.TokenService with readable fake tokens
type MockTokenService struct {
	GenerateAccessTokenFunc  func(userID string, role domain.Role, sessionID string) (string, error)
	GenerateRefreshTokenFunc func(userID string, role domain.Role, sessionID string) (string, error)
	ValidateAccessTokenFunc  func(token string) (*domain.TokenClaims, error)
	ValidateRefreshTokenFunc func(token string) (*domain.TokenClaims, error)
	TTL                      time.Duration
}

var _ domain.TokenService = (*MockTokenService)(nil)

// NewMockTokenService creates a new MockTokenService with a 15 minute access TTL
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{TTL: 15 * time.Minute}
}

func (m *MockTokenService) GenerateAccessToken(userID string, role domain.Role, sessionID string) (string, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(userID, role, sessionID)
	}
	// Default behavior: access|user|role|session
	return fmt.Sprintf("%s|%s|%s|%s", domain.TokenUseAccess, userID, role, sessionID), nil
}

func (m *MockTokenService) GenerateRefreshToken(userID string, role domain.Role, sessionID string) (string, error) {
	if m.GenerateRefreshTokenFunc != nil {
		return m.GenerateRefreshTokenFunc(userID, role, sessionID)
	}
	return fmt.Sprintf("%s|%s|%s|%s", domain.TokenUseRefresh, userID, role, sessionID), nil
}

func (m *MockTokenService) ValidateAccessToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateAccessTokenFunc != nil {
		return m.ValidateAccessTokenFunc(token)
	}
	return parseFakeToken(token, domain.TokenUseAccess)
}

func (m *MockTokenService) ValidateRefreshToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateRefreshTokenFunc != nil {
		return m.ValidateRefreshTokenFunc(token)
	}
	return parseFakeToken(token, domain.TokenUseRefresh)
}

func (m *MockTokenService) AccessTTL() time.Duration {
	return m.TTL
}

func parseFakeToken(token, use string) (*domain.TokenClaims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 4 {
		return nil, domain.ErrTokenMalformed
	}
	if parts[0] != use {
		return nil, domain.ErrTokenInvalid
	}
	return &domain.TokenClaims{
		UserID:    parts[1],
		Role:      domain.Role(parts[2]),
		SessionID: parts[3],
		TokenUse:  use,
	}, nil
}

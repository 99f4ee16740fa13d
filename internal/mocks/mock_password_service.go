package mocks

import (
	"strings"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
)

// MockPasswordService implements domain.PasswordService with a reversible fake hash
type MockPasswordService struct {
	HashFunc   func(password string) (string, error)
	VerifyFunc func(hashedPassword, password string) bool
}

var _ domain.PasswordService = (*MockPasswordService)(nil)

// NewMockPasswordService creates a new MockPasswordService with default behaviors
func NewMockPasswordService() *MockPasswordService {
	return &MockPasswordService{}
}

func (m *MockPasswordService) Hash(password string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	if password == "" {
		return "", domain.InvalidParameter("password is required")
	}
	// Default behavior: prefix, never use outside tests
	return "hashed:" + password, nil
}

func (m *MockPasswordService) Verify(hashedPassword, password string) bool {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(hashedPassword, password)
	}
	return strings.HasPrefix(hashedPassword, "hashed:") && hashedPassword == "hashed:"+password
}

package mocks

import (
	"errors"
	"testing"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
)

func TestMockTokenService_RoundTrip(t *testing.T) {
	svc := NewMockTokenService()

	access, _ := svc.GenerateAccessToken("user-1", domain.RoleUser, "sess-1")
	claims, err := svc.ValidateAccessToken(access)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "user-1" || claims.SessionID != "sess-1" || claims.TokenUse != domain.TokenUseAccess {
		t.Errorf("unexpected claims %+v", claims)
	}

	refresh, _ := svc.GenerateRefreshToken("user-1", domain.RoleUser, "sess-1")
	if _, err := svc.ValidateAccessToken(refresh); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for a refresh token, got %v", err)
	}
	if claims, err := svc.ValidateRefreshToken(refresh); err != nil || claims.TokenUse != domain.TokenUseRefresh {
		t.Errorf("expected refresh claims, got %+v, %v", claims, err)
	}

	if _, err := svc.ValidateAccessToken("garbage"); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Errorf("expected ErrTokenMalformed, got %v", err)
	}
}

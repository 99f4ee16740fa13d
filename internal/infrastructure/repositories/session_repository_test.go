package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates an in-memory Redis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestSessionRepositoryImpl_Create(t *testing.T) {
	tests := []struct {
		name        string
		session     *domain.Session
		ttl         time.Duration
		expectedTTL time.Duration
	}{
		{
			name: "repository ttl applies when session outlives it",
			session: &domain.Session{
				ID:        "session_123",
				UserID:    "user-1",
				Role:      domain.RoleUser,
				CreatedAt: time.Now(),
				ExpiresAt: time.Now().Add(48 * time.Hour),
			},
			ttl:         24 * time.Hour,
			expectedTTL: 24 * time.Hour,
		},
		{
			name: "session expiry shortens the key ttl",
			session: &domain.Session{
				ID:        "session_456",
				UserID:    "user-2",
				Role:      domain.RoleAdmin,
				CreatedAt: time.Now(),
				ExpiresAt: time.Now().Add(30 * time.Minute),
			},
			ttl:         time.Hour,
			expectedTTL: 30 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := setupTestRedis(t)
			repo := NewSessionRepository(client, tt.ttl)

			if err := repo.Create(context.Background(), tt.session); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			key := "authsvc:session:" + tt.session.ID
			ttl := client.TTL(context.Background(), key).Val()
			if ttl < tt.expectedTTL-time.Minute || ttl > tt.expectedTTL {
				t.Errorf("expected TTL around %v, got %v", tt.expectedTTL, ttl)
			}
		})
	}
}

func TestSessionRepositoryImpl_FindByID(t *testing.T) {
	tests := []struct {
		name          string
		session       *domain.Session
		lookupID      string
		expectedError error
	}{
		{
			name: "active session round trips role and user",
			session: &domain.Session{
				ID:        "session_active",
				UserID:    "user-1",
				Role:      domain.RoleAdmin,
				CreatedAt: time.Now(),
				ExpiresAt: time.Now().Add(time.Hour),
			},
			lookupID: "session_active",
		},
		{
			name:          "session not found",
			lookupID:      "nonexistent_session",
			expectedError: domain.ErrSessionNotFound,
		},
		{
			name: "expired session is rejected and removed",
			session: &domain.Session{
				ID:        "session_expired",
				UserID:    "user-2",
				CreatedAt: time.Now().Add(-2 * time.Hour),
				ExpiresAt: time.Now().Add(-time.Hour),
			},
			lookupID:      "session_expired",
			expectedError: domain.ErrSessionExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := setupTestRedis(t)
			repo := NewSessionRepository(client, time.Hour)
			ctx := context.Background()

			if tt.session != nil {
				if err := repo.Create(ctx, tt.session); err != nil {
					t.Fatalf("failed to seed session: %v", err)
				}
			}

			session, err := repo.FindByID(ctx, tt.lookupID)
			if tt.expectedError != nil {
				if !errors.Is(err, tt.expectedError) {
					t.Errorf("expected error %v, got %v", tt.expectedError, err)
				}
				if n := client.Exists(ctx, "authsvc:session:"+tt.lookupID).Val(); n != 0 {
					t.Error("expected no session key to remain")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if session.ID != tt.session.ID {
				t.Errorf("expected ID %s, got %s", tt.session.ID, session.ID)
			}
			if session.UserID != tt.session.UserID {
				t.Errorf("expected UserID %s, got %s", tt.session.UserID, session.UserID)
			}
			if session.Role != tt.session.Role {
				t.Errorf("expected Role %s, got %s", tt.session.Role, session.Role)
			}
		})
	}
}

func TestSessionRepositoryImpl_Delete(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()

	session := &domain.Session{
		ID:        "session_to_delete",
		UserID:    "user-1",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if err := repo.Delete(ctx, session.ID); err != nil {
		t.Fatalf("failed to delete session: %v", err)
	}
	if _, err := repo.FindByID(ctx, session.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected session to be gone, got %v", err)
	}

	// Deleting again is a no-op.
	if err := repo.Delete(ctx, session.ID); err != nil {
		t.Errorf("expected idempotent delete, got %v", err)
	}
}

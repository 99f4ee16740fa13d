package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
)

func TestVerificationServiceImpl_IssueChallenge(t *testing.T) {
	tests := []struct {
		name             string
		purpose          domain.ChallengePurpose
		phone            bool
		expectedTemplate string
	}{
		{"signup by email", domain.PurposeSignup, false, domain.TemplateSignupOTP},
		{"reset by email", domain.PurposePasswordReset, false, domain.TemplateResetPasswordOTP},
		{"signup by sms", domain.PurposeSignup, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, AccountPolicy{})
			var account *domain.Account
			if tt.phone {
				account = h.seedPhoneAccount(t, "user-1", "+15550001111", "secret")
			} else {
				account = h.seedAccount(t, "user-1", "jane@example.com", "secret", false)
			}

			challenge, err := h.verification.IssueChallenge(context.Background(), account, tt.purpose)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if challenge.Code != testOTP {
				t.Errorf("expected code %s, got %s", testOTP, challenge.Code)
			}

			stored := h.accounts.Get("user-1")
			if stored.OTP != testOTP || stored.OTPExpiresAt == nil {
				t.Errorf("expected challenge to be stored, got otp=%q expires=%v", stored.OTP, stored.OTPExpiresAt)
			}

			if tt.phone {
				if len(h.dispatcher.SMS) != 1 {
					t.Fatalf("expected 1 sms, got %d", len(h.dispatcher.SMS))
				}
				sms := h.dispatcher.SMS[0]
				if sms.To != "+15550001111" || !strings.Contains(sms.Body, testOTP) {
					t.Errorf("unexpected sms %+v", sms)
				}
				return
			}

			msg := h.dispatcher.LastEmail()
			if msg == nil {
				t.Fatal("expected an email to be sent")
			}
			if msg.Template != tt.expectedTemplate {
				t.Errorf("expected template %s, got %s", tt.expectedTemplate, msg.Template)
			}
			if msg.To != "jane@example.com" || msg.Data.OTP != testOTP {
				t.Errorf("unexpected email %+v", msg)
			}
			if msg.Data.ShopName != "Test Shop" || msg.Language != "en" {
				t.Errorf("expected shop branding, got %+v", msg)
			}
		})
	}
}

func TestVerificationServiceImpl_IssueChallenge_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(h *harness) *domain.Account
		expectedErr error
	}{
		{
			name:        "nil account",
			setup:       func(h *harness) *domain.Account { return nil },
			expectedErr: domain.ErrInvalidParameter,
		},
		{
			name: "deleted account",
			setup: func(h *harness) *domain.Account {
				a := h.seedAccount(t, "user-1", "jane@example.com", "secret", false)
				_ = h.accounts.SoftDelete(context.Background(), a.ID)
				return a
			},
			expectedErr: domain.ErrAccountDeleted,
		},
		{
			name: "no address on file",
			setup: func(h *harness) *domain.Account {
				a := &domain.Account{ID: "user-1", Username: "jane", Type: domain.IdentityUsername}
				h.accounts.Put(a)
				return a
			},
			expectedErr: domain.ErrInvalidParameter,
		},
		{
			name: "unknown login type",
			setup: func(h *harness) *domain.Account {
				a := h.seedAccount(t, "user-1", "jane@example.com", "secret", false)
				a.Type = "carrier-pigeon"
				return a
			},
			expectedErr: domain.ErrInvalidParameter,
		},
		{
			name: "resend throttled",
			setup: func(h *harness) *domain.Account {
				h.limiter.AllowIssueFunc = func(ctx context.Context, userID string) error {
					return domain.ErrOTPResendLimit
				}
				return h.seedAccount(t, "user-1", "jane@example.com", "secret", false)
			},
			expectedErr: domain.ErrOTPResendLimit,
		},
		{
			name: "no primary shop",
			setup: func(h *harness) *domain.Account {
				h.shops.FindPrimaryFunc = func(ctx context.Context) (*domain.Shop, error) {
					return nil, domain.ErrShopNotFound
				}
				return h.seedAccount(t, "user-1", "jane@example.com", "secret", false)
			},
			expectedErr: domain.ErrShopNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, AccountPolicy{})
			account := tt.setup(h)

			_, err := h.verification.IssueChallenge(context.Background(), account, domain.PurposeSignup)
			if !errors.Is(err, tt.expectedErr) {
				t.Fatalf("expected %v, got %v", tt.expectedErr, err)
			}
			if len(h.dispatcher.Emails)+len(h.dispatcher.SMS) != 0 {
				t.Error("expected nothing to be sent")
			}
		})
	}
}

func TestVerificationServiceImpl_IssueChallenge_DispatchFailureKeepsChallenge(t *testing.T) {
	h := newHarness(t, AccountPolicy{})
	account := h.seedAccount(t, "user-1", "jane@example.com", "secret", false)
	h.dispatcher.SendEmailFunc = func(ctx context.Context, msg domain.EmailMessage) error {
		return errors.New("queue unavailable")
	}

	_, err := h.verification.IssueChallenge(context.Background(), account, domain.PurposeSignup)
	if !errors.Is(err, domain.ErrDispatchFailed) {
		t.Fatalf("expected ErrDispatchFailed, got %v", err)
	}
	if got := h.accounts.Get("user-1").OTP; got != testOTP {
		t.Errorf("expected challenge to survive a failed send, got %q", got)
	}
	if h.audit.Count(domain.OTPIssueFailureEvent) != 1 {
		t.Error("expected the failure to be audited")
	}

	// The stored code is still usable.
	ok, err := h.verification.VerifyChallenge(context.Background(), "user-1", testOTP)
	if err != nil || !ok {
		t.Errorf("expected verification to succeed, got ok=%v err=%v", ok, err)
	}
}

func TestVerificationServiceImpl_VerifyChallenge(t *testing.T) {
	tests := []struct {
		name             string
		phone            bool
		presented        string
		advance          time.Duration
		expectedOK       bool
		expectedErr      error
		expectedVerified bool
	}{
		{name: "correct email code", presented: testOTP, expectedOK: true, expectedVerified: true},
		{name: "correct sms code", phone: true, presented: testOTP, expectedOK: true, expectedVerified: true},
		{name: "wrong code", presented: "654321", expectedErr: domain.ErrOTPIncorrect},
		{name: "empty code", presented: "", expectedErr: domain.ErrOTPIncorrect},
		{name: "expired code", presented: testOTP, advance: 16 * time.Minute},
		{name: "wrong code after expiry", presented: "654321", advance: 16 * time.Minute, expectedErr: domain.ErrOTPIncorrect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, AccountPolicy{})
			ctx := context.Background()
			var account *domain.Account
			if tt.phone {
				account = h.seedPhoneAccount(t, "user-1", "+15550001111", "secret")
			} else {
				account = h.seedAccount(t, "user-1", "jane@example.com", "secret", false)
			}
			if _, err := h.verification.IssueChallenge(ctx, account, domain.PurposeSignup); err != nil {
				t.Fatalf("failed to issue challenge: %v", err)
			}
			h.verification.now = func() time.Time { return time.Now().Add(tt.advance) }

			ok, err := h.verification.VerifyChallenge(ctx, "user-1", tt.presented)
			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected %v, got %v", tt.expectedErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.expectedOK {
				t.Errorf("expected ok=%v, got %v", tt.expectedOK, ok)
			}

			stored := h.accounts.Get("user-1")
			verified := stored.PhoneVerified
			if !tt.phone {
				verified = stored.Emails[0].Verified
			}
			if verified != tt.expectedVerified {
				t.Errorf("expected verified=%v, got %v", tt.expectedVerified, verified)
			}
			if tt.expectedOK && stored.OTP != "" {
				t.Error("expected challenge to be consumed")
			}
			if !tt.expectedOK && stored.OTP != testOTP {
				t.Error("expected a failed attempt to leave the challenge in place")
			}
		})
	}
}

func TestVerificationServiceImpl_VerifyChallenge_TargetsChannelField(t *testing.T) {
	h := newHarness(t, AccountPolicy{})
	ctx := context.Background()
	account := h.seedPhoneAccount(t, "user-1", "+15550001111", "secret")
	account.Emails = []domain.Email{{Address: "jane@example.com"}}
	h.accounts.Put(account)

	if _, err := h.verification.IssueChallenge(ctx, account, domain.PurposeSignup); err != nil {
		t.Fatalf("failed to issue challenge: %v", err)
	}
	if _, err := h.verification.VerifyChallenge(ctx, "user-1", testOTP); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := h.accounts.Get("user-1")
	if !stored.PhoneVerified {
		t.Error("expected phone to be verified")
	}
	if stored.Emails[0].Verified {
		t.Error("expected email to stay unverified for a phone account")
	}
}

func TestVerificationServiceImpl_NewestChallengeWins(t *testing.T) {
	h := newHarness(t, AccountPolicy{})
	ctx := context.Background()
	h.generator.GenerateFunc = sequenceGenerator("111111", "222222")
	account := h.seedAccount(t, "user-1", "jane@example.com", "secret", false)

	for i := 0; i < 2; i++ {
		if _, err := h.verification.IssueChallenge(ctx, account, domain.PurposeSignup); err != nil {
			t.Fatalf("failed to issue challenge %d: %v", i+1, err)
		}
	}

	if _, err := h.verification.VerifyChallenge(ctx, "user-1", "111111"); !errors.Is(err, domain.ErrOTPIncorrect) {
		t.Fatalf("expected superseded code to be rejected, got %v", err)
	}
	ok, err := h.verification.VerifyChallenge(ctx, "user-1", "222222")
	if err != nil || !ok {
		t.Fatalf("expected newest code to verify, got ok=%v err=%v", ok, err)
	}

	// Consumed codes cannot be replayed.
	if _, err := h.verification.VerifyChallenge(ctx, "user-1", "222222"); !errors.Is(err, domain.ErrOTPIncorrect) {
		t.Errorf("expected replay to be rejected, got %v", err)
	}
}

func TestVerificationServiceImpl_VerifyChallenge_Guards(t *testing.T) {
	ctx := context.Background()

	t.Run("missing user id", func(t *testing.T) {
		h := newHarness(t, AccountPolicy{})
		if _, err := h.verification.VerifyChallenge(ctx, "", testOTP); !errors.Is(err, domain.ErrInvalidParameter) {
			t.Errorf("expected ErrInvalidParameter, got %v", err)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		h := newHarness(t, AccountPolicy{})
		if _, err := h.verification.VerifyChallenge(ctx, "ghost", testOTP); !errors.Is(err, domain.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("attempt budget exhausted", func(t *testing.T) {
		h := newHarness(t, AccountPolicy{})
		account := h.seedAccount(t, "user-1", "jane@example.com", "secret", false)
		if _, err := h.verification.IssueChallenge(ctx, account, domain.PurposeSignup); err != nil {
			t.Fatalf("failed to issue challenge: %v", err)
		}
		h.limiter.RegisterAttemptFunc = func(ctx context.Context, userID string) error {
			return domain.ErrOTPMaxAttempts
		}
		if _, err := h.verification.VerifyChallenge(ctx, "user-1", testOTP); !errors.Is(err, domain.ErrOTPMaxAttempts) {
			t.Errorf("expected ErrOTPMaxAttempts, got %v", err)
		}
		if h.accounts.Get("user-1").Emails[0].Verified {
			t.Error("expected account to stay unverified")
		}
	})
}

func TestVerificationServiceImpl_CommitNewPassword(t *testing.T) {
	tests := []struct {
		name          string
		presented     string
		password      string
		advance       time.Duration
		expectedOK    bool
		expectedErr   error
		expectedHash  string
		expectedEmail bool
	}{
		{name: "correct code", presented: testOTP, password: "n3w-secret", expectedOK: true, expectedHash: "hashed:n3w-secret", expectedEmail: true},
		{name: "wrong code", presented: "000000", password: "n3w-secret", expectedErr: domain.ErrOTPIncorrect, expectedHash: "hashed:secret"},
		{name: "expired code", presented: testOTP, password: "n3w-secret", advance: time.Hour, expectedHash: "hashed:secret"},
		{name: "missing password", presented: testOTP, password: "", expectedErr: domain.ErrInvalidParameter, expectedHash: "hashed:secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, AccountPolicy{})
			ctx := context.Background()
			account := h.seedAccount(t, "user-1", "jane@example.com", "secret", false)
			if _, err := h.verification.IssueChallenge(ctx, account, domain.PurposePasswordReset); err != nil {
				t.Fatalf("failed to issue challenge: %v", err)
			}
			h.verification.now = func() time.Time { return time.Now().Add(tt.advance) }

			ok, err := h.verification.CommitNewPassword(ctx, "user-1", tt.presented, tt.password)
			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected %v, got %v", tt.expectedErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.expectedOK {
				t.Errorf("expected ok=%v, got %v", tt.expectedOK, ok)
			}

			stored := h.accounts.Get("user-1")
			if stored.PasswordHash != tt.expectedHash {
				t.Errorf("expected hash %s, got %s", tt.expectedHash, stored.PasswordHash)
			}
			if stored.Emails[0].Verified != tt.expectedEmail {
				t.Errorf("expected email verified=%v, got %v", tt.expectedEmail, stored.Emails[0].Verified)
			}
		})
	}
}

func TestVerificationServiceImpl_StaleReadCannotConsumeNewerChallenge(t *testing.T) {
	h := newHarness(t, AccountPolicy{})
	ctx := context.Background()
	h.generator.GenerateFunc = sequenceGenerator("111111", "222222")
	account := h.seedAccount(t, "user-1", "jane@example.com", "secret", false)

	if _, err := h.verification.IssueChallenge(ctx, account, domain.PurposePasswordReset); err != nil {
		t.Fatalf("failed to issue challenge: %v", err)
	}
	stale := h.accounts.Get("user-1")
	if _, err := h.verification.IssueChallenge(ctx, account, domain.PurposePasswordReset); err != nil {
		t.Fatalf("failed to issue challenge: %v", err)
	}

	// The lookup sees the challenge as it was before the second issue.
	h.accounts.FindByIDFunc = func(ctx context.Context, id string) (*domain.Account, error) {
		return stale, nil
	}
	if _, err := h.verification.CommitNewPassword(ctx, "user-1", "111111", "n3w-secret"); !errors.Is(err, domain.ErrOTPIncorrect) {
		t.Fatalf("expected ErrOTPIncorrect, got %v", err)
	}
	if _, err := h.verification.VerifyChallenge(ctx, "user-1", "111111"); !errors.Is(err, domain.ErrOTPIncorrect) {
		t.Fatalf("expected ErrOTPIncorrect, got %v", err)
	}

	stored := h.accounts.Get("user-1")
	if stored.PasswordHash != "hashed:secret" {
		t.Errorf("expected password to be unchanged, got %s", stored.PasswordHash)
	}
	if stored.OTP != "222222" {
		t.Errorf("expected newer challenge to survive, got %q", stored.OTP)
	}

	h.accounts.FindByIDFunc = nil
	ok, err := h.verification.CommitNewPassword(ctx, "user-1", "222222", "n3w-secret")
	if err != nil || !ok {
		t.Fatalf("expected newer code to commit, got ok=%v err=%v", ok, err)
	}
}

func TestVerificationServiceImpl_CommitNewPassword_ConcurrentConsumers(t *testing.T) {
	h := newHarness(t, AccountPolicy{})
	ctx := context.Background()
	account := h.seedAccount(t, "user-1", "jane@example.com", "secret", false)
	if _, err := h.verification.IssueChallenge(ctx, account, domain.PurposePasswordReset); err != nil {
		t.Fatalf("failed to issue challenge: %v", err)
	}

	// Every caller reads the challenge before any of them consumes it.
	snapshot := h.accounts.Get("user-1")
	h.accounts.FindByIDFunc = func(ctx context.Context, id string) (*domain.Account, error) {
		c := *snapshot
		return &c, nil
	}

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := h.verification.CommitNewPassword(ctx, "user-1", testOTP, fmt.Sprintf("pw-%d", i))
			if err != nil && !errors.Is(err, domain.ErrOTPIncorrect) {
				t.Errorf("unexpected error: %v", err)
			}
			if ok {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly one successful reset, got %d", successes)
	}
}

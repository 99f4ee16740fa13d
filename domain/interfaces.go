package domain

import (
	"context"
	"time"
)

// AccountRepository defines account data access operations
type AccountRepository interface {
	// Create persists a new account; duplicate identifiers yield ErrEmailExists or ErrUsernameExists
	Create(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByUsername(ctx context.Context, username string) (*Account, error)
	// SaveChallenge overwrites any outstanding challenge on the account
	SaveChallenge(ctx context.Context, id string, challenge OTPChallenge) error
	// MarkVerified consumes the challenge matching proof and flips field on the account and its
	// profile in one transaction. A challenge that no longer matches yields ErrOTPIncorrect.
	MarkVerified(ctx context.Context, id string, proof ChallengeProof, field VerificationField) error
	// ResetPassword is MarkVerified that also stores passwordHash
	ResetPassword(ctx context.Context, id string, proof ChallengeProof, passwordHash string, field VerificationField) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	CreateProfile(ctx context.Context, profile *AccountProfile) error
	FindProfile(ctx context.Context, id string) (*AccountProfile, error)
	ListProfilesByRole(ctx context.Context, role Role) ([]AccountProfile, error)
	SoftDelete(ctx context.Context, id string) error
}

// AccountGate rejects operations on soft-deleted accounts
type AccountGate interface {
	EnsureActive(ctx context.Context, id string) error
}

// ShopRepository reads shop metadata used to brand outbound messages
type ShopRepository interface {
	FindPrimary(ctx context.Context) (*Shop, error)
}

// SessionRepository defines session data access operations
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	FindByID(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// CredentialService owns password hashing, verification and session issuance
type CredentialService interface {
	CreateUser(ctx context.Context, user NewUser) (string, error)
	Authenticate(ctx context.Context, creds Credentials) (*LoginResult, error)
	LoginWithUser(ctx context.Context, account *Account) (*LoginResult, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	ResetPassword(ctx context.Context, account *Account, proof ChallengeProof, newPassword string) error
	FindUserByID(ctx context.Context, id string) (*Account, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

// VerificationService owns the OTP challenge lifecycle
type VerificationService interface {
	IssueChallenge(ctx context.Context, account *Account, purpose ChallengePurpose) (*OTPChallenge, error)
	// VerifyChallenge returns false without error when the challenge has expired
	VerifyChallenge(ctx context.Context, userID, presented string) (bool, error)
	CommitNewPassword(ctx context.Context, userID, presented, newPassword string) (bool, error)
}

// AccountService defines registration and login business logic
type AccountService interface {
	CreateUser(ctx context.Context, in CreateUserInput) (*CreateUserResult, error)
	CreateUserWithOTP(ctx context.Context, in CreateUserInput) (*CreateUserResult, error)
	AddAdmin(ctx context.Context, in CreateUserInput) (*CreateUserResult, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Authenticate(ctx context.Context, in LoginInput) (*LoginResult, error)
	ChangePassword(ctx context.Context, in ChangePasswordInput) (bool, error)
	RequestPasswordReset(ctx context.Context, in ResetPasswordInput) (*ResetPasswordResult, error)
	VerifyOTP(ctx context.Context, in VerifyOTPInput) (bool, error)
	ResetPasswordAfterOTP(ctx context.Context, in ResetPasswordCommitInput) (bool, error)
	RemindUsername(ctx context.Context, in RemindUsernameInput) error
	AdminAccounts(ctx context.Context) ([]AccountProfile, error)
	DeleteAccount(ctx context.Context, id string) error
	GetAccount(ctx context.Context, id string) (*Account, error)
}

// IdentityResolver classifies login identifiers and finds their account
type IdentityResolver interface {
	Classify(identifier string) IdentifierKind
	Resolve(ctx context.Context, identifier string) (*Account, IdentifierKind, error)
}

// OTPGenerator produces fresh challenges
type OTPGenerator interface {
	Generate() (OTPChallenge, error)
}

// OTPLimiter throttles challenge issuance and verification attempts per account
type OTPLimiter interface {
	AllowIssue(ctx context.Context, userID string) error
	RegisterAttempt(ctx context.Context, userID string) error
	Reset(ctx context.Context, userID string) error
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenService defines token operations
type TokenService interface {
	GenerateAccessToken(userID string, role Role, sessionID string) (string, error)
	GenerateRefreshToken(userID string, role Role, sessionID string) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
	ValidateRefreshToken(token string) (*TokenClaims, error)
	AccessTTL() time.Duration
}

// Dispatcher delivers outbound messages
type Dispatcher interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
	SendSMS(ctx context.Context, to, body string) error
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
}

// Values of TokenClaims.TokenUse
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// TokenClaims represents JWT token claims
type TokenClaims struct {
	UserID    string `json:"user_id"`
	Role      Role   `json:"role"`
	SessionID string `json:"session_id,omitempty"`
	TokenUse  string `json:"token_use"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}

package domain

import "time"

// Role is the authorization role stored on an account
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AccountState tracks the lifecycle of the shop-facing account record
type AccountState string

const (
	AccountStateNew    AccountState = "new"
	AccountStateActive AccountState = "active"
)

// Email is one address attached to an account. Only the first entry is authoritative.
type Email struct {
	Address  string
	Verified bool
	Provides string
}

// Profile holds the descriptive fields collected at signup
type Profile struct {
	FirstName  string
	LastName   string
	Phone      string
	Language   string
	Industry   string
	Company    string
	Position   string
	Address    string
	City       string
	State      string
	Country    string
	Zipcode    string
	Telephone1 string
	Telephone2 string
	DOB        string
	Picture    string
}

// Account is the credential-side user record
type Account struct {
	ID            string
	Emails        []Email
	Username      string
	Type          IdentityType
	Role          Role
	OTP           string
	OTPExpiresAt  *time.Time
	PasswordHash  string
	PhoneVerified bool
	IsDeleted     bool
	State         AccountState
	Profile       Profile
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PrimaryEmail returns the authoritative email address, or "" when none is on file
func (a *Account) PrimaryEmail() string {
	if len(a.Emails) == 0 {
		return ""
	}
	return a.Emails[0].Address
}

// Channel returns the identity channel driving verification for this account
func (a *Account) Channel() (IdentityChannel, error) {
	return ChannelFor(a.Type)
}

// Challenge returns the persisted OTP challenge, or nil when none is outstanding
func (a *Account) Challenge() *OTPChallenge {
	if a.OTP == "" || a.OTPExpiresAt == nil {
		return nil
	}
	return &OTPChallenge{Code: a.OTP, ExpiresAt: *a.OTPExpiresAt}
}

// AccountProfile is the secondary, shop-facing record linked 1:1 to an Account by ID
type AccountProfile struct {
	AccountID        string
	Name             string
	Username         string
	Emails           []Email
	PhoneVerified    bool
	Profile          Profile
	ProfileImage     string
	State            AccountState
	IsDeleted        bool
	Type             IdentityType
	Role             Role
	ShopID           string
	AcceptsMarketing bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OTPChallenge is a one-time passcode and the instant it stops being valid
type OTPChallenge struct {
	Code      string
	ExpiresAt time.Time
}

// ExpiredAt reports whether the challenge is no longer valid at t
func (c OTPChallenge) ExpiredAt(t time.Time) bool {
	return !t.Before(c.ExpiresAt)
}

// ChallengeProof is a presented code and the instant it was presented. A store
// consumes the outstanding challenge only if it still matches the proof.
type ChallengeProof struct {
	Code string
	At   time.Time
}

// ChallengePurpose selects the message sent with a challenge
type ChallengePurpose string

const (
	PurposeSignup        ChallengePurpose = "signup"
	PurposePasswordReset ChallengePurpose = "password_reset"
)

// Address is a postal address from the shop address book
type Address struct {
	Company  string
	Address1 string
	Address2 string
	City     string
	Region   string
	Postal   string
}

// Shop is the primary shop used for branding outbound messages. Read-only.
type Shop struct {
	ID                string
	Name              string
	ShopType          string
	Language          string
	ContactEmail      string
	StorefrontHomeURL string
	Address           Address
}

// TokenPair is the access/refresh token set handed out on login
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
}

// LoginResult represents authentication outcome
type LoginResult struct {
	UserID    string
	Success   bool
	SessionID string
	Tokens    TokenPair
	Account   *Account
}

// Session represents a user session
type Session struct {
	ID        string
	UserID    string
	Role      Role
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Credentials identifies an account for password authentication
type Credentials struct {
	Identifier string
	Kind       IdentifierKind
	Password   string
}

// NewUser is what the credential service needs to create an account
type NewUser struct {
	Email         string
	Username      string
	Password      string
	Type          IdentityType
	Role          Role
	EmailVerified bool
	Profile       Profile
}

// CreateUserInput is the signup payload
type CreateUserInput struct {
	Email    string
	Username string
	Password string
	Type     IdentityType
	Profile  Profile
	// ProfileImage is stored on the account profile only
	ProfileImage string
}

// CreateUserResult is returned by the signup operations. UserID is empty when
// ambiguous errors hide the outcome, whether or not the account was created.
type CreateUserResult struct {
	UserID      string
	LoginResult *LoginResult
	Account     *Account
}

// LoginInput identifies the account by email or username
type LoginInput struct {
	Email    string
	Username string
	Password string
}

// Identifier returns the email when set, otherwise the username
func (in LoginInput) Identifier() string {
	if in.Email != "" {
		return in.Email
	}
	return in.Username
}

// VerifyOTPInput presents a code for an account named by UserID or, when
// UserID is empty, by its email or username in Login
type VerifyOTPInput struct {
	UserID string
	Login  string
	OTP    string
}

// ResetPasswordInput starts a password reset for an email or username
type ResetPasswordInput struct {
	LoginTypeValue string
}

// ResetPasswordResult reports whether a reset challenge was dispatched
type ResetPasswordResult struct {
	UserID  string
	Success bool
}

// ResetPasswordCommitInput completes a password reset
type ResetPasswordCommitInput struct {
	UserID   string
	OTP      string
	Password string
}

// ChangePasswordInput is the self-service password change payload
type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
}

// RemindUsernameInput requests a username reminder by email
type RemindUsernameInput struct {
	Email string
}

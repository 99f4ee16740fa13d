package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/logging"
)

// AdminPasswordLength is the length of generated admin passwords
const AdminPasswordLength = 10

// ErrConflictingPolicy is returned when autologin and ambiguous errors are both enabled
var ErrConflictingPolicy = errors.New("autologin and ambiguous error messages are mutually exclusive")

// AccountPolicy holds the deployment-wide signup and login behavior
type AccountPolicy struct {
	// AutoLogin issues a session right after CreateUser
	AutoLogin bool
	// AmbiguousErrors hides conflicts and login failure causes from callers
	AmbiguousErrors bool
}

// Validate rejects policies that would leak what ambiguous errors hide
func (p AccountPolicy) Validate() error {
	if p.AutoLogin && p.AmbiguousErrors {
		return ErrConflictingPolicy
	}
	return nil
}

// AccountDeps are the collaborators of the account orchestrator. Audit and Log are optional.
type AccountDeps struct {
	Credentials  domain.CredentialService
	Verification domain.VerificationService
	Resolver     domain.IdentityResolver
	Accounts     domain.AccountRepository
	Gate         domain.AccountGate
	Shops        domain.ShopRepository
	Dispatcher   domain.Dispatcher
	Audit        domain.AuditLogger
	Log          logging.Logger
}

// AccountServiceImpl implements domain.AccountService
type AccountServiceImpl struct {
	credentials  domain.CredentialService
	verification domain.VerificationService
	resolver     domain.IdentityResolver
	accounts     domain.AccountRepository
	gate         domain.AccountGate
	shops        domain.ShopRepository
	dispatcher   domain.Dispatcher
	audit        domain.AuditLogger
	log          logging.Logger
	policy       AccountPolicy
	now          func() time.Time
	newPassword  func() (string, error)
}

// NewAccountService creates the registration and login orchestrator
func NewAccountService(deps AccountDeps, policy AccountPolicy) (*AccountServiceImpl, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	s := &AccountServiceImpl{
		credentials:  deps.Credentials,
		verification: deps.Verification,
		resolver:     deps.Resolver,
		accounts:     deps.Accounts,
		gate:         deps.Gate,
		shops:        deps.Shops,
		dispatcher:   deps.Dispatcher,
		audit:        deps.Audit,
		log:          deps.Log,
		policy:       policy,
		now:          time.Now,
	}
	s.newPassword = func() (string, error) {
		return randomString(rand.Reader, alphanumeric, AdminPasswordLength)
	}
	if s.audit == nil {
		s.audit = nopAudit{}
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	return s, nil
}

var _ domain.AccountService = (*AccountServiceImpl)(nil)

// CreateUser implements domain.AccountService
func (s *AccountServiceImpl) CreateUser(ctx context.Context, in domain.CreateUserInput) (*domain.CreateUserResult, error) {
	userID, err := s.register(ctx, in, domain.RoleUser, false)
	if err != nil {
		return s.creationFailure(err)
	}

	if !s.policy.AutoLogin {
		if s.policy.AmbiguousErrors {
			return &domain.CreateUserResult{}, nil
		}
		return &domain.CreateUserResult{UserID: userID}, nil
	}

	account, err := s.credentials.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load new account: %w", err)
	}
	login, err := s.credentials.LoginWithUser(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to log in new account: %w", err)
	}
	return &domain.CreateUserResult{UserID: userID, LoginResult: login, Account: account}, nil
}

// CreateUserWithOTP implements domain.AccountService. The account profile is
// created unverified and a signup challenge is sent; the caller verifies it
// separately with the returned user ID. With ambiguous errors the result is
// empty on success and on conflict alike, and the caller verifies by login.
func (s *AccountServiceImpl) CreateUserWithOTP(ctx context.Context, in domain.CreateUserInput) (*domain.CreateUserResult, error) {
	if identityTypeFor(in) == domain.IdentityUsername && strings.TrimSpace(in.Email) == "" {
		return nil, domain.InvalidParameter("Please provide an email address to receive the verification code")
	}

	userID, err := s.register(ctx, in, domain.RoleUser, false)
	if err != nil {
		return s.creationFailure(err)
	}

	account, err := s.credentials.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load new account: %w", err)
	}
	if err := s.accounts.CreateProfile(ctx, newProfile(account, in, domain.AccountStateNew)); err != nil {
		return nil, fmt.Errorf("failed to create account profile: %w", err)
	}

	if _, err := s.verification.IssueChallenge(ctx, account, domain.PurposeSignup); err != nil {
		return nil, err
	}
	if s.policy.AmbiguousErrors {
		return &domain.CreateUserResult{}, nil
	}
	return &domain.CreateUserResult{UserID: userID, Account: account}, nil
}

// AddAdmin implements domain.AccountService. The address is trusted as
// verified and the generated credentials are emailed instead of an OTP.
func (s *AccountServiceImpl) AddAdmin(ctx context.Context, in domain.CreateUserInput) (*domain.CreateUserResult, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, domain.InvalidParameter("Please provide an email address")
	}

	password, err := s.newPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate admin password: %w", err)
	}
	in.Password = password
	in.Username = "p" + strconv.FormatInt(s.now().UnixMilli(), 10)
	in.Type = domain.IdentityEmail

	userID, err := s.register(ctx, in, domain.RoleAdmin, true)
	if err != nil {
		return s.creationFailure(err)
	}

	account, err := s.credentials.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load new admin: %w", err)
	}
	if err := s.accounts.CreateProfile(ctx, newProfile(account, in, domain.AccountStateActive)); err != nil {
		return nil, fmt.Errorf("failed to create admin profile: %w", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.AdminCreatedEvent, userID).WithEmail(account.PrimaryEmail()))

	err = s.sendAccountEmail(ctx, account, domain.TemplateAdminCredentials, func(d *domain.EmailData) {
		d.Username = account.Username
		d.Password = password
	})
	if err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.AdminCredentialsEvent, userID).WithEmail(account.PrimaryEmail()))

	return &domain.CreateUserResult{UserID: userID, Account: account}, nil
}

// Login implements domain.AccountService
func (s *AccountServiceImpl) Login(ctx context.Context, in domain.LoginInput) (*domain.LoginResult, error) {
	return s.login(ctx, in, true)
}

// Authenticate implements domain.AccountService. Unlike Login it does not
// require a verified identifier.
func (s *AccountServiceImpl) Authenticate(ctx context.Context, in domain.LoginInput) (*domain.LoginResult, error) {
	return s.login(ctx, in, false)
}

func (s *AccountServiceImpl) login(ctx context.Context, in domain.LoginInput, requireVerified bool) (*domain.LoginResult, error) {
	identifier := strings.TrimSpace(in.Identifier())
	if identifier == "" {
		return nil, domain.InvalidParameter("Please provide an email address or username")
	}
	if in.Password == "" {
		return nil, domain.InvalidParameter("Please provide password to proceed.")
	}

	fail := func(userID string, err error) (*domain.LoginResult, error) {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, userID).
			WithMetadata("identifier", identifier).
			WithError(err))
		if s.policy.AmbiguousErrors {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	account, kind, err := s.resolver.Resolve(ctx, identifier)
	if err != nil {
		return fail("", err)
	}
	if err := s.gate.EnsureActive(ctx, account.ID); err != nil {
		return fail(account.ID, err)
	}

	if requireVerified {
		channel, err := account.Channel()
		if err != nil {
			return fail(account.ID, err)
		}
		if !channel.IsVerified(account) {
			return fail(account.ID, domain.ErrAccountUnverified)
		}
	}

	result, err := s.credentials.Authenticate(ctx, domain.Credentials{
		Identifier: identifier,
		Kind:       kind,
		Password:   in.Password,
	})
	if err != nil {
		return fail(account.ID, err)
	}

	event := domain.NewAuditEvent(domain.UserLoginEvent, result.UserID)
	event.SessionID = result.SessionID
	s.audit.LogEvent(ctx, event)
	return result, nil
}

// ChangePassword implements domain.AccountService
func (s *AccountServiceImpl) ChangePassword(ctx context.Context, in domain.ChangePasswordInput) (bool, error) {
	principal, ok := domain.PrincipalFrom(ctx)
	if !ok {
		return false, domain.ErrUnauthorized
	}
	if in.OldPassword == "" || in.NewPassword == "" {
		return false, domain.InvalidParameter("Please provide the old and new password")
	}
	if err := s.gate.EnsureActive(ctx, principal.UserID); err != nil {
		return false, err
	}

	if err := s.credentials.ChangePassword(ctx, principal.UserID, in.OldPassword, in.NewPassword); err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordChangedEvent, principal.UserID).WithError(err))
		return false, err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordChangedEvent, principal.UserID))
	return true, nil
}

// RequestPasswordReset implements domain.AccountService
func (s *AccountServiceImpl) RequestPasswordReset(ctx context.Context, in domain.ResetPasswordInput) (*domain.ResetPasswordResult, error) {
	if strings.TrimSpace(in.LoginTypeValue) == "" {
		return nil, domain.InvalidParameter("Please provide an email address or username")
	}

	account, _, err := s.resolver.Resolve(ctx, in.LoginTypeValue)
	if err != nil {
		return nil, err
	}
	if err := s.gate.EnsureActive(ctx, account.ID); err != nil {
		return nil, err
	}

	if _, err := s.verification.IssueChallenge(ctx, account, domain.PurposePasswordReset); err != nil {
		return nil, err
	}
	return &domain.ResetPasswordResult{UserID: account.ID, Success: true}, nil
}

// VerifyOTP implements domain.AccountService. An account named by login that
// is unknown or deleted reads as a wrong code under ambiguous errors.
func (s *AccountServiceImpl) VerifyOTP(ctx context.Context, in domain.VerifyOTPInput) (bool, error) {
	if in.UserID != "" || strings.TrimSpace(in.Login) == "" {
		return s.verification.VerifyChallenge(ctx, in.UserID, in.OTP)
	}

	hide := func(err error) error {
		if s.policy.AmbiguousErrors && (errors.Is(err, domain.ErrAccountNotFound) || errors.Is(err, domain.ErrAccountDeleted)) {
			return domain.ErrOTPIncorrect
		}
		return err
	}

	account, _, err := s.resolver.Resolve(ctx, in.Login)
	if err != nil {
		return false, hide(err)
	}
	ok, err := s.verification.VerifyChallenge(ctx, account.ID, in.OTP)
	if err != nil {
		return false, hide(err)
	}
	return ok, nil
}

// ResetPasswordAfterOTP implements domain.AccountService
func (s *AccountServiceImpl) ResetPasswordAfterOTP(ctx context.Context, in domain.ResetPasswordCommitInput) (bool, error) {
	return s.verification.CommitNewPassword(ctx, in.UserID, in.OTP, in.Password)
}

// RemindUsername implements domain.AccountService
func (s *AccountServiceImpl) RemindUsername(ctx context.Context, in domain.RemindUsernameInput) error {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return domain.InvalidParameter("Please provide an email address")
	}
	if s.resolver.Classify(email) != domain.IdentifierEmail {
		return domain.InvalidParameter("Please provide a valid email address")
	}

	account, _, err := s.resolver.Resolve(ctx, email)
	if err != nil {
		return err
	}
	if err := s.gate.EnsureActive(ctx, account.ID); err != nil {
		return err
	}
	if account.Username == "" {
		return domain.InvalidParameter("No username is set for this account")
	}

	err = s.sendAccountEmail(ctx, account, domain.TemplateResetUsername, func(d *domain.EmailData) {
		d.Username = account.Username
	})
	if err != nil {
		return err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UsernameReminderEvent, account.ID).WithEmail(account.PrimaryEmail()))
	return nil
}

// AdminAccounts implements domain.AccountService
func (s *AccountServiceImpl) AdminAccounts(ctx context.Context) ([]domain.AccountProfile, error) {
	profiles, err := s.accounts.ListProfilesByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin accounts: %w", err)
	}
	return profiles, nil
}

// DeleteAccount implements domain.AccountService
func (s *AccountServiceImpl) DeleteAccount(ctx context.Context, id string) error {
	if id == "" {
		return domain.InvalidParameter("Please provide userId to proceed.")
	}
	if err := s.gate.EnsureActive(ctx, id); err != nil {
		return err
	}
	if err := s.accounts.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	event := domain.NewAuditEvent(domain.AccountDeletedEvent, id)
	if p, ok := domain.PrincipalFrom(ctx); ok {
		event.WithMetadata("deleted_by", p.UserID)
	}
	s.audit.LogEvent(ctx, event)
	return nil
}

// GetAccount implements domain.AccountService
func (s *AccountServiceImpl) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if err := s.gate.EnsureActive(ctx, id); err != nil {
		return nil, err
	}
	return s.credentials.FindUserByID(ctx, id)
}

// register validates the signup input and creates the credential record
func (s *AccountServiceImpl) register(ctx context.Context, in domain.CreateUserInput, role domain.Role, emailVerified bool) (string, error) {
	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)
	if email == "" && username == "" {
		return "", domain.InvalidParameter("Please provide either an email address or a username")
	}
	if email != "" && s.resolver.Classify(email) != domain.IdentifierEmail {
		return "", domain.InvalidParameter("Please provide a valid email address")
	}
	if in.Password == "" {
		return "", domain.InvalidParameter("Please provide password to proceed.")
	}

	identityType := identityTypeFor(in)
	channel, err := domain.ChannelFor(identityType)
	if err != nil {
		return "", err
	}
	switch {
	case identityType == domain.IdentityPhone && username == "":
		return "", domain.InvalidParameter("Please provide a phone number as the username")
	case identityType == domain.IdentityEmail && email == "":
		return "", domain.InvalidParameter("Please provide an email address")
	}

	userID, err := s.credentials.CreateUser(ctx, domain.NewUser{
		Email:         email,
		Username:      username,
		Password:      in.Password,
		Type:          channel.Type(),
		Role:          role,
		EmailVerified: emailVerified,
		Profile:       in.Profile,
	})
	if err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserRegistrationEvent, "").
			WithEmail(email).
			WithMetadata("role", string(role)).
			WithError(err))
		return "", err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserRegistrationEvent, userID).
		WithEmail(email).
		WithMetadata("role", string(role)).
		WithMetadata("type", string(identityType)))
	return userID, nil
}

// creationFailure hides identifier conflicts behind an empty result in ambiguous mode
func (s *AccountServiceImpl) creationFailure(err error) (*domain.CreateUserResult, error) {
	var cue *domain.CreateUserError
	if errors.As(err, &cue) {
		if cue.IsConflict() {
			if s.policy.AmbiguousErrors {
				return &domain.CreateUserResult{}, nil
			}
			return nil, cue.Err
		}
		if errors.Is(cue, domain.ErrInvalidParameter) {
			return nil, cue.Err
		}
		return nil, fmt.Errorf("failed to create user: %w", cue.Err)
	}
	return nil, err
}

// sendAccountEmail sends a shop-branded email to the account's primary address
func (s *AccountServiceImpl) sendAccountEmail(ctx context.Context, account *domain.Account, template string, fill func(*domain.EmailData)) error {
	recipient := account.PrimaryEmail()
	if recipient == "" {
		return domain.InvalidParameter("No email address on file for this account")
	}

	shop, err := s.shops.FindPrimary(ctx)
	if err != nil {
		return err
	}

	data := domain.NewEmailData(shop, recipient, s.now())
	fill(&data)

	err = s.dispatcher.SendEmail(ctx, domain.EmailMessage{
		Template: template,
		To:       recipient,
		Language: domain.MessageLanguage(account.Profile, shop),
		ShopID:   shop.ID,
		Data:     data,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrDispatchFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrDispatchFailed, err)
		}
		s.log.Error(ctx, "account email failed", "user_id", account.ID, "template", template, "error", err)
		return err
	}
	return nil
}

// identityTypeFor defaults the login type to email when an address is given
func identityTypeFor(in domain.CreateUserInput) domain.IdentityType {
	if in.Type != "" {
		return in.Type
	}
	if strings.TrimSpace(in.Email) != "" {
		return domain.IdentityEmail
	}
	return domain.IdentityUsername
}

func newProfile(account *domain.Account, in domain.CreateUserInput, state domain.AccountState) *domain.AccountProfile {
	name := strings.TrimSpace(in.Profile.FirstName + " " + in.Profile.LastName)
	return &domain.AccountProfile{
		AccountID:     account.ID,
		Name:          name,
		Username:      account.Username,
		Emails:        account.Emails,
		PhoneVerified: account.PhoneVerified,
		Profile:       account.Profile,
		ProfileImage:  in.ProfileImage,
		State:         state,
		Type:          account.Type,
		Role:          account.Role,
	}
}

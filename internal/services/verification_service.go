package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/logging"
)

// VerificationDeps are the collaborators of the OTP state machine. Limiter and Audit are optional.
type VerificationDeps struct {
	Accounts    domain.AccountRepository
	Gate        domain.AccountGate
	Shops       domain.ShopRepository
	Generator   domain.OTPGenerator
	Limiter     domain.OTPLimiter
	Dispatcher  domain.Dispatcher
	Credentials domain.CredentialService
	Audit       domain.AuditLogger
	Log         logging.Logger
}

// VerificationServiceImpl implements domain.VerificationService
type VerificationServiceImpl struct {
	accounts    domain.AccountRepository
	gate        domain.AccountGate
	shops       domain.ShopRepository
	generator   domain.OTPGenerator
	limiter     domain.OTPLimiter
	dispatcher  domain.Dispatcher
	credentials domain.CredentialService
	audit       domain.AuditLogger
	log         logging.Logger
	now         func() time.Time
}

// NewVerificationService creates the OTP state machine
func NewVerificationService(deps VerificationDeps) *VerificationServiceImpl {
	s := &VerificationServiceImpl{
		accounts:    deps.Accounts,
		gate:        deps.Gate,
		shops:       deps.Shops,
		generator:   deps.Generator,
		limiter:     deps.Limiter,
		dispatcher:  deps.Dispatcher,
		credentials: deps.Credentials,
		audit:       deps.Audit,
		log:         deps.Log,
		now:         time.Now,
	}
	if s.audit == nil {
		s.audit = nopAudit{}
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	return s
}

var _ domain.VerificationService = (*VerificationServiceImpl)(nil)

// IssueChallenge implements domain.VerificationService. The new challenge
// replaces any outstanding one before the message is sent; a failed send does
// not roll it back.
func (s *VerificationServiceImpl) IssueChallenge(ctx context.Context, account *domain.Account, purpose domain.ChallengePurpose) (*domain.OTPChallenge, error) {
	if account == nil || account.ID == "" {
		return nil, domain.InvalidParameter("Please provide userId to proceed.")
	}
	if err := s.gate.EnsureActive(ctx, account.ID); err != nil {
		return nil, err
	}

	channel, err := account.Channel()
	if err != nil {
		return nil, err
	}
	recipient := channel.Recipient(account)
	if recipient == "" {
		return nil, domain.InvalidParameter(fmt.Sprintf("No %s on file to send the verification code to", channel.Dispatch()))
	}

	if s.limiter != nil {
		if err := s.limiter.AllowIssue(ctx, account.ID); err != nil {
			return nil, err
		}
	}

	shop, err := s.shops.FindPrimary(ctx)
	if err != nil {
		return nil, err
	}

	challenge, err := s.generator.Generate()
	if err != nil {
		return nil, err
	}
	if err := s.accounts.SaveChallenge(ctx, account.ID, challenge); err != nil {
		return nil, fmt.Errorf("failed to save otp: %w", err)
	}

	if err := s.deliver(ctx, account, channel, recipient, shop, purpose, challenge); err != nil {
		if !errors.Is(err, domain.ErrDispatchFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrDispatchFailed, err)
		}
		s.log.Error(ctx, "otp delivery failed", "user_id", account.ID, "channel", string(channel.Dispatch()), "error", err)
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPIssueFailureEvent, account.ID).
			WithMetadata("purpose", string(purpose)).
			WithMetadata("channel", string(channel.Dispatch())).
			WithError(err))
		return nil, err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPIssuedEvent, account.ID).
		WithMetadata("purpose", string(purpose)).
		WithMetadata("channel", string(channel.Dispatch())))
	return &challenge, nil
}

func (s *VerificationServiceImpl) deliver(
	ctx context.Context,
	account *domain.Account,
	channel domain.IdentityChannel,
	recipient string,
	shop *domain.Shop,
	purpose domain.ChallengePurpose,
	challenge domain.OTPChallenge,
) error {
	if channel.Dispatch() == domain.DispatchSMS {
		minutes := int(challenge.ExpiresAt.Sub(s.now()).Round(time.Minute).Minutes())
		body := fmt.Sprintf("Your %s verification code is %s. It expires in %d minutes.", shop.Name, challenge.Code, minutes)
		return s.dispatcher.SendSMS(ctx, recipient, body)
	}

	template := domain.TemplateSignupOTP
	if purpose == domain.PurposePasswordReset {
		template = domain.TemplateResetPasswordOTP
	}
	data := domain.NewEmailData(shop, recipient, s.now())
	data.OTP = challenge.Code

	return s.dispatcher.SendEmail(ctx, domain.EmailMessage{
		Template: template,
		To:       recipient,
		Language: domain.MessageLanguage(account.Profile, shop),
		ShopID:   shop.ID,
		Data:     data,
	})
}

// VerifyChallenge implements domain.VerificationService
func (s *VerificationServiceImpl) VerifyChallenge(ctx context.Context, userID, presented string) (bool, error) {
	if userID == "" {
		return false, domain.InvalidParameter("Please provide userId to proceed.")
	}

	account, channel, err := s.loadChallenged(ctx, userID)
	if err != nil {
		return false, err
	}

	proof := domain.ChallengeProof{Code: presented, At: s.now()}
	if err := s.check(account, proof); err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPVerifyFailureEvent, userID).WithError(err))
		// Expiry is a soft failure; a wrong code is not.
		if errors.Is(err, domain.ErrOTPExpired) {
			return false, nil
		}
		return false, err
	}

	if err := s.accounts.MarkVerified(ctx, userID, proof, channel.VerificationField()); err != nil {
		// Another request consumed or replaced the challenge after it was read.
		if errors.Is(err, domain.ErrOTPIncorrect) {
			s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPVerifyFailureEvent, userID).WithError(err))
			return false, err
		}
		return false, fmt.Errorf("failed to mark account verified: %w", err)
	}
	s.resetAttempts(ctx, userID)

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPVerifiedEvent, userID).
		WithMetadata("field", string(channel.VerificationField())))
	return true, nil
}

// CommitNewPassword implements domain.VerificationService
func (s *VerificationServiceImpl) CommitNewPassword(ctx context.Context, userID, presented, newPassword string) (bool, error) {
	if userID == "" {
		return false, domain.InvalidParameter("Please provide userId to proceed.")
	}
	if newPassword == "" {
		return false, domain.InvalidParameter("Please provide password to proceed.")
	}

	account, _, err := s.loadChallenged(ctx, userID)
	if err != nil {
		return false, err
	}

	proof := domain.ChallengeProof{Code: presented, At: s.now()}
	if err := s.check(account, proof); err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordResetEvent, userID).WithError(err))
		if errors.Is(err, domain.ErrOTPExpired) {
			return false, nil
		}
		return false, err
	}

	if err := s.credentials.ResetPassword(ctx, account, proof, newPassword); err != nil {
		if errors.Is(err, domain.ErrOTPIncorrect) {
			s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordResetEvent, userID).WithError(err))
			return false, err
		}
		return false, fmt.Errorf("failed to reset password: %w", err)
	}
	s.resetAttempts(ctx, userID)

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordResetEvent, userID))
	return true, nil
}

// loadChallenged runs the checks shared by verify and commit: gate, lookup,
// identity channel and the attempt budget.
func (s *VerificationServiceImpl) loadChallenged(ctx context.Context, userID string) (*domain.Account, domain.IdentityChannel, error) {
	if err := s.gate.EnsureActive(ctx, userID); err != nil {
		return nil, nil, err
	}

	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	channel, err := account.Channel()
	if err != nil {
		return nil, nil, err
	}

	if s.limiter != nil {
		if err := s.limiter.RegisterAttempt(ctx, userID); err != nil {
			return nil, nil, err
		}
	}
	return account, channel, nil
}

// check returns ErrOTPIncorrect for a missing or mismatched code and
// ErrOTPExpired for a matching code past its expiry.
func (s *VerificationServiceImpl) check(account *domain.Account, proof domain.ChallengeProof) error {
	challenge := account.Challenge()
	if challenge == nil || proof.Code == "" {
		return domain.ErrOTPIncorrect
	}
	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(proof.Code)) != 1 {
		return domain.ErrOTPIncorrect
	}
	if challenge.ExpiredAt(proof.At) {
		return domain.ErrOTPExpired
	}
	return nil
}

func (s *VerificationServiceImpl) resetAttempts(ctx context.Context, userID string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Reset(ctx, userID); err != nil {
		s.log.Warn(ctx, "failed to reset otp attempts", "user_id", userID, "error", err)
	}
}

type nopAudit struct{}

func (nopAudit) LogEvent(context.Context, *domain.AuditEvent) {}

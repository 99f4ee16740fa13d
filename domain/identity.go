package domain

// IdentityType is the persisted login type of an account
type IdentityType string

const (
	IdentityEmail    IdentityType = "email"
	IdentityUsername IdentityType = "username"
	IdentityPhone    IdentityType = "phoneNo"
)

// IdentifierKind is the shape of a login identifier supplied by a caller
type IdentifierKind int

const (
	IdentifierUsername IdentifierKind = iota
	IdentifierEmail
)

func (k IdentifierKind) String() string {
	if k == IdentifierEmail {
		return "email"
	}
	return "username"
}

// VerificationField names the account flag a verified challenge flips
type VerificationField string

const (
	FieldEmailVerified VerificationField = "emails.0.verified"
	FieldPhoneVerified VerificationField = "phoneVerified"
)

// DispatchChannel is the transport used to deliver a challenge
type DispatchChannel string

const (
	DispatchEmail DispatchChannel = "email"
	DispatchSMS   DispatchChannel = "sms"
)

// IdentityChannel is a closed set of identity channels. Each variant carries
// the field it verifies and where its challenges are delivered.
type IdentityChannel interface {
	Type() IdentityType
	VerificationField() VerificationField
	Dispatch() DispatchChannel
	// Recipient returns the address challenges are sent to
	Recipient(a *Account) string
	// IsVerified reports whether the channel's identifier has been proven
	IsVerified(a *Account) bool

	identityChannel()
}

// EmailChannel verifies emails[0] by email
type EmailChannel struct{}

func (EmailChannel) Type() IdentityType                   { return IdentityEmail }
func (EmailChannel) VerificationField() VerificationField { return FieldEmailVerified }
func (EmailChannel) Dispatch() DispatchChannel            { return DispatchEmail }
func (EmailChannel) Recipient(a *Account) string          { return a.PrimaryEmail() }
func (EmailChannel) IsVerified(a *Account) bool           { return primaryEmailVerified(a) }
func (EmailChannel) identityChannel()                     {}

// UsernameChannel logs in by username but proves control of emails[0]
type UsernameChannel struct{}

func (UsernameChannel) Type() IdentityType                   { return IdentityUsername }
func (UsernameChannel) VerificationField() VerificationField { return FieldEmailVerified }
func (UsernameChannel) Dispatch() DispatchChannel            { return DispatchEmail }
func (UsernameChannel) Recipient(a *Account) string          { return a.PrimaryEmail() }
func (UsernameChannel) IsVerified(a *Account) bool           { return primaryEmailVerified(a) }
func (UsernameChannel) identityChannel()                     {}

// PhoneChannel stores the phone number as the username and verifies it by SMS
type PhoneChannel struct{}

func (PhoneChannel) Type() IdentityType                   { return IdentityPhone }
func (PhoneChannel) VerificationField() VerificationField { return FieldPhoneVerified }
func (PhoneChannel) Dispatch() DispatchChannel            { return DispatchSMS }
func (PhoneChannel) Recipient(a *Account) string          { return a.Username }
func (PhoneChannel) IsVerified(a *Account) bool           { return a.PhoneVerified }
func (PhoneChannel) identityChannel()                     {}

// ChannelFor maps a persisted identity type to its channel
func ChannelFor(t IdentityType) (IdentityChannel, error) {
	switch t {
	case IdentityEmail:
		return EmailChannel{}, nil
	case IdentityUsername:
		return UsernameChannel{}, nil
	case IdentityPhone:
		return PhoneChannel{}, nil
	default:
		return nil, InvalidParameter("User login type not recognized")
	}
}

func primaryEmailVerified(a *Account) bool {
	return len(a.Emails) > 0 && a.Emails[0].Verified
}

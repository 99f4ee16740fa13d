package domain

import "errors"

// Error kinds. Specific errors below wrap one of these so callers can branch
// with errors.Is on the kind.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrDispatchFailed   = errors.New("message dispatch failed")
)

// kindError is a specific error that unwraps to its kind
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// InvalidParameter returns a validation error carrying msg verbatim
func InvalidParameter(msg string) error {
	return &kindError{kind: ErrInvalidParameter, msg: msg}
}

// Account errors
var (
	ErrAccountNotFound    error = &kindError{kind: ErrNotFound, msg: "Account not found"}
	ErrAccountDeleted     error = &kindError{kind: ErrNotFound, msg: "Account has been deleted"}
	ErrShopNotFound       error = &kindError{kind: ErrNotFound, msg: "Shop not found"}
	ErrEmailExists        error = &kindError{kind: ErrConflict, msg: "Email already exists"}
	ErrUsernameExists     error = &kindError{kind: ErrConflict, msg: "Username already exists"}
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrAccountUnverified        = errors.New("User is not verified, please verify your account")
)

// OTP errors
var (
	ErrOTPIncorrect   = errors.New("Otp is incorrect")
	ErrOTPExpired     = errors.New("otp has expired")
	ErrOTPMaxAttempts = errors.New("maximum otp attempts exceeded")
	ErrOTPResendLimit = errors.New("otp resend limit exceeded")
)

// Token errors
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("malformed token")
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session has expired")
)

// Authorization errors
var (
	ErrInsufficientRole = errors.New("insufficient role permissions")
)

// CreateUserErrorCode is the closed set of reasons account creation can fail
type CreateUserErrorCode int

const (
	CreateUserOther CreateUserErrorCode = iota
	CreateUserEmailAlreadyExists
	CreateUserUsernameAlreadyExists
)

func (c CreateUserErrorCode) String() string {
	switch c {
	case CreateUserEmailAlreadyExists:
		return "EmailAlreadyExists"
	case CreateUserUsernameAlreadyExists:
		return "UsernameAlreadyExists"
	default:
		return "Other"
	}
}

// CreateUserError is returned by CredentialService.CreateUser
type CreateUserError struct {
	Code CreateUserErrorCode
	Err  error
}

// NewCreateUserError classifies err into a CreateUserError
func NewCreateUserError(err error) *CreateUserError {
	switch {
	case errors.Is(err, ErrEmailExists):
		return &CreateUserError{Code: CreateUserEmailAlreadyExists, Err: err}
	case errors.Is(err, ErrUsernameExists):
		return &CreateUserError{Code: CreateUserUsernameAlreadyExists, Err: err}
	default:
		return &CreateUserError{Code: CreateUserOther, Err: err}
	}
}

func (e *CreateUserError) Error() string {
	if e.Err == nil {
		return "create user: " + e.Code.String()
	}
	return e.Err.Error()
}

func (e *CreateUserError) Unwrap() error { return e.Err }

// IsConflict reports whether the failure was a duplicate identifier
func (e *CreateUserError) IsConflict() bool {
	return e.Code == CreateUserEmailAlreadyExists || e.Code == CreateUserUsernameAlreadyExists
}

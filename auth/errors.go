package auth

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrUnableToDecodeSession unable to decode JWT claims
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(errors.TextCodeSessionDecodeError)

// ErrNoEmptyString we do not hash empty passwords
var ErrNoEmptyString = errors.New("password can not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(errors.TextCodeEmptyPassword)

// ErrMismatchedHashAndPassword covers both unknown users and bad passwords
var ErrMismatchedHashAndPassword = errors.New("invalid username or password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(errors.TextCodeInvalidCredentials)

// ErrTooManyLoginAttempts is returned while an account is locked out
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithCode(errors.CodeBadRequest).
	WithTextCode(errors.TextCodeTooManyAttempts)

// ErrTokenExpired the token exp claim is in the past
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(errors.TextCodeTokenExpired)

// ErrTokenMalformed the token could not be parsed or verified
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(errors.TextCodeTokenMalformed)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, errors.TextCodeTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, errors.TextCodeTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsLockedOutError reports whether sign in was refused due to lockout
func IsLockedOutError(err error) bool {
	return hasTextCode(err, errors.TextCodeTooManyAttempts)
}

// IsInvalidCredentialsError reports a failed password sign in
func IsInvalidCredentialsError(err error) bool {
	return hasTextCode(err, errors.TextCodeInvalidCredentials)
}

func hasTextCode(err error, code string) bool {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// Identity error codes, mirrored from the messages account stores
// conventionally return so clients can switch on them.
const (
	CodeDefaultError                    = "DefaultError"
	CodeDuplicateUserName               = "DuplicateUserName"
	CodeDuplicateEmail                  = "DuplicateEmail"
	CodeInvalidEmail                    = "InvalidEmail"
	CodePasswordTooShort                = "PasswordTooShort"
	CodePasswordRequiresNonAlphanumeric = "PasswordRequiresNonAlphanumeric"
	CodePasswordRequiresDigit           = "PasswordRequiresDigit"
	CodePasswordRequiresLower           = "PasswordRequiresLower"
	CodePasswordRequiresUpper           = "PasswordRequiresUpper"
	CodePasswordRequiresUniqueChars     = "PasswordRequiresUniqueChars"
)

// IdentityError is a single account store rejection
type IdentityError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// IdentityErrors is returned when an account can not be created.
// It is serialized as is to API clients.
type IdentityErrors []IdentityError

func (e IdentityErrors) Error() string {
	if len(e) == 0 {
		return "identity operation failed"
	}
	parts := make([]string, len(e))
	for i, ie := range e {
		parts[i] = fmt.Sprintf("%s: %s", ie.Code, ie.Description)
	}
	return strings.Join(parts, "; ")
}

// Has checks if the given code is part of the list
func (e IdentityErrors) Has(code string) bool {
	for _, ie := range e {
		if ie.Code == code {
			return true
		}
	}
	return false
}

func duplicateUserErrors(username, email string) IdentityErrors {
	return IdentityErrors{
		{
			Code:        CodeDuplicateUserName,
			Description: fmt.Sprintf("Username '%s' is already taken.", username),
		},
		{
			Code:        CodeDuplicateEmail,
			Description: fmt.Sprintf("Email '%s' is already taken.", email),
		},
	}
}

func defaultIdentityErrors() IdentityErrors {
	return IdentityErrors{{
		Code:        CodeDefaultError,
		Description: "An unknown failure has occurred.",
	}}
}

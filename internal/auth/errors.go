package auth

import "errors"

var (
	// ErrCredentials covers every authentication failure whose cause must
	// not leak to the caller: bad signature, expired token, unknown
	// subject. The message is deliberately shared so a missing account is
	// indistinguishable from a bad token.
	ErrCredentials = errors.New("could not validate credentials")

	// ErrInvalidScope is returned when a structurally valid token carries
	// the wrong scope claim, e.g. a refresh token replayed as an access
	// token. Distinct from ErrCredentials even though both map to 401.
	ErrInvalidScope = errors.New("invalid scope for token")

	// ErrEmailToken is the email-confirmation decode failure. Separate
	// class from ErrCredentials: this path is reached during confirmation,
	// not request authentication, and surfaces as 422.
	ErrEmailToken = errors.New("invalid token for email verification")

	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailNotConfirmed   = errors.New("email not confirmed")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrAlreadyConfirmed    = errors.New("email already confirmed")
	ErrVerification        = errors.New("verification error")

	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrUsernameRequired   = errors.New("username is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
)

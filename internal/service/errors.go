package service

import "errors"

// Error taxonomy for the authentication services. Handlers map these to
// HTTP statuses; InvalidCredentials deliberately covers both unknown email
// and wrong password so responses never reveal which.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrDuplicateEmail     = errors.New("email is already taken")
	ErrDuplicateUsername  = errors.New("username is already taken")
	ErrPasswordPolicy     = errors.New("password does not meet complexity requirements")
	ErrValidationFailed   = errors.New("validation failed")
)

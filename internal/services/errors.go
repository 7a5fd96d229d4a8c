package services

import "errors"

var (
	// Intake errors
	ErrInvalidClient       = errors.New("invalid client credentials")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrPlatformDataInvalid = errors.New("platform data exceeds size or depth limits")
	ErrDuplicateRequest    = errors.New("duplicate merge request")
	ErrAccountCreation     = errors.New("account creation failed")

	// Decision errors
	ErrNotFound       = errors.New("merge request not found")
	ErrAlreadyDecided = errors.New("merge request already decided")
	ErrInvalidState   = errors.New("merge request is not in a valid state for this operation")

	// Password-set errors
	ErrTokenInvalid = errors.New("provision token is invalid")
	ErrTokenExpired = errors.New("provision token has expired")
	ErrWeakPassword = errors.New("password does not meet minimum requirements")

	// Operator errors
	ErrClientNotFound = errors.New("client not found")
)

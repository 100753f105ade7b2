// Package auth implements the account credential lifecycle: password
// hashing, session tokens, password reset and Google sign-in.
package auth

import "errors"

var (
	ErrMissingFields         = errors.New("missing required fields")
	ErrEmailTaken            = errors.New("user already exists")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidPassword       = errors.New("invalid password")
	ErrNoAccountForEmail     = errors.New("no account found with this email")
	ErrInvalidOrExpiredReset = errors.New("invalid or expired reset token")
	ErrIdentityRejected      = errors.New("identity assertion rejected")
	ErrUpstreamUnavailable   = errors.New("upstream service unavailable")
	ErrUpstream              = errors.New("upstream service failed")

	// gate failures, all reported as 401
	ErrNoToken      = errors.New("no token provided")
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
	ErrAccountGone  = errors.New("token user no longer exists")

	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrPasswordTooLong      = errors.New("password is longer than 72 bytes")
	ErrMalformedHash        = errors.New("stored password hash is malformed")
)

package domain

import "errors"

var (
	// ErrRateLimited marks a generation failure caused by quota or throughput exhaustion.
	ErrRateLimited = errors.New("generation backend rate limited")
	// ErrUnconfigured marks a generation failure caused by a missing or rejected credential.
	ErrUnconfigured = errors.New("generation backend not configured")

	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrEmailInUse         = errors.New("email address is already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrPendingApproval    = errors.New("ngo account is pending approval")
	ErrInvalidInput       = errors.New("invalid input")
)

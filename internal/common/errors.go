package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")
	ErrorTimeout      = errors.New("timeout")

	// Authentication outcomes.
	ErrInvalidKey     = errors.New("invalid license key")
	ErrRevoked        = errors.New("license has been revoked")
	ErrExpired        = errors.New("license has expired")
	ErrDeviceMismatch = errors.New("license is already bound to another device")
	ErrStorageFailure = errors.New("storage failure")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

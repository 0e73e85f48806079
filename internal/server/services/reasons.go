package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/keybind/internal/common"
)

// Reason is the wire identifier of a failed operation.
type Reason string

const (
	ReasonInvalidKey     Reason = "InvalidKey"
	ReasonRevoked        Reason = "Revoked"
	ReasonExpired        Reason = "Expired"
	ReasonDeviceMismatch Reason = "DeviceMismatch"
	ReasonStorageFailure Reason = "StorageFailure"
	ReasonTimeout        Reason = "Timeout"
	ReasonUnauthorized   Reason = "Unauthorized"
	ReasonNotFound       Reason = "NotFound"
	ReasonInvalidRequest Reason = "InvalidRequest"
)

var reasonMessages = map[Reason]string{
	ReasonInvalidKey:     "Invalid license key",
	ReasonRevoked:        "License has been revoked",
	ReasonExpired:        "License has expired",
	ReasonDeviceMismatch: "License is already bound to another device",
	ReasonStorageFailure: "Internal error, please retry later",
	ReasonTimeout:        "Request timed out, please retry later",
	ReasonUnauthorized:   "Unauthorized",
	ReasonNotFound:       "License not found",
	ReasonInvalidRequest: "Invalid request",
}

// Message is the human readable text shown next to the reason.
func (r Reason) Message() string {
	if m, ok := reasonMessages[r]; ok {
		return m
	}
	return reasonMessages[ReasonStorageFailure]
}

// ReasonFor classifies err. Anything unrecognised is a StorageFailure, so
// internal error text never reaches clients.
func ReasonFor(err error) Reason {
	switch {
	case errors.Is(err, common.ErrInvalidKey):
		return ReasonInvalidKey
	case errors.Is(err, common.ErrRevoked):
		return ReasonRevoked
	case errors.Is(err, common.ErrExpired):
		return ReasonExpired
	case errors.Is(err, common.ErrDeviceMismatch):
		return ReasonDeviceMismatch
	case errors.Is(err, common.ErrorTimeout), errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, common.ErrorUnauthorized):
		return ReasonUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return ReasonNotFound
	case errors.Is(err, common.ErrorValidation):
		return ReasonInvalidRequest
	default:
		return ReasonStorageFailure
	}
}

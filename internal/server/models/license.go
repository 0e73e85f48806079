// Package models defines server-side data models persisted by the license
// store and the attempt journal.
package models

import "time"

// Status is the derived state of a license at a given instant.
type Status string

const (
	StatusActiveUnbound Status = "active-unbound"
	StatusActiveBound   Status = "active-bound"
	StatusExpired       Status = "expired"
	StatusRevoked       Status = "revoked"
)

// License is one issued license key and its device binding.
type License struct {
	LicenseKey  string
	UserName    string
	UserEmail   string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	IsActive    bool
	BoundHWID   *string
	FirstUsedAt *time.Time
	LastUsedAt  *time.Time
}

// IsBound reports whether the license already carries a device binding.
func (l *License) IsBound() bool {
	return l.BoundHWID != nil && *l.BoundHWID != ""
}

// IsExpiredAt reports whether expires_at is strictly before now.
func (l *License) IsExpiredAt(now time.Time) bool {
	return l.ExpiresAt.Before(now)
}

// StatusAt computes the license status from its raw fields.
// Revocation takes precedence over expiry, expiry over binding.
func (l *License) StatusAt(now time.Time) Status {
	switch {
	case !l.IsActive:
		return StatusRevoked
	case l.IsExpiredAt(now):
		return StatusExpired
	case l.IsBound():
		return StatusActiveBound
	default:
		return StatusActiveUnbound
	}
}

// Clone returns a deep copy, so callers can't mutate a store's internal state.
func (l *License) Clone() *License {
	if l == nil {
		return nil
	}
	c := *l
	if l.BoundHWID != nil {
		v := *l.BoundHWID
		c.BoundHWID = &v
	}
	if l.FirstUsedAt != nil {
		v := *l.FirstUsedAt
		c.FirstUsedAt = &v
	}
	if l.LastUsedAt != nil {
		v := *l.LastUsedAt
		c.LastUsedAt = &v
	}
	return &c
}

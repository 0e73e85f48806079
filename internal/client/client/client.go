package client

import (
	"context"
	"time"
)

// Client is the keybind API as used by the CLI.
type Client interface {
	Close() error
	SetAdminToken(token string)
	Ping(ctx context.Context) error
	Authenticate(ctx context.Context, req AuthRequest) (*AuthResult, error)
	CheckLicense(ctx context.Context, key string) (*License, error)
	IssueLicense(ctx context.Context, name, email string, days int) (*License, error)
	RevokeLicense(ctx context.Context, key string) error
	UnbindLicense(ctx context.Context, key string) (string, error)
	ListAttempts(ctx context.Context, key string, limit int) ([]Attempt, error)
	AdminLogin(ctx context.Context, password string) (string, time.Time, error)
}

type AuthRequest struct {
	LicenseKey    string
	HWID          string
	ClientVersion string
	ClientType    string
}

// AuthResult is the server's verdict. On failure Reason holds the wire
// reason (e.g. "Expired") and the license fields are empty.
type AuthResult struct {
	Success    bool
	LicenseKey string
	UserName   string
	ExpiresAt  time.Time
	Reason     string
	Message    string
}

type License struct {
	LicenseKey  string
	UserName    string
	UserEmail   string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	IsActive    bool
	BoundHWID   string
	FirstUsedAt *time.Time
	LastUsedAt  *time.Time
	Status      string
}

// Attempt is one journaled authentication call. Outcome is "OK" or the
// failure reason.
type Attempt struct {
	ID            string
	HWID          string
	ClientVersion string
	ClientType    string
	RemoteAddr    string
	Outcome       string
	CreatedAt     time.Time
}

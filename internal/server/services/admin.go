package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/keybind/internal/common"
	"github.com/dmitrijs2005/keybind/internal/logging"
	"github.com/dmitrijs2005/keybind/internal/server/auth"
	"github.com/dmitrijs2005/keybind/internal/server/config"
)

// AdminToken is a signed administrative credential.
type AdminToken struct {
	Token     string
	ExpiresAt time.Time
}

// AdminService exchanges the admin password for a short-lived token.
type AdminService struct {
	passwordHash string
	jwtSecret    []byte
	validity     time.Duration
	log          logging.Logger
}

// NewAdminService constructs an AdminService from server config.
func NewAdminService(cfg *config.Config, log logging.Logger) *AdminService {
	if log == nil {
		log = logging.Nop{}
	}
	return &AdminService{
		passwordHash: cfg.AdminPasswordHash,
		jwtSecret:    []byte(cfg.SecretKey),
		validity:     cfg.AdminTokenValidityDuration,
		log:          log.With("module", "admin"),
	}
}

// Login verifies password against the configured bcrypt hash. With no hash
// configured every login fails.
func (s *AdminService) Login(ctx context.Context, password string) (*AdminToken, error) {
	if !auth.CheckPassword(s.passwordHash, password) {
		s.log.Warn(ctx, "admin login failed")
		return nil, common.ErrorUnauthorized
	}

	token, expiresAt, err := auth.GenerateToken(auth.AdminSubject, auth.RoleAdmin, s.jwtSecret, s.validity)
	if err != nil {
		return nil, fmt.Errorf("%w: sign token: %w", common.ErrorInternal, err)
	}

	s.log.Info(ctx, "admin logged in", "expires_at", expiresAt)
	return &AdminToken{Token: token, ExpiresAt: expiresAt}, nil
}

// Verifier returns a CredentialVerifier accepting the tokens this service issues.
func (s *AdminService) Verifier() CredentialVerifier {
	return auth.NewAdminVerifier(s.jwtSecret)
}

package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/keybind/internal/common"
)

// AdminVerifier accepts admin tokens signed with its secret.
type AdminVerifier struct {
	secretKey []byte
}

func NewAdminVerifier(secretKey []byte) *AdminVerifier {
	return &AdminVerifier{secretKey: secretKey}
}

// Verify returns nil when credential is a valid, unexpired admin token.
// A "Bearer " prefix is tolerated. All failures wrap common.ErrorUnauthorized.
func (v *AdminVerifier) Verify(ctx context.Context, credential string) error {
	credential = strings.TrimSpace(credential)
	credential = strings.TrimSpace(strings.TrimPrefix(credential, "Bearer "))
	if credential == "" {
		return fmt.Errorf("%w: missing credential", common.ErrorUnauthorized)
	}

	claims, err := ParseToken(credential, v.secretKey)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}
	if claims.Subject != AdminSubject || claims.Role != RoleAdmin {
		return fmt.Errorf("%w: not an admin token", common.ErrorUnauthorized)
	}
	return nil
}

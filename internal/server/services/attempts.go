package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/keybind/internal/common"
	"github.com/dmitrijs2005/keybind/internal/server/models"
)

const (
	// DefaultAttemptsLimit is used when the caller asks for no particular
	// number of journal entries.
	DefaultAttemptsLimit = 20

	// MaxAttemptsLimit caps a single listing.
	MaxAttemptsLimit = 100
)

// ListAttempts returns the most recent journaled authentication calls for
// key, newest first. Unknown keys are not an error: attempts with an invalid
// key are journaled too.
func (s *LicenseService) ListAttempts(ctx context.Context, key, credential string, limit int) ([]*models.Attempt, error) {
	list, err := s.listAttempts(ctx, key, credential, limit)
	s.observeAdmin("attempts", err)
	return list, err
}

func (s *LicenseService) listAttempts(ctx context.Context, key, credential string, limit int) ([]*models.Attempt, error) {
	if err := s.verifier.Verify(ctx, credential); err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: license key is required", common.ErrorValidation)
	}
	switch {
	case limit <= 0:
		limit = DefaultAttemptsLimit
	case limit > MaxAttemptsLimit:
		limit = MaxAttemptsLimit
	}

	if s.journal == nil {
		return []*models.Attempt{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	list, err := s.journal.ListByLicense(ctx, key, limit)
	if err != nil {
		return nil, s.storeError(ctx, err)
	}
	if list == nil {
		list = []*models.Attempt{}
	}
	return list, nil
}

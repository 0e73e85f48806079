// Package services contains server-side business logic. This file implements
// LicenseService, the binding authority that authenticates license keys and
// performs the administrative operations on them.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/keybind/internal/common"
	"github.com/dmitrijs2005/keybind/internal/logging"
	"github.com/dmitrijs2005/keybind/internal/server/config"
	"github.com/dmitrijs2005/keybind/internal/server/models"
	"github.com/dmitrijs2005/keybind/internal/server/repositories/attempts"
	"github.com/dmitrijs2005/keybind/internal/server/repositories/licenses"
)

const (
	// maxBindRounds bounds the read-evaluate-update loop when the conditional
	// update keeps losing races.
	maxBindRounds = 3

	// maxIssueAttempts bounds key generation on collisions.
	maxIssueAttempts = 5
)

// CredentialVerifier checks an administrative credential.
type CredentialVerifier interface {
	Verify(ctx context.Context, credential string) error
}

// Observer receives operation outcomes, typically for metrics.
type Observer interface {
	ObserveAuthentication(outcome string, d time.Duration)
	ObserveAdminOperation(operation, outcome string)
	ObserveBindConflict()
}

type nopObserver struct{}

func (nopObserver) ObserveAuthentication(string, time.Duration) {}
func (nopObserver) ObserveAdminOperation(string, string)        {}
func (nopObserver) ObserveBindConflict()                        {}

// AuthRequest is one authentication call from a client.
type AuthRequest struct {
	LicenseKey    string
	HWID          string
	ClientVersion string
	ClientType    string
	RemoteAddr    string
}

// AuthResult is returned on successful authentication.
type AuthResult struct {
	LicenseKey string
	UserName   string
	ExpiresAt  time.Time
}

// IssueRequest describes a license to create.
type IssueRequest struct {
	UserName  string
	UserEmail string
	Validity  time.Duration
}

// LicenseService is stateless apart from its collaborators; concurrent calls
// are serialised per key by the store's conditional update.
type LicenseService struct {
	licenses     licenses.Repository
	journal      attempts.Repository
	verifier     CredentialVerifier
	observer     Observer
	log          logging.Logger
	storeTimeout time.Duration

	now         func() time.Time
	generateKey func() (string, error)
}

// NewLicenseService wires the service. journal and observer may be nil.
func NewLicenseService(
	repo licenses.Repository,
	journal attempts.Repository,
	verifier CredentialVerifier,
	cfg *config.Config,
	log logging.Logger,
	observer Observer,
) *LicenseService {
	if observer == nil {
		observer = nopObserver{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &LicenseService{
		licenses:     repo,
		journal:      journal,
		verifier:     verifier,
		observer:     observer,
		log:          log.With("module", "licenses"),
		storeTimeout: cfg.StoreTimeout,
		now:          time.Now,
		generateKey:  common.GenerateLicenseKey,
	}
}

// Authenticate decides whether req's bearer may run the software and, on the
// first successful use, binds the license to req.HWID.
//
// Failures are returned as errors classified by ReasonFor: InvalidKey,
// Revoked, Expired, DeviceMismatch, Timeout, StorageFailure, or
// InvalidRequest for a missing key or hwid. A failed call never modifies
// the license.
func (s *LicenseService) Authenticate(ctx context.Context, req AuthRequest) (*AuthResult, error) {
	req.LicenseKey = strings.TrimSpace(req.LicenseKey)
	req.HWID = strings.TrimSpace(req.HWID)
	if req.LicenseKey == "" || req.HWID == "" {
		return nil, fmt.Errorf("%w: license key and hwid are required", common.ErrorValidation)
	}

	start := time.Now()
	res, err := s.authenticate(ctx, req)

	outcome := models.AttemptOutcomeOK
	if err != nil {
		outcome = string(ReasonFor(err))
	}
	s.observer.ObserveAuthentication(outcome, time.Since(start))
	s.recordAttempt(ctx, req, outcome)

	if err != nil {
		s.log.Info(ctx, "authentication rejected", "license_key", req.LicenseKey, "reason", outcome, "error", err)
		return nil, err
	}
	return res, nil
}

func (s *LicenseService) authenticate(ctx context.Context, req AuthRequest) (*AuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	for round := 0; round < maxBindRounds; round++ {
		l, err := s.licenses.Get(ctx, req.LicenseKey)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, common.ErrInvalidKey
			}
			return nil, s.storeError(ctx, err)
		}

		now := s.now()
		if err := evaluate(l, req.HWID, now); err != nil {
			return nil, err
		}

		err = s.licenses.Touch(ctx, req.LicenseKey, req.HWID, now)
		if err == nil {
			return &AuthResult{LicenseKey: l.LicenseKey, UserName: l.UserName, ExpiresAt: l.ExpiresAt}, nil
		}
		if !errors.Is(err, licenses.ErrConflict) {
			return nil, s.storeError(ctx, err)
		}

		s.observer.ObserveBindConflict()
		s.log.Debug(ctx, "binding conflict, re-evaluating", "license_key", req.LicenseKey, "round", round+1)
	}

	return nil, fmt.Errorf("%w: license %s kept changing during binding", common.ErrStorageFailure, req.LicenseKey)
}

// evaluate applies the checks in precedence order: revoked, expired,
// bound to another device.
func evaluate(l *models.License, hwid string, now time.Time) error {
	switch {
	case !l.IsActive:
		return common.ErrRevoked
	case l.IsExpiredAt(now):
		return common.ErrExpired
	case l.IsBound() && *l.BoundHWID != hwid:
		return common.ErrDeviceMismatch
	}
	return nil
}

// CheckLicense is a pure read of a license record.
func (s *LicenseService) CheckLicense(ctx context.Context, key string) (*models.License, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: license key is required", common.ErrorValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	l, err := s.licenses.Get(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.storeError(ctx, err)
	}
	return l, nil
}

// IssueLicense creates an active, unbound license valid for req.Validity.
func (s *LicenseService) IssueLicense(ctx context.Context, credential string, req IssueRequest) (*models.License, error) {
	l, err := s.issue(ctx, credential, req)
	s.observeAdmin("issue", err)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "license issued", "license_key", l.LicenseKey, "user_email", l.UserEmail, "expires_at", l.ExpiresAt)
	return l, nil
}

func (s *LicenseService) issue(ctx context.Context, credential string, req IssueRequest) (*models.License, error) {
	if err := s.verifier.Verify(ctx, credential); err != nil {
		return nil, err
	}

	req.UserName = strings.TrimSpace(req.UserName)
	req.UserEmail = strings.TrimSpace(req.UserEmail)
	if req.UserName == "" || req.UserEmail == "" {
		return nil, fmt.Errorf("%w: name and email are required", common.ErrorValidation)
	}
	if req.Validity <= 0 {
		return nil, fmt.Errorf("%w: validity must be positive", common.ErrorValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		key, err := s.generateKey()
		if err != nil {
			return nil, fmt.Errorf("%w: generate key: %w", common.ErrorInternal, err)
		}

		taken, err := s.licenses.Exists(ctx, key)
		if err != nil {
			return nil, s.storeError(ctx, err)
		}
		if taken {
			continue
		}

		now := s.now()
		l := &models.License{
			LicenseKey: key,
			UserName:   req.UserName,
			UserEmail:  req.UserEmail,
			CreatedAt:  now,
			ExpiresAt:  now.Add(req.Validity),
			IsActive:   true,
		}
		err = s.licenses.Create(ctx, l)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, common.ErrorAlreadyExists) {
			return nil, s.storeError(ctx, err)
		}
	}

	return nil, fmt.Errorf("%w: no free license key after %d attempts", common.ErrStorageFailure, maxIssueAttempts)
}

// RevokeLicense deactivates key permanently. Revoking twice succeeds.
func (s *LicenseService) RevokeLicense(ctx context.Context, key, credential string) error {
	err := s.revoke(ctx, key, credential)
	s.observeAdmin("revoke", err)
	if err != nil {
		return err
	}
	s.log.Info(ctx, "license revoked", "license_key", key)
	return nil
}

func (s *LicenseService) revoke(ctx context.Context, key, credential string) error {
	if err := s.verifier.Verify(ctx, credential); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: license key is required", common.ErrorValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.licenses.Revoke(ctx, key); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return s.storeError(ctx, err)
	}
	return nil
}

// UnbindLicense clears the device binding of key so the next successful
// authentication binds it again. It returns the hwid that was bound.
func (s *LicenseService) UnbindLicense(ctx context.Context, key, credential string) (string, error) {
	previous, err := s.unbind(ctx, key, credential)
	s.observeAdmin("unbind", err)
	if err != nil {
		return "", err
	}
	s.log.Info(ctx, "license unbound", "license_key", key, "previous_hwid", previous)
	return previous, nil
}

func (s *LicenseService) unbind(ctx context.Context, key, credential string) (string, error) {
	if err := s.verifier.Verify(ctx, credential); err != nil {
		return "", err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: license key is required", common.ErrorValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	previous, err := s.licenses.Unbind(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", s.storeError(ctx, err)
	}
	return previous, nil
}

// storeError classifies a backend error as a timeout when the call's
// deadline expired, and as a storage failure otherwise.
func (s *LicenseService) storeError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", common.ErrorTimeout, err)
	}
	return fmt.Errorf("%w: %w", common.ErrStorageFailure, err)
}

func (s *LicenseService) observeAdmin(operation string, err error) {
	outcome := models.AttemptOutcomeOK
	if err != nil {
		outcome = string(ReasonFor(err))
	}
	s.observer.ObserveAdminOperation(operation, outcome)
}

// recordAttempt journals the call. It outlives the caller's deadline so
// timeouts get recorded too, and its failure never changes the result.
func (s *LicenseService) recordAttempt(ctx context.Context, req AuthRequest, outcome string) {
	if s.journal == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	err := s.journal.Record(ctx, &models.Attempt{
		LicenseKey:    req.LicenseKey,
		HWID:          req.HWID,
		ClientVersion: req.ClientVersion,
		ClientType:    req.ClientType,
		RemoteAddr:    req.RemoteAddr,
		Outcome:       outcome,
		CreatedAt:     s.now(),
	})
	if err != nil {
		s.log.Warn(ctx, "failed to journal authentication attempt", "license_key", req.LicenseKey, "error", err)
	}
}

// Package httpapi serves the JSON HTTP API: the versioned /api/v1 routes and
// the single-endpoint legacy form where an "action" field picks the operation.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/dmitrijs2005/keybind/internal/common"
	"github.com/dmitrijs2005/keybind/internal/logging"
	"github.com/dmitrijs2005/keybind/internal/server/models"
	"github.com/dmitrijs2005/keybind/internal/server/services"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// LicenseService is the binding authority as seen by the HTTP layer.
type LicenseService interface {
	Authenticate(ctx context.Context, req services.AuthRequest) (*services.AuthResult, error)
	CheckLicense(ctx context.Context, key string) (*models.License, error)
	IssueLicense(ctx context.Context, credential string, req services.IssueRequest) (*models.License, error)
	RevokeLicense(ctx context.Context, key, credential string) error
	UnbindLicense(ctx context.Context, key, credential string) (string, error)
	ListAttempts(ctx context.Context, key, credential string, limit int) ([]*models.Attempt, error)
}

// HealthCheck reports a problem with a dependency, nil when it is usable.
type HealthCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check HealthCheck
}

// AdminService exchanges the admin password for a token.
type AdminService interface {
	Login(ctx context.Context, password string) (*services.AdminToken, error)
}

// Handler implements the HTTP endpoints.
type Handler struct {
	licenses LicenseService
	admin    AdminService
	validate *validator.Validate
	log      logging.Logger
	now      func() time.Time
	checks   []namedCheck
}

func NewHandler(licenses LicenseService, admin AdminService, log logging.Logger) *Handler {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		licenses: licenses,
		admin:    admin,
		validate: v,
		log:      log.With("module", "http"),
		now:      time.Now,
	}
}

// AddHealthCheck makes GET /healthz report name as degraded while check fails.
func (h *Handler) AddHealthCheck(name string, check HealthCheck) {
	h.checks = append(h.checks, namedCheck{name: name, check: check})
}

// errorResponse is the body of every failed call.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// decode reads a JSON body into v and validates it. The Content-Type header
// is not required, older clients don't send it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return fmt.Errorf("%w: request body must be a JSON object", common.ErrorValidation)
	}
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", common.ErrorValidation, describe(verrs[0]))
		}
		return fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	default:
		return fe.Field() + " is invalid"
	}
}

// fail writes the failure body for err. Validation failures carry their own
// message; everything else gets the reason's fixed text.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, authenticate bool) {
	reason := services.ReasonFor(err)
	msg := reason.Message()
	if reason == services.ReasonInvalidRequest {
		msg = validationMessage(err)
	}
	if reason == services.ReasonStorageFailure || reason == services.ReasonTimeout {
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "reason", reason, "error", err)
	}

	render.Status(r, statusFor(reason, authenticate))
	render.JSON(w, r, errorResponse{Success: false, Error: string(reason), Message: msg})
}

// validationMessage strips the sentinel prefix from "validation error: ...".
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": ")
	if msg == "" || msg == err.Error() {
		return services.ReasonInvalidRequest.Message()
	}
	return msg
}

// statusFor maps a reason to an HTTP status. Authentication outcomes are
// answers, not transport errors, so they stay 200.
func statusFor(reason services.Reason, authenticate bool) int {
	switch reason {
	case services.ReasonInvalidKey, services.ReasonRevoked, services.ReasonExpired, services.ReasonDeviceMismatch:
		if authenticate {
			return http.StatusOK
		}
		return http.StatusUnprocessableEntity
	case services.ReasonInvalidRequest:
		return http.StatusBadRequest
	case services.ReasonUnauthorized:
		return http.StatusUnauthorized
	case services.ReasonNotFound:
		return http.StatusNotFound
	case services.ReasonTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// credential picks the admin credential: the Authorization header wins over
// the body fields.
func credential(r *http.Request, body, legacy string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if body != "" {
		return body
	}
	return legacy
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/keybind/internal/common"
	"github.com/dmitrijs2005/keybind/internal/server/models"
	"github.com/dmitrijs2005/keybind/internal/server/services"
	"github.com/go-chi/render"
)

type authenticateRequest struct {
	LicenseKey string `json:"license_key" validate:"required"`
	HWID       string `json:"hwid" validate:"required"`
	Version    string `json:"version"`
	ClientType string `json:"client_type"`
}

type authenticateResponse struct {
	Success          bool   `json:"success"`
	LicenseKey       string `json:"license_key"`
	UserName         string `json:"user_name"`
	ExpiresAt        int64  `json:"expires_at"`
	ExpiresAtEpochMs int64  `json:"expires_at_epoch_ms"`
	Message          string `json:"message"`
}

// Authenticate handles POST /api/v1/authenticate.
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req authenticateRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err, true)
		return
	}

	res, err := h.licenses.Authenticate(r.Context(), services.AuthRequest{
		LicenseKey:    req.LicenseKey,
		HWID:          req.HWID,
		ClientVersion: req.Version,
		ClientType:    req.ClientType,
		RemoteAddr:    remoteIP(r),
	})
	if err != nil {
		h.fail(w, r, err, true)
		return
	}

	ms := res.ExpiresAt.UnixMilli()
	render.JSON(w, r, authenticateResponse{
		Success:          true,
		LicenseKey:       res.LicenseKey,
		UserName:         res.UserName,
		ExpiresAt:        ms,
		ExpiresAtEpochMs: ms,
		Message:          "Authentication successful",
	})
}

type generateRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Name            string `json:"name" validate:"required"`
	ExpiryDays      *int   `json:"expiry_days" validate:"omitempty,gte=1,lte=36500"`
	AdminCredential string `json:"admin_credential"`
	AdminKey        string `json:"admin_key"`
}

type generateResponse struct {
	Success    bool      `json:"success"`
	LicenseKey string    `json:"license_key"`
	UserName   string    `json:"user_name"`
	UserEmail  string    `json:"user_email"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// GenerateLicense handles POST /api/v1/generate_license.
func (h *Handler) GenerateLicense(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err, false)
		return
	}

	days := common.DefaultExpiryDays
	if req.ExpiryDays != nil {
		days = *req.ExpiryDays
	}

	l, err := h.licenses.IssueLicense(r.Context(), credential(r, req.AdminCredential, req.AdminKey), services.IssueRequest{
		UserName:  req.Name,
		UserEmail: req.Email,
		Validity:  time.Duration(days) * 24 * time.Hour,
	})
	if err != nil {
		h.fail(w, r, err, false)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, generateResponse{
		Success:    true,
		LicenseKey: l.LicenseKey,
		UserName:   l.UserName,
		UserEmail:  l.UserEmail,
		ExpiresAt:  l.ExpiresAt.UTC(),
		CreatedAt:  l.CreatedAt.UTC(),
	})
}

type adminKeyRequest struct {
	LicenseKey      string `json:"license_key" validate:"required"`
	AdminCredential string `json:"admin_credential"`
	AdminKey        string `json:"admin_key"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RevokeLicense handles POST /api/v1/revoke_license.
func (h *Handler) RevokeLicense(w http.ResponseWriter, r *http.Request) {
	var req adminKeyRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err, false)
		return
	}

	if err := h.licenses.RevokeLicense(r.Context(), req.LicenseKey, credential(r, req.AdminCredential, req.AdminKey)); err != nil {
		h.fail(w, r, err, false)
		return
	}
	render.JSON(w, r, messageResponse{Success: true, Message: "License revoked successfully"})
}

type unbindResponse struct {
	Success      bool   `json:"success"`
	PreviousHWID string `json:"previous_hwid"`
	Message      string `json:"message"`
}

// UnbindLicense handles POST /api/v1/unbind_license.
func (h *Handler) UnbindLicense(w http.ResponseWriter, r *http.Request) {
	var req adminKeyRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err, false)
		return
	}

	previous, err := h.licenses.UnbindLicense(r.Context(), req.LicenseKey, credential(r, req.AdminCredential, req.AdminKey))
	if err != nil {
		h.fail(w, r, err, false)
		return
	}
	render.JSON(w, r, unbindResponse{Success: true, PreviousHWID: previous, Message: "License unbound successfully"})
}

type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminLogin handles POST /api/v1/admin/login.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err, false)
		return
	}

	tok, err := h.admin.Login(r.Context(), req.Password)
	if err != nil {
		h.fail(w, r, err, false)
		return
	}
	render.JSON(w, r, loginResponse{Success: true, Token: tok.Token, ExpiresAt: tok.ExpiresAt.UTC()})
}

type licenseView struct {
	LicenseKey string        `json:"license_key"`
	UserName   string        `json:"user_name"`
	UserEmail  string        `json:"user_email"`
	CreatedAt  time.Time     `json:"created_at"`
	ExpiresAt  time.Time     `json:"expires_at"`
	IsActive   bool          `json:"is_active"`
	HWID       *string       `json:"hwid"`
	FirstUsed  *time.Time    `json:"first_used"`
	LastUsed   *time.Time    `json:"last_used"`
	Status     models.Status `json:"status"`
}

type checkResponse struct {
	Success bool         `json:"success"`
	License *licenseView `json:"license"`
}

// CheckLicense handles GET /api/v1/license?license_key=.
func (h *Handler) CheckLicense(w http.ResponseWriter, r *http.Request) {
	l, err := h.licenses.CheckLicense(r.Context(), r.URL.Query().Get("license_key"))
	if err != nil {
		h.fail(w, r, err, false)
		return
	}

	render.JSON(w, r, checkResponse{Success: true, License: &licenseView{
		LicenseKey: l.LicenseKey,
		UserName:   l.UserName,
		UserEmail:  l.UserEmail,
		CreatedAt:  l.CreatedAt.UTC(),
		ExpiresAt:  l.ExpiresAt.UTC(),
		IsActive:   l.IsActive,
		HWID:       l.BoundHWID,
		FirstUsed:  l.FirstUsedAt,
		LastUsed:   l.LastUsedAt,
		Status:     l.StatusAt(h.now()),
	}})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles GET /healthz. A failing check turns the answer into 503
// "degraded".
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for _, c := range h.checks {
		if err := c.check(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Checks[c.name] = err.Error()
			continue
		}
		resp.Checks[c.name] = "ok"
	}

	if resp.Status != "ok" {
		h.log.Warn(r.Context(), "health check degraded", "checks", resp.Checks)
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, resp)
}

type attemptView struct {
	ID            string    `json:"id"`
	HWID          string    `json:"hwid"`
	ClientVersion string    `json:"version"`
	ClientType    string    `json:"client_type"`
	RemoteAddr    string    `json:"ip_address"`
	Outcome       string    `json:"outcome"`
	Success       bool      `json:"success"`
	CreatedAt     time.Time `json:"created_at"`
}

type attemptsResponse struct {
	Success    bool          `json:"success"`
	LicenseKey string        `json:"license_key"`
	Attempts   []attemptView `json:"attempts"`
}

// ListAttempts handles GET /api/v1/attempts?license_key=&limit=. The admin
// credential comes from the Authorization header or the admin_credential
// query parameter.
func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.fail(w, r, fmt.Errorf("%w: limit must be a non-negative integer", common.ErrorValidation), false)
			return
		}
		limit = n
	}

	key := q.Get("license_key")
	list, err := h.licenses.ListAttempts(r.Context(), key, credential(r, q.Get("admin_credential"), ""), limit)
	if err != nil {
		h.fail(w, r, err, false)
		return
	}

	views := make([]attemptView, 0, len(list))
	for _, a := range list {
		views = append(views, attemptView{
			ID:            a.ID,
			HWID:          a.HWID,
			ClientVersion: a.ClientVersion,
			ClientType:    a.ClientType,
			RemoteAddr:    a.RemoteAddr,
			Outcome:       a.Outcome,
			Success:       a.Outcome == models.AttemptOutcomeOK,
			CreatedAt:     a.CreatedAt.UTC(),
		})
	}
	render.JSON(w, r, attemptsResponse{Success: true, LicenseKey: key, Attempts: views})
}

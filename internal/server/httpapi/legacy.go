package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/keybind/internal/common"
)

// Dispatch handles POST / where the body's "action" field selects the
// operation, as older clients expect.
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: unreadable request body", common.ErrorValidation), false)
		return
	}

	var envelope struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.fail(w, r, fmt.Errorf("%w: Invalid JSON", common.ErrorValidation), false)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	switch envelope.Action {
	case "authenticate":
		h.Authenticate(w, r)
	case "generate_license":
		h.GenerateLicense(w, r)
	case "revoke_license":
		h.RevokeLicense(w, r)
	case "unbind_license":
		h.UnbindLicense(w, r)
	default:
		h.fail(w, r, fmt.Errorf("%w: Invalid action", common.ErrorValidation), false)
	}
}

// Package proto holds the wire messages and service descriptor of the
// keybind.v1.LicenseService gRPC API. Messages are plain structs carried by
// the "json" codec registered in this package.
package proto

type AuthenticateRequest struct {
	LicenseKey    string `json:"license_key"`
	Hwid          string `json:"hwid"`
	ClientVersion string `json:"client_version,omitempty"`
	ClientType    string `json:"client_type,omitempty"`
}

func (r *AuthenticateRequest) GetLicenseKey() string {
	if r == nil {
		return ""
	}
	return r.LicenseKey
}

// AuthenticateResponse carries either the license summary (Success) or the
// failure reason in Error.
type AuthenticateResponse struct {
	Success          bool   `json:"success"`
	LicenseKey       string `json:"license_key,omitempty"`
	UserName         string `json:"user_name,omitempty"`
	ExpiresAtEpochMs int64  `json:"expires_at_epoch_ms,omitempty"`
	Error            string `json:"error,omitempty"`
	Message          string `json:"message,omitempty"`
}

func (r *AuthenticateResponse) GetSuccess() bool {
	if r == nil {
		return false
	}
	return r.Success
}

func (r *AuthenticateResponse) GetError() string {
	if r == nil {
		return ""
	}
	return r.Error
}

// License is a license record as shown to administrators. Timestamps are
// epoch milliseconds, zero when unset.
type License struct {
	LicenseKey         string `json:"license_key"`
	UserName           string `json:"user_name"`
	UserEmail          string `json:"user_email"`
	CreatedAtEpochMs   int64  `json:"created_at_epoch_ms"`
	ExpiresAtEpochMs   int64  `json:"expires_at_epoch_ms"`
	IsActive           bool   `json:"is_active"`
	BoundHwid          string `json:"bound_hwid,omitempty"`
	FirstUsedAtEpochMs int64  `json:"first_used_at_epoch_ms,omitempty"`
	LastUsedAtEpochMs  int64  `json:"last_used_at_epoch_ms,omitempty"`
	Status             string `json:"status"`
}

type CheckLicenseRequest struct {
	LicenseKey string `json:"license_key"`
}

type CheckLicenseResponse struct {
	License *License `json:"license"`
}

func (r *CheckLicenseResponse) GetLicense() *License {
	if r == nil {
		return nil
	}
	return r.License
}

type IssueLicenseRequest struct {
	UserName   string `json:"user_name"`
	UserEmail  string `json:"user_email"`
	ExpiryDays int32  `json:"expiry_days"`
}

type IssueLicenseResponse struct {
	License *License `json:"license"`
}

func (r *IssueLicenseResponse) GetLicense() *License {
	if r == nil {
		return nil
	}
	return r.License
}

type RevokeLicenseRequest struct {
	LicenseKey string `json:"license_key"`
}

type RevokeLicenseResponse struct{}

type UnbindLicenseRequest struct {
	LicenseKey string `json:"license_key"`
}

type UnbindLicenseResponse struct {
	PreviousHwid string `json:"previous_hwid"`
}

type ListAttemptsRequest struct {
	LicenseKey string `json:"license_key"`
	Limit      int32  `json:"limit,omitempty"`
}

// Attempt is one journaled authentication call.
type Attempt struct {
	Id               string `json:"id"`
	LicenseKey       string `json:"license_key"`
	Hwid             string `json:"hwid"`
	ClientVersion    string `json:"client_version,omitempty"`
	ClientType       string `json:"client_type,omitempty"`
	RemoteAddr       string `json:"remote_addr,omitempty"`
	Outcome          string `json:"outcome"`
	CreatedAtEpochMs int64  `json:"created_at_epoch_ms"`
}

type ListAttemptsResponse struct {
	Attempts []*Attempt `json:"attempts"`
}

func (r *ListAttemptsResponse) GetAttempts() []*Attempt {
	if r == nil {
		return nil
	}
	return r.Attempts
}

type AdminLoginRequest struct {
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	Token            string `json:"token"`
	ExpiresAtEpochMs int64  `json:"expires_at_epoch_ms"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

func (r *PingResponse) GetStatus() string {
	if r == nil {
		return ""
	}
	return r.Status
}

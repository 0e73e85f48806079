package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestLicense_StatusAt(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name string
		lic  License
		want Status
	}{
		{name: "active unbound", lic: License{IsActive: true, ExpiresAt: future}, want: StatusActiveUnbound},
		{name: "active bound", lic: License{IsActive: true, ExpiresAt: future, BoundHWID: strPtr("H1")}, want: StatusActiveBound},
		{name: "empty hwid is unbound", lic: License{IsActive: true, ExpiresAt: future, BoundHWID: strPtr("")}, want: StatusActiveUnbound},
		{name: "expired", lic: License{IsActive: true, ExpiresAt: past, BoundHWID: strPtr("H1")}, want: StatusExpired},
		{name: "revoked beats expired", lic: License{IsActive: false, ExpiresAt: past}, want: StatusRevoked},
		{name: "expiring exactly now is not expired", lic: License{IsActive: true, ExpiresAt: now}, want: StatusActiveUnbound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.lic.StatusAt(now))
		})
	}
}

func TestLicense_Clone_IsDeep(t *testing.T) {
	ts := time.Now()
	orig := &License{LicenseKey: "K", BoundHWID: strPtr("H1"), FirstUsedAt: &ts, LastUsedAt: &ts}

	c := orig.Clone()
	*c.BoundHWID = "H2"
	*c.LastUsedAt = ts.Add(time.Hour)

	assert.Equal(t, "H1", *orig.BoundHWID)
	assert.True(t, orig.LastUsedAt.Equal(ts))
	assert.Nil(t, (*License)(nil).Clone())
}

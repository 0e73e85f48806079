package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Exposition(t *testing.T) {
	m := New()

	m.ObserveAuthentication("OK", 20*time.Millisecond)
	m.ObserveAuthentication("OK", 5*time.Millisecond)
	m.ObserveAuthentication("Expired", time.Millisecond)
	m.ObserveAdminOperation("issue", "OK")
	m.ObserveBindConflict()
	m.BreakerStateChanged("license-store-redis", gobreaker.StateClosed, gobreaker.StateOpen)

	out := scrape(t, m)
	assert.Contains(t, out, `keybind_auth_attempts_total{outcome="OK"} 2`)
	assert.Contains(t, out, `keybind_auth_attempts_total{outcome="Expired"} 1`)
	assert.Contains(t, out, `keybind_auth_duration_seconds_count 3`)
	assert.Contains(t, out, `keybind_admin_operations_total{operation="issue",outcome="OK"} 1`)
	assert.Contains(t, out, `keybind_bind_conflicts_total 1`)
	assert.Contains(t, out, `keybind_store_breaker_state{name="license-store-redis"} 2`)
	assert.Contains(t, out, "go_goroutines")
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveBindConflict()

	assert.Contains(t, scrape(t, a), "keybind_bind_conflicts_total 1")
	assert.Contains(t, scrape(t, b), "keybind_bind_conflicts_total 0")
}

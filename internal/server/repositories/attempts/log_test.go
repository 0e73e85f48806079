package attempts

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/keybind/internal/logging"
	"github.com/dmitrijs2005/keybind/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRepository_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	repo := NewLogRepository(logging.NewJSONLogger(&buf, "info"), 4)

	require.NoError(t, repo.Record(context.Background(), &models.Attempt{
		LicenseKey: "KEY1", HWID: "HW-A", Outcome: "Expired", CreatedAt: time.Now(),
	}))

	out := buf.String()
	assert.Contains(t, out, `"msg":"authentication attempt"`)
	assert.Contains(t, out, `"outcome":"Expired"`)
	assert.Contains(t, out, `"module":"attempts"`)
}

func TestLogRepository_RingKeepsNewest(t *testing.T) {
	repo := NewLogRepository(logging.Nop{}, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Record(ctx, &models.Attempt{LicenseKey: "KEY1", Outcome: fmt.Sprint(i)}))
	}
	require.NoError(t, repo.Record(ctx, &models.Attempt{LicenseKey: "KEY2", Outcome: "other"}))

	got, err := repo.ListByLicense(ctx, "KEY1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "4", got[0].Outcome)
	assert.Equal(t, "3", got[1].Outcome)
}

package pdf

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCommissionStatement(t *testing.T) {
	collected := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	r, err := New().GenerateCommissionStatement(context.Background(), CommissionStatement{
		CommissionID:     "1001",
		BookingID:        "2002",
		ProviderID:       "prov-1",
		Amount:           150,
		CollectionMethod: "bank_transfer",
		Status:           "completed",
		DueDate:          time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		CollectedAt:      &collected,
		Reference:        "TRX-9",
	})
	require.NoError(t, err)

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestGenerateCommissionStatementRequiresID(t *testing.T) {
	_, err := New().GenerateCommissionStatement(context.Background(), CommissionStatement{})
	assert.Error(t, err)
}

func TestNoOpProviderIsDisabled(t *testing.T) {
	_, err := (&NoOpProvider{}).GenerateCommissionStatement(context.Background(), CommissionStatement{CommissionID: "1"})
	assert.ErrorIs(t, err, ErrDisabled)
}

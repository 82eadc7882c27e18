package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCompleted, true},
		{StatusConfirmed, StatusInProgress, true},
		{StatusInProgress, StatusPendingCODCollection, false},
		{StatusPending, StatusPendingCODCollection, false},
		{StatusPendingCODCollection, StatusPendingCODCollection, true},
		{StatusPendingCODCollection, StatusCancelled, true},
		{StatusPendingCODCollection, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusConfirmed, StatusDisputed, true},
		{StatusDisputed, StatusCompleted, true},
		{StatusDisputed, StatusCancelled, true},
		{StatusDisputed, StatusInProgress, false},
		{StatusInProgress, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCompleted, StatusDisputed, false},
		{StatusCompleted, StatusCompleted, true},
		{StatusPending, Status("archived"), false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestParseStatusRejectsUnknownValue(t *testing.T) {
	_, err := ParseStatus("status", "archived")
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "status", verr.Field)
	assert.Contains(t, verr.Message, "archived")
	assert.ErrorIs(t, err, ErrInvalidInput)

	status, err := ParseStatus("status", " In_Progress ")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, status)
}

func TestValidationMessagesAreDistinct(t *testing.T) {
	_, statusErr := ParseStatus("status", "x")
	_, paymentErr := ParsePaymentStatus("x")
	ratingErr := ValidateRating(7)

	assert.NotEqual(t, statusErr.Error(), paymentErr.Error())
	assert.NotEqual(t, paymentErr.Error(), ratingErr.Error())
	assert.Contains(t, paymentErr.Error(), "payment_status")
	assert.Contains(t, ratingErr.Error(), "rating")
}

func TestValidateRatingBounds(t *testing.T) {
	assert.NoError(t, ValidateRating(0))
	assert.NoError(t, ValidateRating(5))
	assert.NoError(t, ValidateRating(3.5))
	assert.Error(t, ValidateRating(-0.1))
	assert.Error(t, ValidateRating(5.01))
}

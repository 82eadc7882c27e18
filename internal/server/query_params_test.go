package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionalNumber(t *testing.T) {
	for _, raw := range []string{"", "null", " null "} {
		got, err := parseOptionalNumber(json.RawMessage(raw))
		require.NoError(t, err)
		assert.Nil(t, got, raw)
	}

	got, err := parseOptionalNumber(json.RawMessage("4.5"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 4.5, *got, 0.0001)

	for _, raw := range []string{`"4"`, `"4.5"`, `"great"`, `true`, `[4]`} {
		_, err := parseOptionalNumber(json.RawMessage(raw))
		assert.ErrorIs(t, err, errInvalidNumber, raw)
	}
}

func TestParseOptionalAmount(t *testing.T) {
	got, err := parseOptionalAmount(json.RawMessage("1500"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1500), *got)

	got, err = parseOptionalAmount(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, raw := range []string{"999.5", `"1500"`, `{}`} {
		_, err := parseOptionalAmount(json.RawMessage(raw))
		assert.ErrorIs(t, err, errInvalidNumber, raw)
	}
}

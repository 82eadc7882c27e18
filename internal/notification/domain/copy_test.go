package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMessageByAudience(t *testing.T) {
	title, customer := StatusMessage("pending_cod_collection", AudienceCustomer)
	_, provider := StatusMessage("pending_cod_collection", AudienceProvider)

	assert.Equal(t, "Awaiting cash payment", title)
	assert.Contains(t, customer, "pay the provider in cash")
	assert.Contains(t, provider, "Collect the cash payment")
}

func TestStatusMessageFallback(t *testing.T) {
	title, msg := StatusMessage("on_hold", AudienceCustomer)
	assert.Equal(t, "Booking status updated", title)
	assert.Contains(t, msg, "on_hold")
}

package email

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderKnownTemplates(t *testing.T) {
	for _, name := range []string{"new_booking", "booking_confirmed", "booking_started", "booking_completed", "booking_cancelled"} {
		body, err := Render(name, map[string]any{"booking_id": "42"})
		require.NoError(t, err, name)
		assert.Contains(t, body, "42")
	}

	_, err := Render("missing", nil)
	assert.Error(t, err)
}

func TestCancelledTemplateIncludesReason(t *testing.T) {
	body, err := Render("booking_cancelled", map[string]any{"booking_id": "7", "reason": "customer unavailable"})
	require.NoError(t, err)
	assert.Contains(t, body, "customer unavailable")
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Your repair is complete", Subject("booking_completed", nil))
	assert.Equal(t, "custom", Subject("booking_completed", map[string]any{"subject": "custom"}))
	assert.Equal(t, "Update on your repair booking", Subject("other", nil))
}

func TestSMTPProviderDeliver(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	p := NewSMTP(Config{Host: "mail.local", Port: 2525, From: "no-reply@fixdesk.local"})
	p.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err := p.Deliver(context.Background(), Message{
		To:       []string{"c@example.com"},
		Template: "booking_started",
		Data:     map[string]any{"booking_id": "99"},
	})
	require.NoError(t, err)
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, []string{"c@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Your repair has started")
	assert.Contains(t, gotMsg, "99")

	assert.ErrorIs(t, p.Send(context.Background(), nil, "s", "b"), ErrNoRecipients)
}

func TestNoOpProviderDropsMessages(t *testing.T) {
	assert.NoError(t, (&NoOpProvider{}).Deliver(context.Background(), Message{Template: "new_booking"}))
}

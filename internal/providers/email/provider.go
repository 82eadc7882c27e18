package email

import "context"

// Message is a booking email rendered from one of the embedded templates.
type Message struct {
	To       []string
	Template string
	Data     map[string]any
}

type Provider interface {
	Deliver(ctx context.Context, msg Message) error
}

// NoOpProvider drops every message. It is used when SMTP is disabled.
type NoOpProvider struct{}

func (p *NoOpProvider) Deliver(ctx context.Context, msg Message) error {
	return nil
}

package email

import (
	"context"
	"strings"

	"github.com/smallbiznis/fixdesk/internal/notification/domain"
	emailprovider "github.com/smallbiznis/fixdesk/internal/providers/email"
	"go.uber.org/zap"
)

// Dispatcher sends booking emails through the configured provider.
type Dispatcher struct {
	provider emailprovider.Provider
	log      *zap.Logger
}

func NewDispatcher(provider emailprovider.Provider, log *zap.Logger) domain.EmailDispatcher {
	return &Dispatcher{provider: provider, log: log.Named("notification.email")}
}

func (d *Dispatcher) SendEmail(ctx context.Context, msg domain.EmailMessage) error {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return domain.ErrInvalidRecipient
	}
	if err := d.provider.Deliver(ctx, emailprovider.Message{
		To:       []string{to},
		Template: msg.Template,
		Data:     msg.Data,
	}); err != nil {
		return err
	}
	d.log.Debug("email sent", zap.String("template", msg.Template))
	return nil
}

package events

import (
	"context"

	"github.com/smallbiznis/fixdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(NewFromConfig),
)

// NewFromConfig falls back to a no-op publisher when AMQP is not configured
// or the broker is unreachable at startup.
func NewFromConfig(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Publisher {
	log = log.Named("events")
	if !cfg.AMQP.Enabled() {
		log.Info("amqp disabled, lifecycle events are dropped")
		return NewNoop()
	}

	pub, err := NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		log.Warn("amqp unavailable, lifecycle events are dropped", zap.Error(err))
		return NewNoop()
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	})
	log.Info("amqp publisher ready", zap.String("exchange", cfg.AMQP.Exchange))
	return pub
}

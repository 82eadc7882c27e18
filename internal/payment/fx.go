package payment

import (
	"github.com/smallbiznis/fixdesk/internal/payment/repository"
	"github.com/smallbiznis/fixdesk/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

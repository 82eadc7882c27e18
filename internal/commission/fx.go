package commission

import (
	"github.com/smallbiznis/fixdesk/internal/commission/repository"
	"github.com/smallbiznis/fixdesk/internal/commission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commission.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

package notification

import (
	"github.com/smallbiznis/fixdesk/internal/notification/domain"
	"github.com/smallbiznis/fixdesk/internal/notification/email"
	"github.com/smallbiznis/fixdesk/internal/notification/repository"
	"github.com/smallbiznis/fixdesk/internal/notification/service"
	emailprovider "github.com/smallbiznis/fixdesk/internal/providers/email"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	emailprovider.Module,
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(svc domain.Service) domain.Dispatcher { return svc }),
	fx.Provide(email.NewDispatcher),
)

package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fixdesk/internal/authorization"
	bookingrepository "github.com/smallbiznis/fixdesk/internal/booking/repository"
	"github.com/smallbiznis/fixdesk/internal/clock"
	"github.com/smallbiznis/fixdesk/internal/commission"
	"github.com/smallbiznis/fixdesk/internal/config"
	"github.com/smallbiznis/fixdesk/internal/lock"
	"github.com/smallbiznis/fixdesk/internal/observability"
	"github.com/smallbiznis/fixdesk/internal/payment"
	"github.com/smallbiznis/fixdesk/internal/scheduler"
	"github.com/smallbiznis/fixdesk/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,

		// The overdue job reads the ledger and flags payments; bookings are
		// only read, so the lifecycle engine is not wired.
		authorization.Module,
		fx.Provide(bookingrepository.Provide),
		payment.Module,
		commission.Module,

		// Runs the cron loop only; the HTTP API lives in apps/api.
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}

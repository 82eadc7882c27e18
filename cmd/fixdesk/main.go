package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fixdesk/internal/clock"
	"github.com/smallbiznis/fixdesk/internal/config"
	"github.com/smallbiznis/fixdesk/internal/migration"
	"github.com/smallbiznis/fixdesk/internal/observability"
	"github.com/smallbiznis/fixdesk/internal/scheduler"
	"github.com/smallbiznis/fixdesk/internal/server"
	"github.com/smallbiznis/fixdesk/pkg/db"
	"go.uber.org/fx"
)

// fixdesk runs the HTTP API and the commission scheduler in one process.
func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,

		// Bookings, payments, commissions and notifications come in through the server module.
		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}

package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fixdesk/internal/clock"
	"github.com/smallbiznis/fixdesk/internal/config"
	"github.com/smallbiznis/fixdesk/internal/observability"
	"github.com/smallbiznis/fixdesk/internal/server"
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

		// No scheduler: overdue aging runs in apps/scheduler.
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}

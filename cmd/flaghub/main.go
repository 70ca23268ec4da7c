package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/flaghub/internal/config"
	"github.com/smallbiznis/flaghub/internal/logger"
	"github.com/smallbiznis/flaghub/internal/migration"
	"github.com/smallbiznis/flaghub/internal/server"
	"github.com/smallbiznis/flaghub/pkg/db"
	"github.com/smallbiznis/flaghub/pkg/telemetry"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		telemetry.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

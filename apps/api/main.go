package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/debacu/evalgate/internal/config"
	"github.com/debacu/evalgate/internal/migration"
	"github.com/debacu/evalgate/internal/observability"
	"github.com/debacu/evalgate/internal/server"
	"github.com/debacu/evalgate/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
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

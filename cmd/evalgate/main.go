package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/debacu/evalgate/internal/config"
	"github.com/debacu/evalgate/internal/migration"
	"github.com/debacu/evalgate/internal/observability"
	"github.com/debacu/evalgate/internal/server"
	"github.com/debacu/evalgate/internal/sweeper"
	"github.com/debacu/evalgate/pkg/db"
	"go.uber.org/fx"
)

// The monolith entrypoint runs the HTTP API and the sweep loop in one
// process. Deployments that want them separated use apps/api and
// apps/sweeper instead.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,

		fx.Invoke(StartSweeper),
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

func StartSweeper(lc fx.Lifecycle, s *sweeper.Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go s.RunForever(context.Background())
			return nil
		},
	})
}

package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/debacu/evalgate/internal/clock"
	"github.com/debacu/evalgate/internal/config"
	"github.com/debacu/evalgate/internal/event"
	"github.com/debacu/evalgate/internal/migration"
	"github.com/debacu/evalgate/internal/observability"
	"github.com/debacu/evalgate/internal/plan"
	"github.com/debacu/evalgate/internal/subscription"
	"github.com/debacu/evalgate/internal/sweeper"
	"github.com/debacu/evalgate/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain services required by the sweeper
		plan.Module,
		subscription.Module,
		event.Module,
		sweeper.Module,

		// No server module
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

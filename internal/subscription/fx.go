package subscription

import (
	"github.com/debacu/evalgate/internal/subscription/repository"
	"github.com/debacu/evalgate/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

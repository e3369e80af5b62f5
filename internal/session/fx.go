package session

import (
	"github.com/debacu/evalgate/internal/session/repository"
	"github.com/debacu/evalgate/internal/session/service"
	"go.uber.org/fx"
)

var Module = fx.Module("session.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

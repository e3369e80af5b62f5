package accessrequest

import (
	"github.com/debacu/evalgate/internal/accessrequest/repository"
	"github.com/debacu/evalgate/internal/accessrequest/service"
	"go.uber.org/fx"
)

var Module = fx.Module("accessrequest.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

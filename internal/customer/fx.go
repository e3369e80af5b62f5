package customer

import (
	"github.com/debacu/evalgate/internal/customer/repository"
	"github.com/debacu/evalgate/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

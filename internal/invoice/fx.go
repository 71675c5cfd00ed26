package invoice

import (
	"github.com/smallbiznis/servicebay/internal/invoice/repository"
	"github.com/smallbiznis/servicebay/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

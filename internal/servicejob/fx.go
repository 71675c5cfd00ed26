package servicejob

import (
	"github.com/smallbiznis/servicebay/internal/servicejob/repository"
	"github.com/smallbiznis/servicebay/internal/servicejob/service"
	"go.uber.org/fx"
)

var Module = fx.Module("servicejob.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

package jobpart

import (
	"github.com/smallbiznis/servicebay/internal/jobpart/repository"
	"github.com/smallbiznis/servicebay/internal/jobpart/service"
	"go.uber.org/fx"
)

var Module = fx.Module("jobpart.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

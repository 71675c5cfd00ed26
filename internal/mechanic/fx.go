package mechanic

import (
	"github.com/smallbiznis/servicebay/internal/mechanic/domain"
	"github.com/smallbiznis/servicebay/internal/mechanic/service"
	"github.com/smallbiznis/servicebay/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("mechanic.service",
	fx.Provide(repository.ProvideStore[domain.Mechanic]),
	fx.Provide(service.New),
)

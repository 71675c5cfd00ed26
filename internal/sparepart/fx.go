package sparepart

import (
	"github.com/smallbiznis/servicebay/internal/sparepart/domain"
	"github.com/smallbiznis/servicebay/internal/sparepart/service"
	"github.com/smallbiznis/servicebay/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("sparepart.service",
	fx.Provide(repository.ProvideStore[domain.SparePart]),
	fx.Provide(service.New),
)

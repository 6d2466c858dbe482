package material

import (
	"github.com/smallbiznis/medbill/internal/lineitem/resolver"
	"github.com/smallbiznis/medbill/internal/material/domain"
	"github.com/smallbiznis/medbill/internal/material/repository"
	"github.com/smallbiznis/medbill/internal/material/service"
	"go.uber.org/fx"
)

var Module = fx.Module("material.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(
		func(s *service.Service) domain.Service { return s },
		func(s *service.Service) resolver.Catalog { return s },
	),
)

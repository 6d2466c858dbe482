package template

import (
	"github.com/smallbiznis/medbill/internal/template/domain"
	"github.com/smallbiznis/medbill/internal/template/service"
	"github.com/smallbiznis/medbill/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("template.service",
	fx.Provide(repository.ProvideStore[domain.Template]),
	fx.Provide(service.New),
)

package inquiry

import (
	"github.com/smallbiznis/medbill/internal/inquiry/domain"
	"github.com/smallbiznis/medbill/internal/inquiry/service"
	"github.com/smallbiznis/medbill/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("inquiry.service",
	fx.Provide(repository.ProvideStore[domain.Inquiry]),
	fx.Provide(service.New),
)

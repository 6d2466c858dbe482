package lineitem

import (
	"github.com/smallbiznis/medbill/internal/lineitem/draft"
	"github.com/smallbiznis/medbill/internal/lineitem/resolver"
	"github.com/smallbiznis/medbill/internal/lineitem/service"
	"go.uber.org/fx"
)

var Module = fx.Module("lineitem.service",
	fx.Provide(resolver.New),
	fx.Provide(service.New),
	fx.Provide(draft.NewStore),
)

package gateway

import (
	"go.uber.org/fx"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/gateway/adapters"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/gateway/adapters/lemonsqueezy"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/gateway/service"
)

func newRegistry(lsFactory *lemonsqueezy.Factory) *adapters.Registry {
	return adapters.NewRegistry(lsFactory)
}

var Module = fx.Module("gateway",
	fx.Provide(
		lemonsqueezy.NewFactory,
		newRegistry,
		service.New,
	),
)

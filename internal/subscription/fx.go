package subscription

import (
	"go.uber.org/fx"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/subscription/repository"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/subscription/service"
)

var Module = fx.Module("subscription",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)

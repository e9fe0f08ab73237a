package ledger

import (
	"go.uber.org/fx"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/repository"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/service"
)

var Module = fx.Module("ledger",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)

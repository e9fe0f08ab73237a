package plan

import (
	"go.uber.org/fx"

	ledgerdomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/domain"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/plan/domain"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/plan/repository"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/plan/service"
)

var Module = fx.Module("plan",
	fx.Provide(
		repository.Provide,
		service.NewService,
		func(s *service.Service) domain.Service { return s },
		func(s *service.Service) ledgerdomain.PlanResolver { return s },
	),
)

package user

import (
	"go.uber.org/fx"

	ledgerdomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/domain"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/user/domain"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/user/repository"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/user/service"
)

var Module = fx.Module("user",
	fx.Provide(
		repository.Provide,
		service.NewService,
		func(s *service.Service) domain.Service { return s },
		func(s *service.Service) ledgerdomain.UserResolver { return s },
	),
)

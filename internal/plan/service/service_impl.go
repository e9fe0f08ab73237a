package service

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/plan/domain"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func NewService(p Params) *Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("plan.service"),
		repo: p.Repo,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	return s.repo.List(ctx, s.db, true)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.SubscriptionPlan, error) {
	plan, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

func (s *Service) FindByVariantID(ctx context.Context, variantID string) (*domain.SubscriptionPlan, error) {
	variantID = strings.TrimSpace(variantID)
	if variantID == "" {
		return nil, domain.ErrPlanNotFound
	}
	plan, err := s.repo.FindByVariantID(ctx, s.db, variantID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

// ResolvePlanID satisfies the ledger's plan resolver. It prefers an explicit
// internal plan id and falls back to the provider variant id. Best effort: a
// miss returns nil, not an error.
func (s *Service) ResolvePlanID(ctx context.Context, planID string, variantID string) (*int64, error) {
	if planID = strings.TrimSpace(planID); planID != "" {
		parsed, err := strconv.ParseInt(planID, 10, 64)
		if err == nil {
			if plan, lookupErr := s.repo.FindByID(ctx, s.db, parsed); lookupErr == nil && plan != nil {
				return &plan.ID, nil
			}
			// Keep the claimed id even when the catalog row is missing so the
			// ledger link survives catalog reseeds.
			return &parsed, nil
		}
	}

	if variantID = strings.TrimSpace(variantID); variantID != "" {
		plan, err := s.repo.FindByVariantID(ctx, s.db, variantID)
		if err != nil {
			return nil, err
		}
		if plan != nil {
			return &plan.ID, nil
		}
	}
	return nil, nil
}

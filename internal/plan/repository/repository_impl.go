package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/plan/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]domain.SubscriptionPlan, error) {
	query := `SELECT id, name, slug, description, variant_id, price, currency, interval,
			features, is_active, created_at, updated_at
		 FROM subscription_plans`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY price ASC`

	var items []domain.SubscriptionPlan
	if err := db.WithContext(ctx).Raw(query).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.SubscriptionPlan, error) {
	var item domain.SubscriptionPlan
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, description, variant_id, price, currency, interval,
			features, is_active, created_at, updated_at
		 FROM subscription_plans
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByVariantID(ctx context.Context, db *gorm.DB, variantID string) (*domain.SubscriptionPlan, error) {
	var item domain.SubscriptionPlan
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, description, variant_id, price, currency, interval,
			features, is_active, created_at, updated_at
		 FROM subscription_plans
		 WHERE variant_id = ?
		 LIMIT 1`,
		variantID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/subscription/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const selectColumns = `id, external_subscription_id, user_id, plan_id, status,
	is_active, is_cancelled, starts_at, ends_at, cancelled_at, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, sub *domain.Subscription) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (
			id, external_subscription_id, user_id, plan_id, status,
			is_active, is_cancelled, starts_at, ends_at, cancelled_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (external_subscription_id) DO NOTHING`,
		sub.ID,
		sub.ExternalSubscriptionID,
		sub.UserID,
		sub.PlanID,
		sub.Status,
		sub.IsActive,
		sub.IsCancelled,
		sub.StartsAt,
		sub.EndsAt,
		sub.CancelledAt,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByExternalID(ctx context.Context, db *gorm.DB, externalSubscriptionID string) (*domain.Subscription, error) {
	var item domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+`
		 FROM subscriptions
		 WHERE external_subscription_id = ?
		 LIMIT 1`,
		externalSubscriptionID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	var item domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+`
		 FROM subscriptions
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

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Subscription, error) {
	var items []domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+`
		 FROM subscriptions
		 WHERE user_id = ?
		 ORDER BY created_at DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) HasActive(ctx context.Context, db *gorm.DB, userID int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*)
		 FROM subscriptions
		 WHERE user_id = ? AND is_active AND NOT is_cancelled`,
		userID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) Activate(ctx context.Context, db *gorm.DB, externalSubscriptionID string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET is_active = TRUE, is_cancelled = FALSE, status = ?,
			 cancelled_at = NULL, updated_at = ?
		 WHERE external_subscription_id = ?`,
		domain.StatusActive,
		at,
		externalSubscriptionID,
	).Error
}

func (r *repo) MarkCancelled(ctx context.Context, db *gorm.DB, externalSubscriptionID string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET is_active = FALSE, is_cancelled = TRUE, status = ?,
			 cancelled_at = ?, updated_at = ?
		 WHERE external_subscription_id = ?`,
		domain.StatusCancelled,
		at,
		at,
		externalSubscriptionID,
	).Error
}

func (r *repo) Deactivate(ctx context.Context, db *gorm.DB, externalSubscriptionID string, status string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET is_active = FALSE, status = ?, updated_at = ?
		 WHERE external_subscription_id = ?`,
		status,
		at,
		externalSubscriptionID,
	).Error
}

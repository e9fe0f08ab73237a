// Package domain defines the subscription plan catalog.
package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrPlanNotFound = errors.New("plan_not_found")
	ErrPlanInactive = errors.New("plan_inactive")
)

// SubscriptionPlan is a sellable plan. VariantID is the provider-side price
// identifier used at checkout and echoed back in webhook notifications.
type SubscriptionPlan struct {
	ID          int64          `gorm:"column:id;primaryKey"`
	Name        string         `gorm:"column:name"`
	Slug        string         `gorm:"column:slug"`
	Description string         `gorm:"column:description"`
	VariantID   string         `gorm:"column:variant_id"`
	Price       float64        `gorm:"column:price"`
	Currency    string         `gorm:"column:currency"`
	Interval    string         `gorm:"column:interval"`
	Features    datatypes.JSON `gorm:"column:features"`
	IsActive    bool           `gorm:"column:is_active"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

type Service interface {
	List(ctx context.Context) ([]SubscriptionPlan, error)
	GetByID(ctx context.Context, id int64) (*SubscriptionPlan, error)
	FindByVariantID(ctx context.Context, variantID string) (*SubscriptionPlan, error)
}

type Repository interface {
	List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]SubscriptionPlan, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*SubscriptionPlan, error)
	FindByVariantID(ctx context.Context, db *gorm.DB, variantID string) (*SubscriptionPlan, error)
}

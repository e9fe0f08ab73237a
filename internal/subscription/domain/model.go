// Package domain holds the local subscription state reconciled from provider
// notifications. The provider remains the source of truth; these rows are the
// queryable projection the rest of the product reads.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	gatewaydomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/gateway/domain"
	ledgerdomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/domain"
)

var (
	ErrSubscriptionNotFound    = errors.New("subscription_not_found")
	ErrActiveSubscriptionExist = errors.New("active_subscription_exists")
)

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
	StatusPaused    = "paused"
	StatusPastDue   = "past_due"
)

type Subscription struct {
	ID                     snowflake.ID `gorm:"column:id;primaryKey"`
	ExternalSubscriptionID string       `gorm:"column:external_subscription_id"`
	UserID                 int64        `gorm:"column:user_id"`
	PlanID                 *int64       `gorm:"column:plan_id"`
	Status                 string       `gorm:"column:status"`
	IsActive               bool         `gorm:"column:is_active"`
	IsCancelled            bool         `gorm:"column:is_cancelled"`
	StartsAt               time.Time    `gorm:"column:starts_at"`
	EndsAt                 *time.Time   `gorm:"column:ends_at"`
	CancelledAt            *time.Time   `gorm:"column:cancelled_at"`
	CreatedAt              time.Time    `gorm:"column:created_at"`
	UpdatedAt              time.Time    `gorm:"column:updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

type Service interface {
	// CreateCheckout validates the plan, enforces the single-active-subscription
	// rule and opens a hosted checkout at the provider.
	CreateCheckout(ctx context.Context, userID int64, planID int64, email string) (gatewaydomain.CheckoutSession, error)
	// Reconcile applies a recorded provider notification to local state.
	// Unknown event names are ignored without error.
	Reconcile(ctx context.Context, entry *ledgerdomain.PaymentLedgerEntry, eventName string) (bool, error)
	EnsureNoActive(ctx context.Context, userID int64) error
	GetByID(ctx context.Context, id snowflake.ID) (*Subscription, error)
	ListByUser(ctx context.Context, userID int64) ([]Subscription, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sub *Subscription) (bool, error)
	FindByExternalID(ctx context.Context, db *gorm.DB, externalSubscriptionID string) (*Subscription, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID int64) ([]Subscription, error)
	HasActive(ctx context.Context, db *gorm.DB, userID int64) (bool, error)
	Activate(ctx context.Context, db *gorm.DB, externalSubscriptionID string, at time.Time) error
	MarkCancelled(ctx context.Context, db *gorm.DB, externalSubscriptionID string, at time.Time) error
	Deactivate(ctx context.Context, db *gorm.DB, externalSubscriptionID string, status string, at time.Time) error
}

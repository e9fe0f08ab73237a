package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrMalformedNotification = errors.New("malformed_notification")
	ErrEntryNotFound         = errors.New("ledger_entry_not_found")
)

// Service records provider notifications idempotently and tracks their
// processing lifecycle.
type Service interface {
	RecordNotification(ctx context.Context, rawPayload []byte) (*PaymentLedgerEntry, error)
	FindByExternalID(ctx context.Context, externalPaymentID string) (*PaymentLedgerEntry, error)
	MarkProcessed(ctx context.Context, id snowflake.ID) error
	MarkFailed(ctx context.Context, id snowflake.ID, reason string) error
	CanRetry(entry *PaymentLedgerEntry) bool
	ListRetryable(ctx context.Context, limit int) ([]PaymentLedgerEntry, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *PaymentLedgerEntry) (bool, error)
	FindByExternalID(ctx context.Context, db *gorm.DB, externalPaymentID string) (*PaymentLedgerEntry, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error
	MarkFailed(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, at time.Time) error
	ListRetryable(ctx context.Context, db *gorm.DB, maxRetries int, limit int) ([]PaymentLedgerEntry, error)
}

// UserResolver is the read-only view of the user catalog the ledger needs.
// Resolution is best effort: a missing user never fails a recording.
type UserResolver interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
}

// PlanResolver maps either an internal plan id or a provider variant id to a
// plan. Best effort, same as UserResolver.
type PlanResolver interface {
	ResolvePlanID(ctx context.Context, planID string, variantID string) (*int64, error)
}

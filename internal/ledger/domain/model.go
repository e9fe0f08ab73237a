// Package domain holds the payment ledger model: an append-only record of
// every provider notification this service has ever seen.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
	StatusExpired   Status = "expired"
)

type PaymentType string

const (
	PaymentTypeSubscription PaymentType = "subscription"
	PaymentTypeOneTime      PaymentType = "one_time"
	PaymentTypeRefund       PaymentType = "refund"
)

// PaymentLedgerEntry is one recorded provider notification. Entries are never
// deleted; reprocessing updates status fields only.
type PaymentLedgerEntry struct {
	ID                snowflake.ID   `gorm:"column:id;primaryKey"`
	ExternalPaymentID string         `gorm:"column:external_payment_id"`
	EventName         string         `gorm:"column:event_name"`
	Status            Status         `gorm:"column:status"`
	PaymentType       PaymentType    `gorm:"column:payment_type"`
	Amount            float64        `gorm:"column:amount"`
	Currency          string         `gorm:"column:currency"`
	UserID            *int64         `gorm:"column:user_id"`
	PlanID            *int64         `gorm:"column:plan_id"`
	CustomerEmail     string         `gorm:"column:customer_email"`
	IsTestMode        bool           `gorm:"column:is_test_mode"`
	RawPayload        datatypes.JSON `gorm:"column:raw_payload"`
	Metadata          datatypes.JSON `gorm:"column:metadata"`
	ProcessingError   *string        `gorm:"column:processing_error"`
	RetryCount        int            `gorm:"column:retry_count"`
	LastRetryAt       *time.Time     `gorm:"column:last_retry_at"`
	ProcessedAt       *time.Time     `gorm:"column:processed_at"`
	CreatedAt         time.Time      `gorm:"column:created_at"`
	UpdatedAt         time.Time      `gorm:"column:updated_at"`
}

func (PaymentLedgerEntry) TableName() string {
	return "payment_ledger_entries"
}

package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Insert writes the entry unless another delivery of the same notification
// won the race. Returns true when this call created the row.
func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.PaymentLedgerEntry) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO payment_ledger_entries (
			id, external_payment_id, event_name, status, payment_type,
			amount, currency, user_id, plan_id, customer_email, is_test_mode,
			raw_payload, metadata, processing_error, retry_count,
			last_retry_at, processed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (external_payment_id) DO NOTHING`,
		entry.ID,
		entry.ExternalPaymentID,
		entry.EventName,
		entry.Status,
		entry.PaymentType,
		entry.Amount,
		entry.Currency,
		entry.UserID,
		entry.PlanID,
		entry.CustomerEmail,
		entry.IsTestMode,
		entry.RawPayload,
		entry.Metadata,
		entry.ProcessingError,
		entry.RetryCount,
		entry.LastRetryAt,
		entry.ProcessedAt,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByExternalID(ctx context.Context, db *gorm.DB, externalPaymentID string) (*domain.PaymentLedgerEntry, error) {
	var item domain.PaymentLedgerEntry
	err := db.WithContext(ctx).Raw(
		`SELECT id, external_payment_id, event_name, status, payment_type,
			amount, currency, user_id, plan_id, customer_email, is_test_mode,
			raw_payload, metadata, processing_error, retry_count,
			last_retry_at, processed_at, created_at, updated_at
		 FROM payment_ledger_entries
		 WHERE external_payment_id = ?
		 LIMIT 1`,
		externalPaymentID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_ledger_entries
		 SET processed_at = ?, updated_at = ?
		 WHERE id = ?`,
		processedAt,
		processedAt,
		id,
	).Error
}

func (r *repo) MarkFailed(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_ledger_entries
		 SET status = ?, processing_error = ?, retry_count = retry_count + 1,
			 last_retry_at = ?, updated_at = ?
		 WHERE id = ?`,
		domain.StatusFailed,
		reason,
		at,
		at,
		id,
	).Error
}

func (r *repo) ListRetryable(ctx context.Context, db *gorm.DB, maxRetries int, limit int) ([]domain.PaymentLedgerEntry, error) {
	var items []domain.PaymentLedgerEntry
	err := db.WithContext(ctx).Raw(
		`SELECT id, external_payment_id, event_name, status, payment_type,
			amount, currency, user_id, plan_id, customer_email, is_test_mode,
			raw_payload, metadata, processing_error, retry_count,
			last_retry_at, processed_at, created_at, updated_at
		 FROM payment_ledger_entries
		 WHERE status = ? AND retry_count < ?
		 ORDER BY created_at ASC
		 LIMIT ?`,
		domain.StatusFailed,
		maxRetries,
		limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/clock"
	ledgerdomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/domain"
	ledgerrepo "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/repository"
	ledgerservice "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/service"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE payment_ledger_entries (
			id BIGINT PRIMARY KEY,
			external_payment_id TEXT NOT NULL,
			event_name TEXT NOT NULL,
			status TEXT NOT NULL,
			payment_type TEXT NOT NULL,
			amount REAL NOT NULL DEFAULT 0,
			currency TEXT NOT NULL,
			user_id BIGINT,
			plan_id BIGINT,
			customer_email TEXT,
			is_test_mode BOOLEAN NOT NULL DEFAULT FALSE,
			raw_payload TEXT NOT NULL,
			metadata TEXT,
			processing_error TEXT,
			retry_count INT NOT NULL DEFAULT 0,
			last_retry_at DATETIME,
			processed_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_payment_ledger_entries_external_id ON payment_ledger_entries(external_payment_id)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newLedgerService(t *testing.T, db *gorm.DB) ledgerdomain.Service {
	t.Helper()

	node, err := snowflake.NewNode(20)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return ledgerservice.NewService(ledgerservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)),
		Repo:  ledgerrepo.Provide(),
	})
}

func TestRecordNotificationIdempotent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newLedgerService(t, db)

	payload := []byte(`{
		"meta": {"event_name": "subscription_payment_success"},
		"data": {"id": "pay_100", "attributes": {"status": "paid", "total": 3499, "currency": "usd", "user_email": "jane@example.com", "custom_data": {"user_id": "42", "plan_id": "7"}}}
	}`)

	first, err := svc.RecordNotification(ctx, payload)
	if err != nil {
		t.Fatalf("record first: %v", err)
	}
	second, err := svc.RecordNotification(ctx, payload)
	if err != nil {
		t.Fatalf("record second: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same entry on replay, got %d and %d", first.ID, second.ID)
	}

	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM payment_ledger_entries").Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}

	if first.Status != ledgerdomain.StatusSuccess {
		t.Fatalf("expected status success, got %s", first.Status)
	}
	if first.PaymentType != ledgerdomain.PaymentTypeSubscription {
		t.Fatalf("expected subscription payment type, got %s", first.PaymentType)
	}
	if first.Amount != 34.99 {
		t.Fatalf("expected amount 34.99, got %v", first.Amount)
	}
	if first.Currency != "USD" {
		t.Fatalf("expected currency USD, got %s", first.Currency)
	}
	if first.UserID == nil || *first.UserID != 42 {
		t.Fatalf("expected user 42, got %v", first.UserID)
	}
	if first.PlanID == nil || *first.PlanID != 7 {
		t.Fatalf("expected plan 7, got %v", first.PlanID)
	}
	if first.CustomerEmail != "jane@example.com" {
		t.Fatalf("unexpected customer email %q", first.CustomerEmail)
	}

	var meta map[string]string
	if err := json.Unmarshal(first.Metadata, &meta); err != nil {
		t.Fatalf("unmarshal metadata: %v", err)
	}
	if meta["user_id"] != "42" || meta["plan_id"] != "7" {
		t.Fatalf("expected extracted custom data in metadata, got %v", meta)
	}
}

func TestRecordNotificationMalformed(t *testing.T) {
	ctx := context.Background()
	svc := newLedgerService(t, setupTestDB(t))

	cases := []string{
		`not json`,
		`{"meta": {"event_name": "order_created"}, "data": {}}`,
		`{"meta": {}, "data": {"id": "pay_1"}}`,
	}
	for _, payload := range cases {
		if _, err := svc.RecordNotification(ctx, []byte(payload)); err != ledgerdomain.ErrMalformedNotification {
			t.Fatalf("payload %q: expected ErrMalformedNotification, got %v", payload, err)
		}
	}
}

func TestRecordNotificationUnknownStatus(t *testing.T) {
	ctx := context.Background()
	svc := newLedgerService(t, setupTestDB(t))

	payload := []byte(`{
		"meta": {"event_name": "order_created"},
		"data": {"id": "pay_200", "attributes": {"status": "frobnicated", "subtotal": 999}}
	}`)

	entry, err := svc.RecordNotification(ctx, payload)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if entry.Status != ledgerdomain.StatusPending {
		t.Fatalf("expected pending for unknown status, got %s", entry.Status)
	}
	if entry.PaymentType != ledgerdomain.PaymentTypeOneTime {
		t.Fatalf("expected one_time, got %s", entry.PaymentType)
	}
	if entry.Amount != 9.99 {
		t.Fatalf("expected amount 9.99 from subtotal, got %v", entry.Amount)
	}
}

func TestRecordNotificationRefundType(t *testing.T) {
	ctx := context.Background()
	svc := newLedgerService(t, setupTestDB(t))

	payload := []byte(`{
		"meta": {"event_name": "order_refunded"},
		"data": {"id": "pay_300", "attributes": {"status": "refunded", "total": 1500}}
	}`)

	entry, err := svc.RecordNotification(ctx, payload)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if entry.PaymentType != ledgerdomain.PaymentTypeRefund {
		t.Fatalf("expected refund type, got %s", entry.PaymentType)
	}
	if entry.Status != ledgerdomain.StatusRefunded {
		t.Fatalf("expected refunded status, got %s", entry.Status)
	}
}

func TestCustomDataProbeOrder(t *testing.T) {
	ctx := context.Background()
	svc := newLedgerService(t, setupTestDB(t))

	// checkout_data.custom comes before meta.custom_data in the probe order.
	payload := []byte(`{
		"meta": {"event_name": "subscription_created", "custom_data": {"user_id": "99"}},
		"data": {"id": "pay_400", "attributes": {"status": "active", "checkout_data": {"custom": {"user_id": "42"}}}}
	}`)

	entry, err := svc.RecordNotification(ctx, payload)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if entry.UserID == nil || *entry.UserID != 42 {
		t.Fatalf("expected user 42 from checkout_data.custom, got %v", entry.UserID)
	}
}

func TestCustomDataStringifiedBlob(t *testing.T) {
	ctx := context.Background()
	svc := newLedgerService(t, setupTestDB(t))

	payload := []byte(`{
		"meta": {"event_name": "subscription_created"},
		"data": {"id": "pay_500", "attributes": {"status": "active", "custom": "{\"user_id\": \"77\"}"}}
	}`)

	entry, err := svc.RecordNotification(ctx, payload)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if entry.UserID == nil || *entry.UserID != 77 {
		t.Fatalf("expected user 77 from stringified custom, got %v", entry.UserID)
	}
}

func TestMarkFailedAndRetry(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newLedgerService(t, db)

	payload := []byte(`{
		"meta": {"event_name": "subscription_created"},
		"data": {"id": "pay_600", "attributes": {"status": "active"}}
	}`)
	entry, err := svc.RecordNotification(ctx, payload)
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := svc.MarkFailed(ctx, entry.ID, "downstream unavailable"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	stored, err := svc.FindByExternalID(ctx, "pay_600")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Status != ledgerdomain.StatusFailed {
		t.Fatalf("expected failed, got %s", stored.Status)
	}
	if stored.RetryCount != 1 {
		t.Fatalf("expected retry_count 1, got %d", stored.RetryCount)
	}
	if stored.ProcessingError == nil || *stored.ProcessingError != "downstream unavailable" {
		t.Fatalf("unexpected processing error %v", stored.ProcessingError)
	}
	if !svc.CanRetry(stored) {
		t.Fatal("expected entry to be retryable")
	}

	stored.RetryCount = 5
	if svc.CanRetry(stored) {
		t.Fatal("expected retry cap to apply")
	}

	retryable, err := svc.ListRetryable(ctx, 10)
	if err != nil {
		t.Fatalf("list retryable: %v", err)
	}
	if len(retryable) != 1 {
		t.Fatalf("expected 1 retryable entry, got %d", len(retryable))
	}

	if err := svc.MarkProcessed(ctx, entry.ID); err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	stored, err = svc.FindByExternalID(ctx, "pay_600")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.ProcessedAt == nil {
		t.Fatal("expected processed_at to be set")
	}
}

func TestCustomDataPathsOrder(t *testing.T) {
	want := []string{
		"data.attributes.custom_data",
		"data.attributes.checkout_data.custom",
		"data.attributes.checkout_data.custom_data",
		"meta.custom_data",
		"data.attributes.subscription.custom_data",
		"data.attributes.order.custom_data",
		"data.attributes.custom",
	}
	if len(ledgerservice.CustomDataPaths) != len(want) {
		t.Fatalf("expected %d probe paths, got %d", len(want), len(ledgerservice.CustomDataPaths))
	}
	for i, path := range want {
		if ledgerservice.CustomDataPaths[i] != path {
			t.Fatalf("probe path %d: expected %s, got %s", i, path, ledgerservice.CustomDataPaths[i])
		}
	}
}

package webhook_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/clock"
	gatewaydomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/gateway/domain"
	ledgerdomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/domain"
	ledgerrepo "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/repository"
	ledgerservice "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/service"
	planrepo "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/plan/repository"
	planservice "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/plan/service"
	subrepo "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/subscription/repository"
	subservice "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/subscription/service"
	userrepo "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/user/repository"
	userservice "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/user/service"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/webhook"
)

type verifyingGateway struct {
	valid bool
}

func (g *verifyingGateway) CreateCheckout(ctx context.Context, req gatewaydomain.CheckoutRequest) (gatewaydomain.CheckoutSession, error) {
	return gatewaydomain.CheckoutSession{}, gatewaydomain.ErrProviderUnavailable
}

func (g *verifyingGateway) GetSubscription(ctx context.Context, subscriptionID string) (gatewaydomain.SubscriptionInfo, error) {
	return gatewaydomain.SubscriptionInfo{}, gatewaydomain.ErrSubscriptionNotFound
}

func (g *verifyingGateway) CancelSubscription(ctx context.Context, req gatewaydomain.CancelRequest) (gatewaydomain.CancellationResult, error) {
	return gatewaydomain.CancellationResult{}, gatewaydomain.ErrSubscriptionNotFound
}

func (g *verifyingGateway) CreateCustomerPortal(ctx context.Context, customerID string, returnURL string) (gatewaydomain.PortalSession, error) {
	return gatewaydomain.PortalSession{}, gatewaydomain.ErrSubscriptionNotFound
}

func (g *verifyingGateway) GetCustomerSubscriptions(ctx context.Context, customerID string) ([]gatewaydomain.SubscriptionInfo, error) {
	return nil, nil
}

func (g *verifyingGateway) VerifyWebhookSignature(signature string, rawBody []byte) bool {
	return g.valid
}

func (g *verifyingGateway) ProviderName() string {
	return "stub"
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE users (
			id BIGINT PRIMARY KEY,
			email TEXT NOT NULL,
			full_name TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE subscription_plans (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL,
			description TEXT,
			variant_id TEXT NOT NULL,
			price REAL NOT NULL,
			currency TEXT NOT NULL,
			interval TEXT NOT NULL,
			features TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE subscriptions (
			id BIGINT PRIMARY KEY,
			external_subscription_id TEXT NOT NULL,
			user_id BIGINT NOT NULL,
			plan_id BIGINT,
			status TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			is_cancelled BOOLEAN NOT NULL DEFAULT FALSE,
			starts_at DATETIME NOT NULL,
			ends_at DATETIME,
			cancelled_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_subscriptions_external_id ON subscriptions(external_subscription_id)`,
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

func seedUserAndPlan(t *testing.T, db *gorm.DB) {
	t.Helper()
	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO users (id, email, full_name, created_at, updated_at) VALUES (42, 'jane@example.com', 'Jane', ?, ?)`,
		now, now,
	).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := db.Exec(
		`INSERT INTO subscription_plans (id, name, slug, description, variant_id, price, currency, interval, is_active, created_at, updated_at)
		 VALUES (7, 'Pro', 'pro', '', '99001', 34.99, 'USD', 'month', TRUE, ?, ?)`,
		now, now,
	).Error; err != nil {
		t.Fatalf("seed plan: %v", err)
	}
}

func newWebhookService(t *testing.T, db *gorm.DB, gw gatewaydomain.Service) (webhook.Service, ledgerdomain.Service) {
	t.Helper()

	node, err := snowflake.NewNode(40)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	fakeClock := clock.NewFakeClock(time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC))

	planSvc := planservice.NewService(planservice.Params{DB: db, Log: zap.NewNop(), Repo: planrepo.Provide()})
	userSvc := userservice.NewService(userservice.Params{DB: db, Log: zap.NewNop(), Repo: userrepo.Provide()})

	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fakeClock,
		Repo:  ledgerrepo.Provide(),
		Users: userSvc,
		Plans: planSvc,
	})
	subSvc := subservice.NewService(subservice.Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fakeClock,
		Repo:    subrepo.Provide(),
		Plans:   planSvc,
		Users:   userSvc,
		Gateway: gw,
	})

	return webhook.NewService(webhook.Params{
		Log:           zap.NewNop(),
		Gateway:       gw,
		Ledger:        ledgerSvc,
		Subscriptions: subSvc,
	}), ledgerSvc
}

func subscriptionPayload(externalID string) []byte {
	return []byte(fmt.Sprintf(`{
		"meta": {"event_name": "subscription_payment_success"},
		"data": {"id": "%s", "attributes": {"status": "paid", "total": 3499, "currency": "usd", "user_email": "jane@example.com", "custom_data": {"user_id": "42", "plan_id": "7"}}}
	}`, externalID))
}

func TestProcessAcceptsVerifiedDelivery(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	seedUserAndPlan(t, db)
	svc, ledgerSvc := newWebhookService(t, db, &verifyingGateway{valid: true})

	result, err := svc.Process(ctx, subscriptionPayload("sub_900"), "sig")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.ExternalPaymentID != "sub_900" {
		t.Fatalf("unexpected external id %q", result.ExternalPaymentID)
	}
	if !result.SubscriptionUpdated {
		t.Fatal("expected subscription update")
	}
	if result.AlreadyProcessed {
		t.Fatal("first delivery must not report already processed")
	}

	entry, err := ledgerSvc.FindByExternalID(ctx, "sub_900")
	if err != nil {
		t.Fatalf("find entry: %v", err)
	}
	if entry.ProcessedAt == nil {
		t.Fatal("expected processed_at to be set")
	}

	var active int64
	if err := db.Raw(`SELECT COUNT(*) FROM subscriptions WHERE user_id = 42 AND is_active AND NOT is_cancelled`).Scan(&active).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if active != 1 {
		t.Fatalf("expected 1 active subscription, got %d", active)
	}
}

func TestProcessRejectsInvalidSignature(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	seedUserAndPlan(t, db)
	svc, ledgerSvc := newWebhookService(t, db, &verifyingGateway{valid: false})

	_, err := svc.Process(ctx, subscriptionPayload("sub_910"), "bad")
	if !errors.Is(err, webhook.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	// The delivery is still in the ledger, marked failed.
	entry, err := ledgerSvc.FindByExternalID(ctx, "sub_910")
	if err != nil {
		t.Fatalf("find entry: %v", err)
	}
	if entry == nil {
		t.Fatal("expected rejected delivery to be recorded")
	}
	if entry.Status != ledgerdomain.StatusFailed {
		t.Fatalf("expected failed status, got %s", entry.Status)
	}
	if entry.ProcessingError == nil || *entry.ProcessingError != "invalid signature" {
		t.Fatalf("unexpected processing error %v", entry.ProcessingError)
	}

	var subs int64
	if err := db.Raw(`SELECT COUNT(*) FROM subscriptions`).Scan(&subs).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if subs != 0 {
		t.Fatal("rejected delivery must not touch subscriptions")
	}
}

func TestProcessReplayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	seedUserAndPlan(t, db)
	svc, _ := newWebhookService(t, db, &verifyingGateway{valid: true})

	if _, err := svc.Process(ctx, subscriptionPayload("sub_920"), "sig"); err != nil {
		t.Fatalf("first process: %v", err)
	}
	result, err := svc.Process(ctx, subscriptionPayload("sub_920"), "sig")
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if !result.AlreadyProcessed {
		t.Fatal("expected replay to report already processed")
	}

	var rows int64
	if err := db.Raw(`SELECT COUNT(*) FROM payment_ledger_entries`).Scan(&rows).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 ledger row, got %d", rows)
	}
	if err := db.Raw(`SELECT COUNT(*) FROM subscriptions`).Scan(&rows).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 subscription row, got %d", rows)
	}
}

func TestProcessMalformedPayload(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc, _ := newWebhookService(t, db, &verifyingGateway{valid: true})

	_, err := svc.Process(ctx, []byte(`{"data": {}}`), "sig")
	if !errors.Is(err, ledgerdomain.ErrMalformedNotification) {
		t.Fatalf("expected ErrMalformedNotification, got %v", err)
	}
}

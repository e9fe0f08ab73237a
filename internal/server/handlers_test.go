package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/config"
	gatewaydomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/gateway/domain"
	ledgerdomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/domain"
	plandomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/plan/domain"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/server"
	subdomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/subscription/domain"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/webhook"
)

type stubPlans struct {
	plans map[int64]*plandomain.SubscriptionPlan
}

func (s *stubPlans) List(ctx context.Context) ([]plandomain.SubscriptionPlan, error) {
	out := make([]plandomain.SubscriptionPlan, 0, len(s.plans))
	for _, plan := range s.plans {
		out = append(out, *plan)
	}
	return out, nil
}

func (s *stubPlans) GetByID(ctx context.Context, id int64) (*plandomain.SubscriptionPlan, error) {
	plan, ok := s.plans[id]
	if !ok {
		return nil, plandomain.ErrPlanNotFound
	}
	return plan, nil
}

func (s *stubPlans) FindByVariantID(ctx context.Context, variantID string) (*plandomain.SubscriptionPlan, error) {
	return nil, plandomain.ErrPlanNotFound
}

type stubSubscriptions struct {
	checkoutErr error
	session     gatewaydomain.CheckoutSession
	subs        map[snowflake.ID]*subdomain.Subscription
}

func (s *stubSubscriptions) CreateCheckout(ctx context.Context, userID int64, planID int64, email string) (gatewaydomain.CheckoutSession, error) {
	if s.checkoutErr != nil {
		return gatewaydomain.CheckoutSession{}, s.checkoutErr
	}
	return s.session, nil
}

func (s *stubSubscriptions) Reconcile(ctx context.Context, entry *ledgerdomain.PaymentLedgerEntry, eventName string) (bool, error) {
	return false, nil
}

func (s *stubSubscriptions) EnsureNoActive(ctx context.Context, userID int64) error {
	return nil
}

func (s *stubSubscriptions) GetByID(ctx context.Context, id snowflake.ID) (*subdomain.Subscription, error) {
	sub, ok := s.subs[id]
	if !ok {
		return nil, subdomain.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *stubSubscriptions) ListByUser(ctx context.Context, userID int64) ([]subdomain.Subscription, error) {
	return nil, nil
}

type stubWebhook struct {
	result webhook.Result
	err    error
}

func (s *stubWebhook) Process(ctx context.Context, rawBody []byte, signature string) (webhook.Result, error) {
	if s.err != nil {
		return webhook.Result{}, s.err
	}
	return s.result, nil
}

func newTestServer(t *testing.T, subs subdomain.Service, hook webhook.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{HTTPAddr: ":0"}
	engine := server.NewEngine(cfg, zap.NewNop(), prometheus.NewRegistry())
	server.NewServer(server.Params{
		Gin: engine,
		Cfg: cfg,
		Log: zap.NewNop(),
		PlanSvc: &stubPlans{plans: map[int64]*plandomain.SubscriptionPlan{
			7: {ID: 7, Name: "Pro", Slug: "pro", VariantID: "99001", Price: 19.99, Currency: "USD", Interval: "month", IsActive: true},
		}},
		SubscriptionSvc: subs,
		WebhookSvc:      hook,
	})
	return engine
}

func performJSON(engine *gin.Engine, method string, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestCreateCheckoutEndpoint(t *testing.T) {
	expires := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	subs := &stubSubscriptions{session: gatewaydomain.CheckoutSession{
		CheckoutID:  "chk_1",
		CheckoutURL: "https://store.example.com/checkout/chk_1",
		Provider:    "lemonsqueezy",
		ExpiresAt:   &expires,
	}}
	engine := newTestServer(t, subs, &stubWebhook{})

	rec := performJSON(engine, http.MethodPost, "/subscriptions/checkout", gin.H{"userId": 42, "planId": 7}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "chk_1", resp["checkoutId"])
	assert.Equal(t, "https://store.example.com/checkout/chk_1", resp["checkoutUrl"])
	assert.Equal(t, "lemonsqueezy", resp["provider"])
}

func TestCreateCheckoutMissingFields(t *testing.T) {
	engine := newTestServer(t, &stubSubscriptions{}, &stubWebhook{})

	rec := performJSON(engine, http.MethodPost, "/subscriptions/checkout", gin.H{"userId": 42}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCheckoutActiveSubscriptionConflict(t *testing.T) {
	subs := &stubSubscriptions{checkoutErr: subdomain.ErrActiveSubscriptionExist}
	engine := newTestServer(t, subs, &stubWebhook{})

	rec := performJSON(engine, http.MethodPost, "/subscriptions/checkout", gin.H{"userId": 42, "planId": 7}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "active subscription")
}

func TestCreateCheckoutUnknownPlan(t *testing.T) {
	subs := &stubSubscriptions{checkoutErr: plandomain.ErrPlanNotFound}
	engine := newTestServer(t, subs, &stubWebhook{})

	rec := performJSON(engine, http.MethodPost, "/subscriptions/checkout", gin.H{"userId": 42, "planId": 999}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentConfirmationEndpoint(t *testing.T) {
	hook := &stubWebhook{result: webhook.Result{
		ExternalPaymentID:   "sub_1",
		EventName:           "subscription_created",
		SubscriptionUpdated: true,
	}}
	engine := newTestServer(t, &stubSubscriptions{}, hook)

	rec := performJSON(engine, http.MethodPost, "/subscriptions/payment-confirmation",
		gin.H{"meta": gin.H{"event_name": "subscription_created"}, "data": gin.H{"id": "sub_1"}},
		map[string]string{"x-signature": "sig"},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "sub_1")
}

func TestPaymentConfirmationInvalidSignature(t *testing.T) {
	hook := &stubWebhook{err: webhook.ErrInvalidSignature}
	engine := newTestServer(t, &stubSubscriptions{}, hook)

	rec := performJSON(engine, http.MethodPost, "/subscriptions/payment-confirmation",
		gin.H{"meta": gin.H{"event_name": "x"}, "data": gin.H{"id": "y"}},
		map[string]string{"x-signature": "bad"},
	)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "signature")
}

func TestListPlansEndpoint(t *testing.T) {
	engine := newTestServer(t, &stubSubscriptions{}, &stubWebhook{})

	rec := performJSON(engine, http.MethodGet, "/subscriptions/plans", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pro")
}

func TestGetSubscriptionNotFound(t *testing.T) {
	engine := newTestServer(t, &stubSubscriptions{}, &stubWebhook{})

	rec := performJSON(engine, http.MethodGet, "/subscriptions/subscriptions/12345", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	engine := newTestServer(t, &stubSubscriptions{}, &stubWebhook{})

	rec := performJSON(engine, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

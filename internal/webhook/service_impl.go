// Package webhook orchestrates inbound payment notifications: record first,
// verify second, reconcile third. Recording before verification keeps forged
// deliveries auditable in the ledger.
package webhook

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"

	gatewaydomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/gateway/domain"
	ledgerdomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/domain"
	obsmetrics "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/observability/metrics"
	subdomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/subscription/domain"
)

var ErrInvalidSignature = errors.New("invalid_signature")

// Result summarizes one processed delivery.
type Result struct {
	ExternalPaymentID   string                   `json:"externalPaymentId"`
	EventName           string                   `json:"eventName"`
	Status              ledgerdomain.Status      `json:"status"`
	PaymentType         ledgerdomain.PaymentType `json:"paymentType"`
	AlreadyProcessed    bool                     `json:"alreadyProcessed"`
	SubscriptionUpdated bool                     `json:"subscriptionUpdated"`
}

type Service interface {
	Process(ctx context.Context, rawBody []byte, signature string) (Result, error)
}

type Params struct {
	fx.In

	Log           *zap.Logger
	Gateway       gatewaydomain.Service
	Ledger        ledgerdomain.Service
	Subscriptions subdomain.Service
	Metrics       *obsmetrics.Metrics `optional:"true"`
}

type service struct {
	log           *zap.Logger
	gateway       gatewaydomain.Service
	ledger        ledgerdomain.Service
	subscriptions subdomain.Service
	metrics       *obsmetrics.Metrics
}

func NewService(p Params) Service {
	return &service{
		log:           p.Log.Named("webhook.service"),
		gateway:       p.Gateway,
		ledger:        p.Ledger,
		subscriptions: p.Subscriptions,
		metrics:       p.Metrics,
	}
}

func (s *service) Process(ctx context.Context, rawBody []byte, signature string) (Result, error) {
	entry, err := s.ledger.RecordNotification(ctx, rawBody)
	if err != nil {
		s.metrics.WebhookFailed("malformed")
		return Result{}, err
	}
	s.metrics.WebhookReceived(entry.EventName)

	if !s.gateway.VerifyWebhookSignature(signature, rawBody) {
		s.log.Warn("webhook signature rejected",
			zap.String("external_payment_id", entry.ExternalPaymentID),
			zap.String("event_name", entry.EventName),
		)
		if err := s.ledger.MarkFailed(ctx, entry.ID, "invalid signature"); err != nil {
			s.log.Error("mark failed", zap.Error(err))
		}
		s.metrics.WebhookFailed("invalid_signature")
		return Result{}, ErrInvalidSignature
	}

	if entry.ProcessedAt != nil {
		s.log.Info("webhook already processed",
			zap.String("external_payment_id", entry.ExternalPaymentID),
		)
		return resultFor(entry, true, false), nil
	}

	updated, err := s.subscriptions.Reconcile(ctx, entry, entry.EventName)
	if err != nil {
		if markErr := s.ledger.MarkFailed(ctx, entry.ID, err.Error()); markErr != nil {
			s.log.Error("mark failed", zap.Error(markErr))
		}
		s.metrics.WebhookFailed("reconcile")
		return Result{}, err
	}

	if err := s.ledger.MarkProcessed(ctx, entry.ID); err != nil {
		return Result{}, err
	}
	s.metrics.WebhookProcessed(entry.EventName)

	s.log.Info("webhook processed",
		zap.String("external_payment_id", entry.ExternalPaymentID),
		zap.String("event_name", entry.EventName),
		zap.Bool("subscription_updated", updated),
	)
	return resultFor(entry, false, updated), nil
}

func resultFor(entry *ledgerdomain.PaymentLedgerEntry, alreadyProcessed bool, updated bool) Result {
	return Result{
		ExternalPaymentID:   entry.ExternalPaymentID,
		EventName:           entry.EventName,
		Status:              entry.Status,
		PaymentType:         entry.PaymentType,
		AlreadyProcessed:    alreadyProcessed,
		SubscriptionUpdated: updated,
	}
}

var Module = fx.Module("webhook",
	fx.Provide(NewService),
)

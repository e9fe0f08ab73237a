package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/config"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/gateway/adapters"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/gateway/domain"
)

type Params struct {
	fx.In

	Config   config.Config
	Policy   *config.WebhookPolicyHolder
	Registry *adapters.Registry
	Logger   *zap.Logger
}

type service struct {
	provider domain.Provider
	policy   *config.WebhookPolicyHolder
	log      *zap.Logger
}

// New binds the configured provider at construction. A provider that cannot
// be resolved or configured is a startup failure.
func New(p Params) (domain.Service, error) {
	provider, err := p.Registry.NewProvider(p.Config.PaymentProvider, domain.AdapterConfig{
		APIKey:        p.Config.LemonSqueezyAPIKey,
		StoreID:       p.Config.LemonSqueezyStoreID,
		SigningSecret: p.Config.WebhookSigningSecret,
		APIBase:       p.Config.LemonSqueezyAPIBase,
		SuccessURL:    p.Config.CheckoutSuccessURL,
	})
	if err != nil {
		return nil, fmt.Errorf("bind payment provider %q: %w", p.Config.PaymentProvider, err)
	}

	log := p.Logger.Named("gateway")
	log.Info("payment provider bound", zap.String("provider", provider.ProviderName()))

	return &service{
		provider: provider,
		policy:   p.Policy,
		log:      log,
	}, nil
}

func (s *service) ProviderName() string {
	return s.provider.ProviderName()
}

func (s *service) CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutSession, error) {
	session, err := s.provider.CreateCheckout(ctx, req)
	if err != nil {
		s.log.Error("create checkout failed",
			zap.String("variant_id", req.VariantID),
			zap.Error(err),
		)
		return domain.CheckoutSession{}, wrapProviderErr(err)
	}

	s.log.Info("checkout created",
		zap.String("checkout_id", session.CheckoutID),
		zap.String("variant_id", req.VariantID),
	)
	return session, nil
}

func (s *service) GetSubscription(ctx context.Context, subscriptionID string) (domain.SubscriptionInfo, error) {
	info, err := s.provider.GetSubscription(ctx, subscriptionID)
	if err != nil {
		if !errors.Is(err, domain.ErrSubscriptionNotFound) {
			s.log.Error("get subscription failed",
				zap.String("subscription_id", subscriptionID),
				zap.Error(err),
			)
		}
		return domain.SubscriptionInfo{}, wrapProviderErr(err)
	}
	return info, nil
}

func (s *service) CancelSubscription(ctx context.Context, req domain.CancelRequest) (domain.CancellationResult, error) {
	result, err := s.provider.CancelSubscription(ctx, req)
	if err != nil {
		s.log.Error("cancel subscription failed",
			zap.String("subscription_id", req.SubscriptionID),
			zap.Error(err),
		)
		return domain.CancellationResult{}, wrapProviderErr(err)
	}

	s.log.Info("subscription cancelled at provider",
		zap.String("subscription_id", result.SubscriptionID),
		zap.String("status", result.Status),
	)
	return result, nil
}

func (s *service) CreateCustomerPortal(ctx context.Context, customerID string, returnURL string) (domain.PortalSession, error) {
	session, err := s.provider.CreateCustomerPortal(ctx, customerID, returnURL)
	if err != nil {
		s.log.Error("create customer portal failed",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		return domain.PortalSession{}, wrapProviderErr(err)
	}
	return session, nil
}

func (s *service) GetCustomerSubscriptions(ctx context.Context, customerID string) ([]domain.SubscriptionInfo, error) {
	infos, err := s.provider.GetCustomerSubscriptions(ctx, customerID)
	if err != nil {
		s.log.Error("list customer subscriptions failed",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		return nil, wrapProviderErr(err)
	}
	return infos, nil
}

// VerifyWebhookSignature delegates to the bound adapter when it can verify.
// When it cannot, the configured policy decides: fail-open accepts the
// delivery with a warning, fail-closed rejects it.
func (s *service) VerifyWebhookSignature(signature string, rawBody []byte) bool {
	verifier, ok := s.provider.(domain.SignatureVerifier)
	if !ok {
		failOpen := s.policy.Current().FailOpen
		s.log.Warn("provider cannot verify webhook signatures",
			zap.String("provider", s.provider.ProviderName()),
			zap.Bool("fail_open", failOpen),
		)
		return failOpen
	}
	return verifier.VerifyWebhookSignature(signature, rawBody)
}

// wrapProviderErr keeps sentinel errors intact so transport code can map them
// to status codes, and folds everything else into ErrProviderUnavailable.
func wrapProviderErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidVariant),
		errors.Is(err, domain.ErrInvalidCheckout),
		errors.Is(err, domain.ErrSubscriptionNotFound),
		errors.Is(err, domain.ErrProviderUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
}

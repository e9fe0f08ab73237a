package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidVariant         = errors.New("invalid_variant")
	ErrInvalidCheckout        = errors.New("invalid_checkout")
	ErrSubscriptionNotFound   = errors.New("subscription_not_found")
	ErrProviderNotFound       = errors.New("provider_not_found")
	ErrProviderNotImplemented = errors.New("provider_not_implemented")
	ErrProviderUnavailable    = errors.New("provider_unavailable")
	ErrInvalidConfig          = errors.New("invalid_provider_config")
)

// Provider is the contract every payment adapter satisfies.
type Provider interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (SubscriptionInfo, error)
	CancelSubscription(ctx context.Context, req CancelRequest) (CancellationResult, error)
	CreateCustomerPortal(ctx context.Context, customerID string, returnURL string) (PortalSession, error)
	// GetCustomerSubscriptions may legitimately return an empty slice when the
	// provider has no such capability.
	GetCustomerSubscriptions(ctx context.Context, customerID string) ([]SubscriptionInfo, error)
	ProviderName() string
}

// SignatureVerifier is an optional adapter capability. Adapters that cannot
// verify webhook authenticity simply do not implement it; the facade then
// applies the configured fail-open policy.
type SignatureVerifier interface {
	VerifyWebhookSignature(signature string, rawBody []byte) bool
}

// Factory builds a configured Provider. One factory per provider is
// registered with the adapter registry at startup.
type Factory interface {
	Provider() string
	New(cfg AdapterConfig) (Provider, error)
}

// Service is the payment facade business code calls. It hides the bound
// adapter behind uniform error handling and logging.
type Service interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (SubscriptionInfo, error)
	CancelSubscription(ctx context.Context, req CancelRequest) (CancellationResult, error)
	CreateCustomerPortal(ctx context.Context, customerID string, returnURL string) (PortalSession, error)
	GetCustomerSubscriptions(ctx context.Context, customerID string) ([]SubscriptionInfo, error)
	VerifyWebhookSignature(signature string, rawBody []byte) bool
	ProviderName() string
}

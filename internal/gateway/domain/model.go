// Package domain defines the provider-agnostic payment gateway port. Business
// code depends on these types only; concrete providers live under adapters/.
package domain

import "time"

// Provider-normalized subscription statuses. Adapters translate whatever
// vocabulary their provider speaks into these values.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusPaused    = "paused"
	SubscriptionStatusPastDue   = "past_due"
)

// CheckoutRequest describes a hosted-checkout session to create.
type CheckoutRequest struct {
	VariantID     string
	CustomerEmail string
	// CustomData is echoed back inside webhook notifications and is the only
	// reliable way to link a provider event to an internal user and plan.
	CustomData map[string]string
	SuccessURL string
}

// CheckoutSession is the result of a created checkout.
type CheckoutSession struct {
	CheckoutID  string
	CheckoutURL string
	Provider    string
	ExpiresAt   *time.Time
}

// SubscriptionInfo is the provider's view of a subscription.
type SubscriptionInfo struct {
	ID                 string
	Status             string
	PlanID             string
	CustomerID         string
	Amount             int64 // minor units
	Currency           string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	TrialEndsAt        *time.Time
}

// CancelRequest asks the provider to cancel a subscription.
type CancelRequest struct {
	SubscriptionID    string
	CancelAtPeriodEnd bool
	Reason            string
}

// CancellationResult reports the provider's post-cancel state.
type CancellationResult struct {
	SubscriptionID string
	Status         string
	CancelledAt    time.Time
	EndsAt         *time.Time
}

// PortalSession points the customer at the provider's self-service portal.
type PortalSession struct {
	PortalURL string
	ExpiresAt *time.Time
}

// AdapterConfig carries the credentials an adapter needs. Factories reject
// incomplete configs with ErrInvalidConfig.
type AdapterConfig struct {
	APIKey        string
	StoreID       string
	SigningSecret string
	APIBase       string
	SuccessURL    string
}

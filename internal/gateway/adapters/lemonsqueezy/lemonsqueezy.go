// Package lemonsqueezy implements the payment gateway port against the
// Lemon Squeezy JSON:API (https://api.lemonsqueezy.com/v1).
package lemonsqueezy

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/gateway/domain"
)

const providerName = "lemonsqueezy"

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return providerName
}

func (f *Factory) New(cfg domain.AdapterConfig) (domain.Provider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	storeID := strings.TrimSpace(cfg.StoreID)
	if apiKey == "" || storeID == "" {
		return nil, domain.ErrInvalidConfig
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if base == "" {
		base = "https://api.lemonsqueezy.com"
	}

	return &Adapter{
		apiKey:        apiKey,
		storeID:       storeID,
		signingSecret: strings.TrimSpace(cfg.SigningSecret),
		successURL:    strings.TrimSpace(cfg.SuccessURL),
		apiBase:       base,
		client:        &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type Adapter struct {
	apiKey        string
	storeID       string
	signingSecret string
	successURL    string
	apiBase       string
	client        *http.Client
}

func (a *Adapter) ProviderName() string {
	return providerName
}

// normalizeStatus maps the Lemon Squeezy subscription vocabulary into the
// internal status enum. Unknown values pass through lower-cased so callers can
// at least log them.
func normalizeStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on_trial", "active":
		return domain.SubscriptionStatusActive
	case "cancelled":
		return domain.SubscriptionStatusCancelled
	case "expired":
		return domain.SubscriptionStatusExpired
	case "past_due":
		return domain.SubscriptionStatusPastDue
	case "paused", "unpaid":
		return domain.SubscriptionStatusPaused
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

func (a *Adapter) CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutSession, error) {
	variantID := strings.TrimSpace(req.VariantID)
	if variantID == "" {
		return domain.CheckoutSession{}, domain.ErrInvalidVariant
	}

	checkoutData := map[string]any{}
	if email := strings.TrimSpace(req.CustomerEmail); email != "" {
		checkoutData["email"] = email
	}
	if len(req.CustomData) > 0 {
		custom := map[string]any{}
		for key, value := range req.CustomData {
			custom[key] = value
		}
		checkoutData["custom"] = custom
	}

	attributes := map[string]any{}
	if len(checkoutData) > 0 {
		attributes["checkout_data"] = checkoutData
	}
	redirect := strings.TrimSpace(req.SuccessURL)
	if redirect == "" {
		redirect = a.successURL
	}
	if redirect != "" {
		attributes["product_options"] = map[string]any{
			"redirect_url": redirect,
		}
	}

	body := map[string]any{
		"data": map[string]any{
			"type":       "checkouts",
			"attributes": attributes,
			"relationships": map[string]any{
				"store": map[string]any{
					"data": map[string]any{"type": "stores", "id": a.storeID},
				},
				"variant": map[string]any{
					"data": map[string]any{"type": "variants", "id": variantID},
				},
			},
		},
	}

	var resp checkoutResponse
	if err := a.doRequest(ctx, http.MethodPost, "/v1/checkouts", body, &resp); err != nil {
		return domain.CheckoutSession{}, err
	}
	if resp.Data.ID == "" || resp.Data.Attributes.URL == "" {
		return domain.CheckoutSession{}, domain.ErrInvalidCheckout
	}

	return domain.CheckoutSession{
		CheckoutID:  resp.Data.ID,
		CheckoutURL: resp.Data.Attributes.URL,
		Provider:    providerName,
		ExpiresAt:   parseTime(resp.Data.Attributes.ExpiresAt),
	}, nil
}

func (a *Adapter) GetSubscription(ctx context.Context, subscriptionID string) (domain.SubscriptionInfo, error) {
	subscriptionID = strings.TrimSpace(subscriptionID)
	if subscriptionID == "" {
		return domain.SubscriptionInfo{}, domain.ErrSubscriptionNotFound
	}

	var resp subscriptionResponse
	if err := a.doRequest(ctx, http.MethodGet, "/v1/subscriptions/"+url.PathEscape(subscriptionID), nil, &resp); err != nil {
		return domain.SubscriptionInfo{}, err
	}
	return subscriptionInfoFromData(resp.Data), nil
}

func (a *Adapter) CancelSubscription(ctx context.Context, req domain.CancelRequest) (domain.CancellationResult, error) {
	subscriptionID := strings.TrimSpace(req.SubscriptionID)
	if subscriptionID == "" {
		return domain.CancellationResult{}, domain.ErrSubscriptionNotFound
	}

	// Lemon Squeezy cancels at period end; an immediate cancel is not offered
	// through the API, so CancelAtPeriodEnd=false degrades to the same call.
	var resp subscriptionResponse
	if err := a.doRequest(ctx, http.MethodDelete, "/v1/subscriptions/"+url.PathEscape(subscriptionID), nil, &resp); err != nil {
		return domain.CancellationResult{}, err
	}

	cancelledAt := time.Now().UTC()
	return domain.CancellationResult{
		SubscriptionID: resp.Data.ID,
		Status:         normalizeStatus(resp.Data.Attributes.Status),
		CancelledAt:    cancelledAt,
		EndsAt:         parseTime(resp.Data.Attributes.EndsAt),
	}, nil
}

func (a *Adapter) CreateCustomerPortal(ctx context.Context, customerID string, returnURL string) (domain.PortalSession, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return domain.PortalSession{}, domain.ErrSubscriptionNotFound
	}

	var resp customerResponse
	if err := a.doRequest(ctx, http.MethodGet, "/v1/customers/"+url.PathEscape(customerID), nil, &resp); err != nil {
		return domain.PortalSession{}, err
	}
	portal := strings.TrimSpace(resp.Data.Attributes.URLs.CustomerPortal)
	if portal == "" {
		return domain.PortalSession{}, domain.ErrSubscriptionNotFound
	}

	// Portal links are pre-signed and expire after 24 hours.
	expires := time.Now().UTC().Add(24 * time.Hour)
	return domain.PortalSession{
		PortalURL: portal,
		ExpiresAt: &expires,
	}, nil
}

func (a *Adapter) GetCustomerSubscriptions(ctx context.Context, customerID string) ([]domain.SubscriptionInfo, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, nil
	}

	query := url.Values{}
	query.Set("filter[store_id]", a.storeID)

	var resp subscriptionListResponse
	if err := a.doRequest(ctx, http.MethodGet, "/v1/subscriptions?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.SubscriptionInfo, 0, len(resp.Data))
	for _, data := range resp.Data {
		info := subscriptionInfoFromData(data)
		if info.CustomerID == customerID {
			out = append(out, info)
		}
	}
	return out, nil
}

// VerifyWebhookSignature compares the x-signature header against the hex
// HMAC-SHA256 of the raw body under the shared signing secret.
func (a *Adapter) VerifyWebhookSignature(signature string, rawBody []byte) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" || a.signingSecret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(a.signingSecret))
	_, _ = mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected))
}

type checkoutResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			URL       string `json:"url"`
			ExpiresAt string `json:"expires_at"`
		} `json:"attributes"`
	} `json:"data"`
}

type subscriptionData struct {
	ID         string `json:"id"`
	Attributes struct {
		StoreID     json.Number `json:"store_id"`
		CustomerID  json.Number `json:"customer_id"`
		ProductID   json.Number `json:"product_id"`
		VariantID   json.Number `json:"variant_id"`
		Status      string      `json:"status"`
		Cancelled   bool        `json:"cancelled"`
		TrialEndsAt string      `json:"trial_ends_at"`
		RenewsAt    string      `json:"renews_at"`
		EndsAt      string      `json:"ends_at"`
		CreatedAt   string      `json:"created_at"`
		URLs        struct {
			CustomerPortal string `json:"customer_portal"`
		} `json:"urls"`
	} `json:"attributes"`
}

type subscriptionResponse struct {
	Data subscriptionData `json:"data"`
}

type subscriptionListResponse struct {
	Data []subscriptionData `json:"data"`
}

type customerResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			URLs struct {
				CustomerPortal string `json:"customer_portal"`
			} `json:"urls"`
		} `json:"attributes"`
	} `json:"data"`
}

type errorResponse struct {
	Errors []struct {
		Status string `json:"status"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func subscriptionInfoFromData(data subscriptionData) domain.SubscriptionInfo {
	return domain.SubscriptionInfo{
		ID:                 data.ID,
		Status:             normalizeStatus(data.Attributes.Status),
		PlanID:             data.Attributes.VariantID.String(),
		CustomerID:         data.Attributes.CustomerID.String(),
		Currency:           "USD",
		CurrentPeriodStart: parseTime(data.Attributes.CreatedAt),
		CurrentPeriodEnd:   parseTime(data.Attributes.RenewsAt),
		CancelAtPeriodEnd:  data.Attributes.Cancelled,
		TrialEndsAt:        parseTime(data.Attributes.TrialEndsAt),
	}
}

func (a *Adapter) doRequest(ctx context.Context, method string, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.apiBase+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Accept", "application/vnd.api+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/vnd.api+json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrSubscriptionNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && len(apiErr.Errors) > 0 {
			return fmt.Errorf("%w: %s %s", domain.ErrProviderUnavailable, apiErr.Errors[0].Title, apiErr.Errors[0].Detail)
		}
		return fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	utc := parsed.UTC()
	return &utc
}

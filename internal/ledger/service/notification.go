package service

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/domain"
)

// CustomDataPaths is the ordered probe for the checkout custom data inside a
// provider notification. Providers move this block around between event
// shapes, so the first path yielding a non-empty object wins. The order is
// part of the service contract: linkage keys (user_id, plan_id) are read from
// whichever location matches first.
var CustomDataPaths = []string{
	"data.attributes.custom_data",
	"data.attributes.checkout_data.custom",
	"data.attributes.checkout_data.custom_data",
	"meta.custom_data",
	"data.attributes.subscription.custom_data",
	"data.attributes.order.custom_data",
	"data.attributes.custom",
}

// providerStatusMap is the fixed translation from provider payment statuses
// to ledger statuses.
var providerStatusMap = map[string]domain.Status{
	"paid":      domain.StatusSuccess,
	"active":    domain.StatusSuccess,
	"cancelled": domain.StatusCancelled,
	"expired":   domain.StatusExpired,
	"failed":    domain.StatusFailed,
	"refunded":  domain.StatusRefunded,
	"pending":   domain.StatusPending,
}

// MapProviderStatus translates a provider status. Unknown values map to
// pending with ok=false so the caller can log them; they are never an error.
func MapProviderStatus(raw string) (domain.Status, bool) {
	status, ok := providerStatusMap[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return domain.StatusPending, false
	}
	return status, true
}

// PaymentTypeForEvent classifies a notification by its event name.
func PaymentTypeForEvent(eventName string) domain.PaymentType {
	name := strings.ToLower(eventName)
	switch {
	case strings.Contains(name, "subscription"):
		return domain.PaymentTypeSubscription
	case strings.Contains(name, "refund"):
		return domain.PaymentTypeRefund
	default:
		return domain.PaymentTypeOneTime
	}
}

// notification is the decoded view of a raw provider payload. Only the fields
// the ledger needs are pulled out; the raw bytes are stored verbatim.
type notification struct {
	externalPaymentID string
	eventName         string
	testMode          bool
	attributes        map[string]any
	payload           map[string]any
}

func parseNotification(rawPayload []byte) (*notification, error) {
	var payload map[string]any
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return nil, domain.ErrMalformedNotification
	}

	externalID := stringAt(payload, "data.id")
	eventName := stringAt(payload, "meta.event_name")
	if externalID == "" || eventName == "" {
		return nil, domain.ErrMalformedNotification
	}

	attributes, _ := lookupPath(payload, "data.attributes").(map[string]any)

	return &notification{
		externalPaymentID: externalID,
		eventName:         eventName,
		testMode:          boolAt(payload, "meta.test_mode") || boolValue(attributes["test_mode"]),
		attributes:        attributes,
		payload:           payload,
	}, nil
}

func (n *notification) providerStatus() string {
	if n.attributes == nil {
		return ""
	}
	if status, ok := n.attributes["status"].(string); ok {
		return status
	}
	return ""
}

// amount returns the payment amount in major units, rounded to two decimals.
// Providers report minor units in the first non-null of total, subtotal and
// total_usd.
func (n *notification) amount() float64 {
	for _, key := range []string{"total", "subtotal", "total_usd"} {
		if n.attributes == nil {
			break
		}
		minor, ok := numberValue(n.attributes[key])
		if !ok {
			continue
		}
		return math.Round(minor) / 100
	}
	return 0
}

func (n *notification) currency() string {
	if n.attributes != nil {
		if currency, ok := n.attributes["currency"].(string); ok && strings.TrimSpace(currency) != "" {
			return strings.ToUpper(strings.TrimSpace(currency))
		}
	}
	return "USD"
}

func (n *notification) customerEmail() string {
	if n.attributes == nil {
		return ""
	}
	for _, key := range []string{"user_email", "customer_email"} {
		if email, ok := n.attributes[key].(string); ok && strings.TrimSpace(email) != "" {
			return strings.TrimSpace(email)
		}
	}
	return ""
}

func (n *notification) variantID() string {
	if n.attributes == nil {
		return ""
	}
	if id, ok := stringish(n.attributes["variant_id"]); ok {
		return id
	}
	if item, ok := n.attributes["first_order_item"].(map[string]any); ok {
		if id, ok := stringish(item["variant_id"]); ok {
			return id
		}
	}
	return ""
}

// customData walks CustomDataPaths and returns the first non-empty object,
// normalized to string values. The last path may hold the object as a
// stringified JSON blob.
func (n *notification) customData() map[string]string {
	for _, path := range CustomDataPaths {
		value := lookupPath(n.payload, path)
		if value == nil {
			continue
		}

		var object map[string]any
		switch typed := value.(type) {
		case map[string]any:
			object = typed
		case string:
			if err := json.Unmarshal([]byte(typed), &object); err != nil {
				continue
			}
		default:
			continue
		}
		if len(object) == 0 {
			continue
		}

		out := make(map[string]string, len(object))
		for key, raw := range object {
			if s, ok := stringish(raw); ok {
				out[key] = s
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func lookupPath(payload map[string]any, path string) any {
	var current any = payload
	for _, part := range strings.Split(path, ".") {
		object, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = object[part]
		if !ok {
			return nil
		}
	}
	return current
}

func stringAt(payload map[string]any, path string) string {
	if s, ok := lookupPath(payload, path).(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func boolAt(payload map[string]any, path string) bool {
	return boolValue(lookupPath(payload, path))
}

func boolValue(value any) bool {
	b, _ := value.(bool)
	return b
}

func numberValue(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case json.Number:
		parsed, err := typed.Float64()
		return parsed, err == nil
	default:
		return 0, false
	}
}

func stringish(value any) (string, bool) {
	switch typed := value.(type) {
	case string:
		trimmed := strings.TrimSpace(typed)
		return trimmed, trimmed != ""
	case float64:
		if typed == math.Trunc(typed) {
			return strconv.FormatInt(int64(typed), 10), true
		}
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case json.Number:
		return typed.String(), true
	default:
		return "", false
	}
}

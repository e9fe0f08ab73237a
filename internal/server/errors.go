package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	gatewaydomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/gateway/domain"
	ledgerdomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/domain"
	plandomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/plan/domain"
	subdomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/subscription/domain"
	userdomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/user/domain"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/webhook"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware maps errors attached to the gin context into the
// uniform error envelope. Handlers call AbortWithError and never write error
// bodies themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case isBadRequestError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "bad_request",
			Message: badRequestMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isBadRequestError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ledgerdomain.ErrMalformedNotification),
		errors.Is(err, webhook.ErrInvalidSignature),
		errors.Is(err, subdomain.ErrActiveSubscriptionExist),
		errors.Is(err, plandomain.ErrPlanInactive),
		errors.Is(err, gatewaydomain.ErrInvalidVariant),
		errors.Is(err, gatewaydomain.ErrInvalidCheckout),
		errors.Is(err, gatewaydomain.ErrProviderNotFound):
		return true
	default:
		return false
	}
}

func badRequestMessage(err error) string {
	switch {
	case errors.Is(err, ledgerdomain.ErrMalformedNotification):
		return "malformed notification payload"
	case errors.Is(err, webhook.ErrInvalidSignature):
		return "invalid webhook signature"
	case errors.Is(err, subdomain.ErrActiveSubscriptionExist):
		return "an active subscription already exists"
	case errors.Is(err, plandomain.ErrPlanInactive):
		return "plan is not active"
	case errors.Is(err, gatewaydomain.ErrInvalidVariant):
		return "invalid plan variant"
	case errors.Is(err, gatewaydomain.ErrProviderNotFound):
		return "unknown payment provider"
	default:
		return "invalid request"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, plandomain.ErrPlanNotFound),
		errors.Is(err, subdomain.ErrSubscriptionNotFound),
		errors.Is(err, gatewaydomain.ErrSubscriptionNotFound),
		errors.Is(err, userdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

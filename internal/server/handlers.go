package server

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	subdomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/subscription/domain"
)

type createCheckoutRequest struct {
	UserID int64  `json:"userId" binding:"required"`
	PlanID int64  `json:"planId" binding:"required"`
	Email  string `json:"email"`
}

type checkoutResponse struct {
	CheckoutID  string     `json:"checkoutId"`
	CheckoutURL string     `json:"checkoutUrl"`
	Provider    string     `json:"provider"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

func (s *Server) CreateCheckout(c *gin.Context) {
	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "userId and planId are required"))
		return
	}

	session, err := s.subscriptionSvc.CreateCheckout(c.Request.Context(), req.UserID, req.PlanID, req.Email)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, checkoutResponse{
		CheckoutID:  session.CheckoutID,
		CheckoutURL: session.CheckoutURL,
		Provider:    session.Provider,
		ExpiresAt:   session.ExpiresAt,
	})
}

func (s *Server) PaymentConfirmation(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil || len(rawBody) == 0 {
		AbortWithError(c, newValidationError("body", "invalid_request", "empty request body"))
		return
	}

	result, err := s.webhookSvc.Process(c.Request.Context(), rawBody, c.GetHeader("x-signature"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) ListPlans(c *gin.Context) {
	plans, err := s.planSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (s *Server) GetPlanByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_request", "plan id must be numeric"))
		return
	}

	plan, err := s.planSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) GetSubscriptionByID(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, subdomain.ErrSubscriptionNotFound)
		return
	}

	sub, err := s.subscriptionSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (s *Server) ListUserSubscriptions(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		AbortWithError(c, newValidationError("userId", "invalid_request", "user id must be numeric"))
		return
	}

	subs, err := s.subscriptionSvc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

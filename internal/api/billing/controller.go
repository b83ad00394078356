package billing

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dataviz-jp/account-api/internal/auth"
	"github.com/dataviz-jp/account-api/internal/types"
	"github.com/dataviz-jp/account-api/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"
)

const maxWebhookBody = int64(65536)

type Controller struct {
	service *Service
}

func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// CreateCheckoutSession godoc
// @Summary Start a subscription checkout
// @Tags billing
// @Produce json
// @Success 200 {object} object
// @Failure 401 {object} types.ErrorResponse
// @Router /api/billing/create-checkout-session [post]
func (ctrl *Controller) CreateCheckoutSession(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	url, err := ctrl.service.CreateCheckoutSession(c.Request.Context(), claims.Subject, claims.Email)
	if err != nil {
		utils.Zlog.Error("Failed to create checkout session", zap.String("userId", claims.Subject), zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:     "Internal Server Error",
			Message:   "failed to create checkout session",
			Timestamp: time.Now().UTC(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// CreatePortalSession godoc
// @Summary Open the customer portal
// @Tags billing
// @Produce json
// @Success 200 {object} object
// @Failure 400 {object} types.ErrorResponse
// @Router /api/billing/create-portal-session [post]
func (ctrl *Controller) CreatePortalSession(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	url, err := ctrl.service.CreatePortalSession(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNoCustomer) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no_billing_customer"})
			return
		}
		utils.Zlog.Error("Failed to create portal session", zap.String("userId", claims.Subject), zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:     "Internal Server Error",
			Message:   "failed to create portal session",
			Timestamp: time.Now().UTC(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Webhook godoc
// @Summary Stripe webhook receiver
// @Description Verifies the signature and mirrors subscription state
// @Tags billing
// @Accept json
// @Produce json
// @Success 200 {object} object
// @Failure 400 {object} types.ErrorResponse
// @Router /api/billing/webhook [post]
func (ctrl *Controller) Webhook(c *gin.Context) {
	if ctrl.service.webhookSecret == "" {
		utils.Zlog.Error("Stripe webhook secret missing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook not configured"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		c.GetHeader("Stripe-Signature"),
		ctrl.service.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		utils.Zlog.Warn("Stripe webhook signature rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
		return
	}

	if err := ctrl.service.HandleEvent(c.Request.Context(), event); err != nil {
		if errors.Is(err, ErrBadPayload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
			return
		}
		// A 5xx makes Stripe redeliver the event later.
		utils.Zlog.Error("Failed to apply stripe event",
			zap.String("type", string(event.Type)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package billing

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the authenticated billing endpoints. The
// webhook is registered separately because Stripe calls it without a
// user token.
func RegisterRoutes(router *gin.RouterGroup, service *Service) {
	controller := NewController(service)
	router.POST("/billing/create-checkout-session", controller.CreateCheckoutSession)
	router.POST("/billing/create-portal-session", controller.CreatePortalSession)
}

// RegisterWebhook mounts the signature-verified webhook receiver.
func RegisterWebhook(router *gin.RouterGroup, service *Service) {
	controller := NewController(service)
	router.POST("/billing/webhook", controller.Webhook)
}

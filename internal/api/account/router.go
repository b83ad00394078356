package account

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the account endpoints. The service is built by
// the caller because the projects router shares it for entitlement
// checks.
func RegisterRoutes(router *gin.RouterGroup, service *Service) {
	controller := NewController(service)
	router.GET("/me", controller.Me)
	router.POST("/me/trial", controller.StartTrial)
}

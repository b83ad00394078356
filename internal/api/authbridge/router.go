package authbridge

import (
	"github.com/dataviz-jp/account-api/internal/session"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the unauthenticated bridge endpoints; callers
// hold a session but not necessarily a bearer header yet.
func RegisterRoutes(router *gin.RouterGroup, cookie session.CookieConfig, toolURLs map[string]string) {
	controller := NewController(cookie, toolURLs)
	router.POST("/auth/set-cookie", controller.SetCookie)
	router.GET("/tools", controller.Tools)
}

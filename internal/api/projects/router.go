package projects

import (
	"github.com/dataviz-jp/account-api/internal/config"
	"github.com/dataviz-jp/account-api/internal/loaders"
	"github.com/dataviz-jp/account-api/internal/storage"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the project CRUD endpoints and starts the
// storage cleanup pool. The returned Cleaner is stopped by main during
// shutdown.
func RegisterRoutes(router *gin.RouterGroup, db *loaders.PostgresClient, objects storage.ObjectStore, entitlements Entitlements, cfg *config.Config) *Cleaner {
	cleaner := NewCleaner(cfg.CleanupWorkers, cfg.CleanupQueue, objects)
	cleaner.Start()

	service := NewService(db, objects, entitlements, cleaner)
	controller := NewController(service)

	router.GET("/projects", controller.List)
	router.POST("/projects", controller.Create)
	router.GET("/projects/:id", controller.Get)
	router.DELETE("/projects/:id", controller.Delete)

	return cleaner
}

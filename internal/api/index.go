// Package api assembles the HTTP surface: middleware, public bridge
// endpoints, the Stripe webhook, and the authenticated account and
// project routes.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dataviz-jp/account-api/internal/api/account"
	"github.com/dataviz-jp/account-api/internal/api/authbridge"
	"github.com/dataviz-jp/account-api/internal/api/billing"
	"github.com/dataviz-jp/account-api/internal/api/projects"
	"github.com/dataviz-jp/account-api/internal/auth"
	"github.com/dataviz-jp/account-api/internal/config"
	"github.com/dataviz-jp/account-api/internal/loaders"
	"github.com/dataviz-jp/account-api/internal/middleware"
	"github.com/dataviz-jp/account-api/internal/session"
	"github.com/dataviz-jp/account-api/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes wires every route and middleware onto the engine and
// returns the cleanup pool so main can stop it on shutdown.
func RegisterRoutes(router *gin.Engine, db *loaders.PostgresClient, cache *loaders.RedisClient, objects storage.ObjectStore, verifier *auth.Verifier, cfg *config.Config) *projects.Cleaner {
	cookie := session.CookieConfig{Name: cfg.CookieName, Domain: cfg.CookieDomain}

	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(cfg.AllowedOrigins, cfg.ParentDomain()))
	router.Use(middleware.SessionRefresh(cookie))

	router.GET("/healthz", healthz(db, cache))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var accountCache account.Cache
	if cache != nil {
		accountCache = cache
	}
	accountService := account.NewService(db, accountCache, cfg.TrialInviteCode)
	billingService := billing.NewService(db, accountService, cfg.StripePriceID, cfg.FrontendURL, cfg.StripeWebhookSecret)

	public := router.Group("/api")
	authbridge.RegisterRoutes(public, cookie, cfg.ToolURLs)
	billing.RegisterWebhook(public, billingService)

	authed := router.Group("/api")
	authed.Use(auth.Middleware(verifier, cfg.CookieName))
	account.RegisterRoutes(authed, accountService)
	billing.RegisterRoutes(authed, billingService)
	cleaner := projects.RegisterRoutes(authed, db, objects, accountService, cfg)

	return cleaner
}

// healthz pings the backends the request path depends on.
func healthz(db *loaders.PostgresClient, cache *loaders.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

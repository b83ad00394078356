// Package middleware holds the request filters applied ahead of every
// API route: origin checks, session cookie refresh, metrics.
package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowMethods = "GET, POST, PUT, DELETE, OPTIONS, PATCH"
	allowHeaders = "Content-Type, Authorization, X-Client-Info, apikey"
)

// CORS answers preflight requests directly and stamps allow headers onto
// responses for allow-listed origins. Matching is exact against the
// configured list, plus one wildcard rule: an https origin on the parent
// domain or any of its subdomains. Non-listed origins get no Allow-Origin
// header and the browser enforces its same-origin default.
func CORS(allowedOrigins []string, parentDomain string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		ok := originAllowed(origin, allowed, parentDomain)

		if c.Request.Method == http.MethodOptions {
			if ok {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Methods", allowMethods)
			c.Header("Access-Control-Allow-Headers", allowHeaders)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		if ok {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", allowMethods)
			c.Header("Access-Control-Allow-Headers", allowHeaders)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}

		c.Next()
	}
}

func originAllowed(origin string, allowed map[string]struct{}, parentDomain string) bool {
	if origin == "" {
		return false
	}
	if _, ok := allowed[strings.TrimRight(origin, "/")]; ok {
		return true
	}
	if parentDomain == "" {
		return false
	}

	u, err := url.Parse(origin)
	if err != nil || u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	return host == parentDomain || strings.HasSuffix(host, "."+parentDomain)
}

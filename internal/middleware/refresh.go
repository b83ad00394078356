package middleware

import (
	"path"
	"strings"

	"github.com/dataviz-jp/account-api/internal/session"
	"github.com/gin-gonic/gin"
)

var staticExtensions = map[string]struct{}{
	".svg":  {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
	".ico":  {},
}

// SessionRefresh re-sets the shared session cookie on every navigation so
// its max-age keeps tracking the session lifetime and legacy-encoded
// cookies get rewritten in the current scheme. Undecodable cookies are
// left alone; they read as "no session" downstream.
func SessionRefresh(cookie session.CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isStaticAsset(c.Request.URL.Path) {
			if s := session.FromRequest(c.Request, cookie.Name); s != nil {
				session.Write(c.Writer, cookie, s)
			}
		}
		c.Next()
	}
}

func isStaticAsset(requestPath string) bool {
	ext := strings.ToLower(path.Ext(requestPath))
	_, ok := staticExtensions[ext]
	return ok
}

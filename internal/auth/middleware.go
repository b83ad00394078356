package auth

import (
	"net/http"
	"strings"

	"github.com/dataviz-jp/account-api/internal/session"
	"github.com/dataviz-jp/account-api/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Middleware enforces bearer auth and injects claims into the request
// context. Requests without an Authorization header fall back to the
// shared session cookie, so tool subdomains work without an SDK.
func Middleware(verifier *Verifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c.Request, cookieName)
		if token == "" {
			respondUnauthorized(c, "missing credentials")
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			utils.Zlog.Debug("Token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			respondUnauthorized(c, "invalid token")
			return
		}

		ctx := WithClaims(c.Request.Context(), claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := extractBearerToken(header); ok {
			return token
		}
		return ""
	}

	if s := session.FromRequest(r, cookieName); s != nil {
		return s.AccessToken
	}
	return ""
}

func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

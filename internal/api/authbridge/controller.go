// Package authbridge exposes the endpoint the tool frontends call to
// copy their auth session into the shared parent-domain cookie, plus
// the catalog of tool URLs the account page links to.
package authbridge

import (
	"encoding/json"
	"net/http"

	"github.com/dataviz-jp/account-api/internal/session"
	"github.com/dataviz-jp/account-api/internal/types"
	"github.com/gin-gonic/gin"
)

type Controller struct {
	cookie   session.CookieConfig
	toolURLs map[string]string
}

func NewController(cookie session.CookieConfig, toolURLs map[string]string) *Controller {
	return &Controller{cookie: cookie, toolURLs: toolURLs}
}

type setCookieRequest struct {
	// Session arrives either as a plain object or as an already
	// cookie-encoded string, depending on the caller's auth client.
	Session json.RawMessage `json:"session"`
}

// SetCookie godoc
// @Summary Persist a session into the shared cookie
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} object
// @Failure 400 {object} types.ErrorResponse
// @Router /api/auth/set-cookie [post]
func (ctrl *Controller) SetCookie(c *gin.Context) {
	var req setCookieRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Session) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session is required"})
		return
	}

	sess := decodeSessionPayload(req.Session)
	if sess == nil || sess.AccessToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session has no access token"})
		return
	}

	session.Write(c.Writer, ctrl.cookie, sess)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func decodeSessionPayload(raw json.RawMessage) *types.Session {
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		return session.Decode(encoded)
	}
	var sess types.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil
	}
	return &sess
}

// Tools godoc
// @Summary List the tool frontends
// @Tags auth
// @Produce json
// @Success 200 {object} object
// @Router /api/tools [get]
func (ctrl *Controller) Tools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": ctrl.toolURLs})
}

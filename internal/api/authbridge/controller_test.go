package authbridge

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dataviz-jp/account-api/internal/session"
	"github.com/dataviz-jp/account-api/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBridgeRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/api"),
		session.CookieConfig{Name: "sb-dataviz-auth-token", Domain: ".dataviz.jp"},
		map[string]string{
			"rawgraphs": "https://rawgraphs.dataviz.jp",
			"kepler-gl": "https://kepler-gl.dataviz.jp",
		})
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	return rec
}

func TestSetCookieFromSessionObject(t *testing.T) {
	router := newBridgeRouter()
	rec := postJSON(router, "/api/auth/set-cookie",
		`{"session":{"access_token":"tok-1","refresh_token":"ref-1","expires_in":3600}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2, "domain-scoped and host-scoped writes")
	assert.Equal(t, "dataviz.jp", cookies[0].Domain)
	assert.Empty(t, cookies[1].Domain)

	sess := session.Decode(cookies[0].Value)
	require.NotNil(t, sess)
	assert.Equal(t, "tok-1", sess.AccessToken)
}

func TestSetCookieFromEncodedString(t *testing.T) {
	encoded, err := session.Encode(&types.Session{AccessToken: "tok-2", ExpiresIn: 60})
	require.NoError(t, err)

	router := newBridgeRouter()
	rec := postJSON(router, "/api/auth/set-cookie", `{"session":"`+encoded+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	sess := session.Decode(cookies[0].Value)
	require.NotNil(t, sess)
	assert.Equal(t, "tok-2", sess.AccessToken)
}

func TestSetCookieRejectsBadPayloads(t *testing.T) {
	router := newBridgeRouter()
	cases := []string{
		`{}`,
		`{"session":null}`,
		`{"session":{}}`,
		`{"session":{"refresh_token":"only"}}`,
		`{"session":"garbage-not-a-session"}`,
		`not json`,
	}
	for _, body := range cases {
		rec := postJSON(router, "/api/auth/set-cookie", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
		assert.Empty(t, rec.Result().Cookies(), "no cookie on rejection, body: %s", body)
	}
}

func TestToolsListing(t *testing.T) {
	router := newBridgeRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tools", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tools":{
		"rawgraphs":"https://rawgraphs.dataviz.jp",
		"kepler-gl":"https://kepler-gl.dataviz.jp"
	}}`, rec.Body.String())
}

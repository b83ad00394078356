package account

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dataviz-jp/account-api/internal/auth"
	"github.com/dataviz-jp/account-api/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountRouter(svc *Service, userID, email string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if userID != "" {
		router.Use(func(c *gin.Context) {
			ctx := auth.WithClaims(c.Request.Context(), &auth.Claims{Subject: userID, Email: email})
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
	RegisterRoutes(router.Group("/api"), svc)
	return router
}

func TestMeEndpoint(t *testing.T) {
	store := newFakeAccountStore()
	store.subs["user-1"] = &types.Subscription{UserID: "user-1", Status: types.StatusTrialing}
	router := newAccountRouter(NewService(store, nil, ""), "user-1", "a@example.com")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"a@example.com"`)
	assert.Contains(t, rec.Body.String(), "トライアル中")
}

func TestMeEndpointUnauthenticated(t *testing.T) {
	router := newAccountRouter(NewService(newFakeAccountStore(), nil, ""), "", "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTrialEndpoint(t *testing.T) {
	store := newFakeAccountStore()
	router := newAccountRouter(NewService(store, nil, "EARLYBIRD2026"), "user-1", "a@example.com")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/me/trial", strings.NewReader(`{"invite_code":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/me/trial", strings.NewReader(`{"invite_code":"EARLYBIRD2026"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/me/trial", strings.NewReader(`{"invite_code":"EARLYBIRD2026"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

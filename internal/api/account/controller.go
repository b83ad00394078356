package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/dataviz-jp/account-api/internal/auth"
	"github.com/dataviz-jp/account-api/internal/types"
	"github.com/dataviz-jp/account-api/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Controller struct {
	service *Service
}

func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

type startTrialRequest struct {
	InviteCode string `json:"invite_code"`
}

// Me godoc
// @Summary Current user's account view
// @Description Identity, profile and subscription state in one response
// @Tags account
// @Produce json
// @Success 200 {object} types.MeResponse
// @Failure 401 {object} types.ErrorResponse
// @Router /api/me [get]
func (ctrl *Controller) Me(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	resp, err := ctrl.service.Me(c.Request.Context(), claims.Subject, claims.Email)
	if err != nil {
		utils.Zlog.Error("Failed to build account view", zap.String("userId", claims.Subject), zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:     "Internal Server Error",
			Message:   "failed to load account",
			Timestamp: time.Now().UTC(),
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StartTrial godoc
// @Summary Activate an invite-code trial
// @Tags account
// @Accept json
// @Produce json
// @Param request body startTrialRequest true "Invite code"
// @Success 200 {object} object
// @Failure 403 {object} types.ErrorResponse
// @Failure 409 {object} types.ErrorResponse
// @Router /api/me/trial [post]
func (ctrl *Controller) StartTrial(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req startTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:     "Bad Request",
			Message:   err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return
	}

	err := ctrl.service.StartTrial(c.Request.Context(), claims.Subject, req.InviteCode)
	switch {
	case errors.Is(err, ErrInvalidInviteCode):
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid_invite_code"})
	case errors.Is(err, ErrAlreadySubscribed):
		c.JSON(http.StatusConflict, gin.H{"error": "already_subscribed"})
	case err != nil:
		utils.Zlog.Error("Failed to start trial", zap.String("userId", claims.Subject), zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:     "Internal Server Error",
			Message:   "failed to start trial",
			Timestamp: time.Now().UTC(),
		})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

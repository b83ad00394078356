package projects

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

// Controller handles HTTP requests for project CRUD
type Controller struct {
	service *Service
}

func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// List godoc
// @Summary List the caller's projects
// @Description Returns project metadata for the authenticated user, newest first
// @Tags projects
// @Produce json
// @Param app query string false "Filter by tool id"
// @Success 200 {array} types.Project
// @Failure 401 {object} types.ErrorResponse
// @Failure 500 {object} types.ErrorResponse
// @Router /api/projects [get]
func (ctrl *Controller) List(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	projects, err := ctrl.service.List(c.Request.Context(), claims.Subject, c.Query("app"))
	if err != nil {
		utils.Zlog.Error("Failed to list projects", zap.String("userId", claims.Subject), zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:     "Internal Server Error",
			Message:   "failed to list projects",
			Timestamp: time.Now().UTC(),
		})
		return
	}
	c.JSON(http.StatusOK, projects)
}

// Create godoc
// @Summary Create a project
// @Tags projects
// @Accept json
// @Produce json
// @Param request body CreateProjectRequest true "Project payload"
// @Success 200 {object} CreateProjectResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 403 {object} types.ErrorResponse
// @Router /api/projects [post]
func (ctrl *Controller) Create(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:     "Bad Request",
			Message:   err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return
	}
	if err := ValidateCreateProjectRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:     "Bad Request",
			Message:   err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return
	}

	id, err := ctrl.service.Create(c.Request.Context(), claims.Subject, &req)
	if err != nil {
		if errors.Is(err, ErrNotEntitled) {
			c.JSON(http.StatusForbidden, gin.H{"error": "subscription_required"})
			return
		}
		utils.Zlog.Error("Failed to create project", zap.String("userId", claims.Subject), zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:     "Internal Server Error",
			Message:   "failed to create project",
			Timestamp: time.Now().UTC(),
		})
		return
	}
	c.JSON(http.StatusOK, CreateProjectResponse{Success: true, ID: id})
}

// Get godoc
// @Summary Fetch a project's stored document
// @Description Streams the raw JSON payload saved for the project
// @Tags projects
// @Produce json
// @Param id path string true "Project id"
// @Success 200 {object} object
// @Failure 403 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /api/projects/{id} [get]
func (ctrl *Controller) Get(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := c.Param("id")
	if err := ValidateProjectID(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	data, err := ctrl.service.Get(c.Request.Context(), claims.Subject, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotEntitled):
			c.JSON(http.StatusForbidden, gin.H{"error": "subscription_required"})
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		default:
			utils.Zlog.Error("Failed to load project",
				zap.String("userId", claims.Subject),
				zap.String("projectId", id),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, types.ErrorResponse{
				Error:     "Internal Server Error",
				Message:   "failed to load project",
				Timestamp: time.Now().UTC(),
			})
		}
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// Delete godoc
// @Summary Delete a project
// @Tags projects
// @Produce json
// @Param id path string true "Project id"
// @Success 200 {object} DeleteProjectResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /api/projects/{id} [delete]
func (ctrl *Controller) Delete(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := c.Param("id")
	if err := ValidateProjectID(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	if err := ctrl.service.Delete(c.Request.Context(), claims.Subject, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		utils.Zlog.Error("Failed to delete project",
			zap.String("userId", claims.Subject),
			zap.String("projectId", id),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:     "Internal Server Error",
			Message:   "failed to delete project",
			Timestamp: time.Now().UTC(),
		})
		return
	}
	c.JSON(http.StatusOK, DeleteProjectResponse{Success: true})
}

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/webrend/marketplace-api/internal/core"
	"github.com/webrend/marketplace-api/internal/middleware"
	"github.com/webrend/marketplace-api/internal/models"
)

// PortfolioHandler handles portfolio case-study endpoints.
type PortfolioHandler struct {
	portfolioService core.PortfolioService
	logger           *zap.Logger
}

// NewPortfolioHandler creates a PortfolioHandler.
func NewPortfolioHandler(ps core.PortfolioService, logger *zap.Logger) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: ps, logger: logger}
}

func (h *PortfolioHandler) mapPortfolioErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Portfolio project not found"})
	default:
		h.logger.Error("unexpected portfolio error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred"})
	}
}

// List handles GET /portfolio/projects (public).
func (h *PortfolioHandler) List(c *gin.Context) {
	projects, err := h.portfolioService.List(c.Request.Context())
	if err != nil {
		h.mapPortfolioErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// Get handles GET /portfolio/projects/:slug (public).
func (h *PortfolioHandler) Get(c *gin.Context) {
	project, err := h.portfolioService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.mapPortfolioErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Add handles POST /admin/portfolio/projects.
func (h *PortfolioHandler) Add(c *gin.Context) {
	var req models.AddPortfolioProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	project, err := h.portfolioService.Add(c.Request.Context(), c.GetString(middleware.CtxUserID), req)
	if err != nil {
		h.mapPortfolioErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// Update handles PUT /admin/portfolio/projects/:projectId.
func (h *PortfolioHandler) Update(c *gin.Context) {
	var req models.UpdatePortfolioProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	project, err := h.portfolioService.Update(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("projectId"), req)
	if err != nil {
		h.mapPortfolioErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Delete handles DELETE /admin/portfolio/projects/:projectId.
func (h *PortfolioHandler) Delete(c *gin.Context) {
	if err := h.portfolioService.Delete(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("projectId")); err != nil {
		h.mapPortfolioErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Portfolio project deleted"})
}

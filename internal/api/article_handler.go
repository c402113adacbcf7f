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

// ArticleHandler handles blog article endpoints.
type ArticleHandler struct {
	articleService core.ArticleService
	logger         *zap.Logger
}

// NewArticleHandler creates an ArticleHandler.
func NewArticleHandler(as core.ArticleService, logger *zap.Logger) *ArticleHandler {
	return &ArticleHandler{articleService: as, logger: logger}
}

func (h *ArticleHandler) mapArticleErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrArticleNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Article not found"})
	default:
		h.logger.Error("unexpected article error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred"})
	}
}

// List handles GET /articles (public).
func (h *ArticleHandler) List(c *gin.Context) {
	articles, err := h.articleService.List(c.Request.Context())
	if err != nil {
		h.mapArticleErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

// Get handles GET /articles/:slug (public).
func (h *ArticleHandler) Get(c *gin.Context) {
	article, err := h.articleService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.mapArticleErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Create handles POST /admin/articles.
func (h *ArticleHandler) Create(c *gin.Context) {
	var req models.CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	article, err := h.articleService.Create(c.Request.Context(), c.GetString(middleware.CtxUserID), req)
	if err != nil {
		h.mapArticleErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

// Delete handles DELETE /admin/articles/:articleId.
func (h *ArticleHandler) Delete(c *gin.Context) {
	if err := h.articleService.Delete(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("articleId")); err != nil {
		h.mapArticleErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Article deleted"})
}

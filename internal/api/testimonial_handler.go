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

// TestimonialHandler handles testimonial submission and moderation.
type TestimonialHandler struct {
	testimonialService core.TestimonialService
	logger             *zap.Logger
}

// NewTestimonialHandler creates a TestimonialHandler.
func NewTestimonialHandler(ts core.TestimonialService, logger *zap.Logger) *TestimonialHandler {
	return &TestimonialHandler{testimonialService: ts, logger: logger}
}

func (h *TestimonialHandler) mapTestimonialErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrTestimonialNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Testimonial not found"})
	case errors.Is(err, core.ErrInvalidModeration):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Moderation action must be approve or reject"})
	default:
		h.logger.Error("unexpected testimonial error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred"})
	}
}

// Submit handles POST /testimonials (public). Submissions start pending and
// are invisible until approved.
func (h *TestimonialHandler) Submit(c *gin.Context) {
	var req models.SubmitTestimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	testimonial, err := h.testimonialService.Submit(c.Request.Context(), req)
	if err != nil {
		h.mapTestimonialErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, testimonial)
}

// ListApproved handles GET /testimonials (public).
func (h *TestimonialHandler) ListApproved(c *gin.Context) {
	testimonials, err := h.testimonialService.ListApproved(c.Request.Context())
	if err != nil {
		h.mapTestimonialErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, testimonials)
}

// ListAll handles GET /admin/testimonials.
func (h *TestimonialHandler) ListAll(c *gin.Context) {
	testimonials, err := h.testimonialService.ListAll(c.Request.Context())
	if err != nil {
		h.mapTestimonialErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, testimonials)
}

// Moderate handles POST /admin/testimonials/moderate.
func (h *TestimonialHandler) Moderate(c *gin.Context) {
	var req models.ModerateTestimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.testimonialService.Moderate(c.Request.Context(), c.GetString(middleware.CtxUserID), req); err != nil {
		h.mapTestimonialErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Testimonial " + req.Action + "d"})
}

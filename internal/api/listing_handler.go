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

// ListingHandler handles marketplace listing endpoints.
type ListingHandler struct {
	listingService core.ListingService
	logger         *zap.Logger
}

// NewListingHandler creates a ListingHandler.
func NewListingHandler(ls core.ListingService, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{listingService: ls, logger: logger}
}

// mapListingErrorToStatus maps core.ListingService errors to HTTP statuses.
func (h *ListingHandler) mapListingErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrListingNotFound), errors.Is(err, core.ErrRepositoryNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "Not found", Details: err.Error()}
	case errors.Is(err, core.ErrCustomerNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "Customer profile not found", Details: "Call /users/initialize first"}
	case errors.Is(err, core.ErrNotListingSeller):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: "Only the seller may modify this listing"}
	case errors.Is(err, core.ErrSellerGithubRequired):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Link a GitHub account before creating a listing"}
	case errors.Is(err, core.ErrInvalidListing):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Invalid listing", Details: err.Error()}
	case errors.Is(err, core.ErrStripeProduct):
		statusCode = http.StatusServiceUnavailable
		errResponse = ErrorResponse{Error: "Payment provider error"}
		h.logger.Error("stripe product error", zap.Error(err))
	default:
		h.logger.Error("unexpected listing error", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred"}
	}
	c.JSON(statusCode, errResponse)
}

// List handles GET /marketplace/listings (public, active only).
func (h *ListingHandler) List(c *gin.Context) {
	listings, err := h.listingService.ListActive(c.Request.Context())
	if err != nil {
		h.mapListingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

// Get handles GET /marketplace/listings/:listingId (public).
func (h *ListingHandler) Get(c *gin.Context) {
	listing, err := h.listingService.GetByID(c.Request.Context(), c.Param("listingId"))
	if err != nil {
		h.mapListingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Create handles POST /marketplace/listings.
func (h *ListingHandler) Create(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req models.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	listing, err := h.listingService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.mapListingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// markSoldRequest is the body for a manual mark-sold by the seller.
type markSoldRequest struct {
	BuyerID string `json:"buyerId" binding:"required"`
}

// MarkSold handles POST /marketplace/listings/:listingId/mark-sold.
func (h *ListingHandler) MarkSold(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req markSoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.listingService.MarkSold(c.Request.Context(), userID, c.Param("listingId"), req.BuyerID); err != nil {
		h.mapListingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Listing marked sold"})
}

// Archive handles POST /marketplace/listings/:listingId/archive.
func (h *ListingHandler) Archive(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	if err := h.listingService.Archive(c.Request.Context(), userID, c.Param("listingId")); err != nil {
		h.mapListingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Listing archived"})
}

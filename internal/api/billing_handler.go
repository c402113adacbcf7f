package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/webrend/marketplace-api/internal/core"
	"github.com/webrend/marketplace-api/internal/middleware"
	"github.com/webrend/marketplace-api/internal/models"
)

// BillingHandler handles checkout, session verification, the customer
// portal, and the Stripe webhook endpoint.
type BillingHandler struct {
	billingService core.BillingService
	logger         *zap.Logger
}

// NewBillingHandler creates a BillingHandler.
func NewBillingHandler(bs core.BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{billingService: bs, logger: logger}
}

// mapBillingErrorToStatus maps core.BillingService errors to HTTP statuses.
func (h *BillingHandler) mapBillingErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrListingNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "Listing not found"}
	case errors.Is(err, core.ErrCustomerNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "Customer profile not found", Details: "Call /users/initialize first"}
	case errors.Is(err, core.ErrListingSold):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: "Listing has already been sold"}
	case errors.Is(err, core.ErrListingUnavailable), errors.Is(err, core.ErrListingNotPurchasable):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Listing is not available for purchase"}
	case errors.Is(err, core.ErrSessionNotPaid):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Checkout session is not paid"}
	case errors.Is(err, core.ErrSessionOwnerMismatch):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: "Checkout session belongs to another user"}
	case errors.Is(err, core.ErrStripeCustomerMissing):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "No billing account", Details: "Complete a purchase before opening the billing portal"}
	case errors.Is(err, core.ErrInvalidSignature):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Webhook signature verification failed"}
	case errors.Is(err, core.ErrStripeUpstream):
		statusCode = http.StatusServiceUnavailable
		errResponse = ErrorResponse{Error: "Payment provider error"}
		h.logger.Error("stripe upstream error", zap.Error(err))
	default:
		h.logger.Error("unexpected billing error", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred"}
	}
	c.JSON(statusCode, errResponse)
}

// CreateCheckoutSession handles POST /payments/checkout-session.
func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req models.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	result, err := h.billingService.CreateCheckoutSession(c.Request.Context(), userID, req)
	if err != nil {
		h.mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// VerifySession handles POST /payments/verify-session.
func (h *BillingHandler) VerifySession(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req models.VerifySessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	purchase, err := h.billingService.VerifySession(c.Request.Context(), userID, req.SessionID)
	if err != nil {
		h.mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

// CreatePortalSession handles POST /payments/portal-session.
func (h *BillingHandler) CreatePortalSession(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	portalURL, err := h.billingService.CreatePortalSession(c.Request.Context(), userID)
	if err != nil {
		h.mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, PortalSessionResponse{URL: portalURL})
}

// HandleStripeWebhook handles POST /payments/webhooks/stripe. The endpoint is
// public; Stripe authenticates via the Stripe-Signature header, verified in
// the billing service against the raw payload.
func (h *BillingHandler) HandleStripeWebhook(c *gin.Context) {
	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing Stripe-Signature header"})
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("failed to read webhook payload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to read webhook payload"})
		return
	}

	if err := h.billingService.ProcessWebhook(c.Request.Context(), payload, signature); err != nil {
		h.mapBillingErrorToStatus(c, err)
		return
	}

	// Stripe only needs a 2xx acknowledgement; processing outcomes live on
	// the affected documents.
	c.JSON(http.StatusOK, SuccessResponse{Message: "Webhook received"})
}

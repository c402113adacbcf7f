package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/webrend/marketplace-api/internal/config"
	"github.com/webrend/marketplace-api/internal/core"
	"github.com/webrend/marketplace-api/internal/middleware"
)

// CustomerHandler handles customer profiles, purchases, GitHub OAuth
// linkage, and Stripe Connect onboarding.
type CustomerHandler struct {
	customerService core.CustomerService
	cfg             *config.Config
	logger          *zap.Logger
}

// NewCustomerHandler creates a CustomerHandler.
func NewCustomerHandler(cs core.CustomerService, cfg *config.Config, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{customerService: cs, cfg: cfg, logger: logger}
}

// mapCustomerErrorToStatus maps core.CustomerService errors to HTTP statuses.
func (h *CustomerHandler) mapCustomerErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrCustomerNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "Customer profile not found", Details: "Call /users/initialize first"}
	case errors.Is(err, core.ErrInvalidOAuthState):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Invalid OAuth state"}
	case errors.Is(err, core.ErrGithubExchange):
		statusCode = http.StatusBadGateway
		errResponse = ErrorResponse{Error: "GitHub error", Details: "Could not complete GitHub authorization"}
		h.logger.Error("github oauth error", zap.Error(err))
	case errors.Is(err, core.ErrStripeConnect):
		statusCode = http.StatusServiceUnavailable
		errResponse = ErrorResponse{Error: "Payment provider error"}
		h.logger.Error("stripe connect error", zap.Error(err))
	case errors.Is(err, core.ErrCustomerEmailEmpty):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "An email address is required for seller onboarding"}
	default:
		h.logger.Error("unexpected customer error", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred"}
	}
	c.JSON(statusCode, errResponse)
}

// Initialize handles POST /users/initialize: get-or-create the customer
// profile from the verified token claims.
func (h *CustomerHandler) Initialize(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	customer, created, err := h.customerService.GetOrCreate(
		c.Request.Context(),
		userID,
		c.GetString(middleware.CtxUserEmail),
		c.GetString(middleware.CtxDisplayName),
		c.GetString(middleware.CtxPhotoURL),
	)
	if err != nil {
		h.mapCustomerErrorToStatus(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, customer)
}

// Me handles GET /users/me.
func (h *CustomerHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	customer, err := h.customerService.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.mapCustomerErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// MyPurchases handles GET /users/me/purchases.
func (h *CustomerHandler) MyPurchases(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	purchases, err := h.customerService.ListPurchases(c.Request.Context(), userID)
	if err != nil {
		h.mapCustomerErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, purchases)
}

// StripeAccount handles POST /users/me/stripe-account: Connect Express
// onboarding, resumable until charges are enabled.
func (h *CustomerHandler) StripeAccount(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	status, err := h.customerService.EnsureConnectAccount(c.Request.Context(), userID)
	if err != nil {
		h.mapCustomerErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GithubConnect handles GET /users/me/github/connect.
func (h *CustomerHandler) GithubConnect(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	c.JSON(http.StatusOK, GithubConnectResponse{
		AuthorizeURL: h.customerService.GithubAuthorizeURL(userID),
	})
}

// GithubCallback handles GET /github/callback: the public OAuth redirect
// target. On success the browser is sent back to the client app.
func (h *CustomerHandler) GithubCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "state and code query parameters are required"})
		return
	}

	if _, err := h.customerService.CompleteGithubLink(c.Request.Context(), state, code); err != nil {
		h.mapCustomerErrorToStatus(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.cfg.ClientURL+"/account?github=connected")
}

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

// TransferHandler handles repository transfer and access revocation.
type TransferHandler struct {
	transferService core.TransferService
	logger          *zap.Logger
}

// NewTransferHandler creates a TransferHandler.
func NewTransferHandler(ts core.TransferService, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{transferService: ts, logger: logger}
}

// mapTransferErrorToStatus maps core.TransferService errors to HTTP statuses.
func (h *TransferHandler) mapTransferErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrTransferRepoNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "Repository record not found"}
	case errors.Is(err, core.ErrTransferPartyNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "Buyer or seller profile not found"}
	case errors.Is(err, core.ErrSubscriptionNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "Subscription not found"}
	case errors.Is(err, core.ErrRevokeFailed):
		statusCode = http.StatusBadGateway
		errResponse = ErrorResponse{Error: "GitHub error", Details: "Could not revoke collaborator access"}
		h.logger.Error("github revocation error", zap.Error(err))
	default:
		h.logger.Error("unexpected transfer error", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred"}
	}
	c.JSON(statusCode, errResponse)
}

// Transfer handles POST /repos/transfer. The authenticated caller is the
// buyer; GitHub-side failures are reported in the result with the recorded
// status rather than as an HTTP error.
func (h *TransferHandler) Transfer(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req models.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	result, err := h.transferService.Execute(c.Request.Context(), userID, req)
	if err != nil {
		h.mapTransferErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RevokeAccess handles POST /repos/revoke-access.
func (h *TransferHandler) RevokeAccess(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req models.RevokeAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.transferService.RevokeAccess(c.Request.Context(), req.SubscriptionID); err != nil {
		h.mapTransferErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Access revoked"})
}

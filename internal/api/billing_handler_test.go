package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webrend/marketplace-api/internal/core"
	"github.com/webrend/marketplace-api/internal/middleware"
	"github.com/webrend/marketplace-api/internal/models"
)

type stubBillingService struct {
	webhookErr     error
	webhookPayload []byte
	webhookSig     string
	portalURL      string
	portalErr      error
	checkoutResult *core.CheckoutSessionResult
	checkoutErr    error
}

func (s *stubBillingService) CreateCheckoutSession(_ context.Context, _ string, _ models.CreateCheckoutSessionRequest) (*core.CheckoutSessionResult, error) {
	return s.checkoutResult, s.checkoutErr
}

func (s *stubBillingService) VerifySession(context.Context, string, string) (*models.Purchase, error) {
	return nil, nil
}

func (s *stubBillingService) CreatePortalSession(context.Context, string) (string, error) {
	return s.portalURL, s.portalErr
}

func (s *stubBillingService) ProcessWebhook(_ context.Context, payload []byte, signature string) error {
	s.webhookPayload = payload
	s.webhookSig = signature
	return s.webhookErr
}

func newBillingRouter(svc core.BillingService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewBillingHandler(svc, zap.NewNop())
	router := gin.New()
	if userID != "" {
		router.Use(func(c *gin.Context) { c.Set(middleware.CtxUserID, userID) })
	}
	router.POST("/payments/checkout-session", h.CreateCheckoutSession)
	router.POST("/payments/portal-session", h.CreatePortalSession)
	router.POST("/payments/webhooks/stripe", h.HandleStripeWebhook)
	return router
}

func TestStripeWebhookRequiresSignatureHeader(t *testing.T) {
	svc := &stubBillingService{}
	router := newBillingRouter(svc, "")

	req := httptest.NewRequest(http.MethodPost, "/payments/webhooks/stripe", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.webhookPayload)
}

func TestStripeWebhookAcknowledged(t *testing.T) {
	svc := &stubBillingService{}
	router := newBillingRouter(svc, "")

	req := httptest.NewRequest(http.MethodPost, "/payments/webhooks/stripe", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"id":"evt_1"}`, string(svc.webhookPayload))
	assert.Equal(t, "t=1,v1=abc", svc.webhookSig)
}

func TestStripeWebhookBadSignature(t *testing.T) {
	svc := &stubBillingService{webhookErr: core.ErrInvalidSignature}
	router := newBillingRouter(svc, "")

	req := httptest.NewRequest(http.MethodPost, "/payments/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bad")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "signature")
}

func TestCreateCheckoutSessionRequiresAuth(t *testing.T) {
	router := newBillingRouter(&stubBillingService{}, "")

	req := httptest.NewRequest(http.MethodPost, "/payments/checkout-session", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateCheckoutSessionSoldListing(t *testing.T) {
	svc := &stubBillingService{checkoutErr: core.ErrListingSold}
	router := newBillingRouter(svc, "buyer-1")

	body := `{"listingId":"listing-1"}`
	req := httptest.NewRequest(http.MethodPost, "/payments/checkout-session", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreatePortalSessionWithoutBillingAccount(t *testing.T) {
	svc := &stubBillingService{portalErr: core.ErrStripeCustomerMissing}
	router := newBillingRouter(svc, "buyer-1")

	req := httptest.NewRequest(http.MethodPost, "/payments/portal-session", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No billing account")
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webrend/marketplace-api/internal/core"
	"github.com/webrend/marketplace-api/internal/models"
)

type stubTestimonialService struct {
	approved     []*models.Testimonial
	all          []*models.Testimonial
	moderateErr  error
	lastModerate models.ModerateTestimonialRequest
}

func (s *stubTestimonialService) Submit(_ context.Context, req models.SubmitTestimonialRequest) (*models.Testimonial, error) {
	return &models.Testimonial{
		ID:      "t-1",
		Person:  req.Person,
		Comment: req.Comment,
		Status:  models.TestimonialStatusPending,
	}, nil
}

func (s *stubTestimonialService) ListApproved(context.Context) ([]*models.Testimonial, error) {
	return s.approved, nil
}

func (s *stubTestimonialService) ListAll(context.Context) ([]*models.Testimonial, error) {
	return s.all, nil
}

func (s *stubTestimonialService) Moderate(_ context.Context, _ string, req models.ModerateTestimonialRequest) error {
	s.lastModerate = req
	return s.moderateErr
}

func newTestimonialRouter(svc core.TestimonialService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTestimonialHandler(svc, zap.NewNop())
	router := gin.New()
	router.POST("/testimonials", h.Submit)
	router.GET("/testimonials", h.ListApproved)
	router.POST("/admin/testimonials/moderate", h.Moderate)
	return router
}

func TestSubmitTestimonialReturnsPending(t *testing.T) {
	router := newTestimonialRouter(&stubTestimonialService{})

	body := `{"person":"Jane Doe","comment":"Great repo, saved us weeks"}`
	req := httptest.NewRequest(http.MethodPost, "/testimonials", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got models.Testimonial
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Jane Doe", got.Person)
	assert.Equal(t, models.TestimonialStatusPending, got.Status)
}

func TestSubmitTestimonialRejectsMissingFields(t *testing.T) {
	router := newTestimonialRouter(&stubTestimonialService{})

	req := httptest.NewRequest(http.MethodPost, "/testimonials", strings.NewReader(`{"person":"Jane Doe"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request payload")
}

func TestSubmitTestimonialRejectsMalformedJSON(t *testing.T) {
	router := newTestimonialRouter(&stubTestimonialService{})

	req := httptest.NewRequest(http.MethodPost, "/testimonials", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListApprovedTestimonials(t *testing.T) {
	svc := &stubTestimonialService{
		approved: []*models.Testimonial{
			{ID: "t-1", Person: "Jane Doe", Comment: "Solid work", Status: models.TestimonialStatusApproved},
		},
	}
	router := newTestimonialRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/testimonials", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got []*models.Testimonial
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "t-1", got[0].ID)
}

func TestModerateTestimonialBadAction(t *testing.T) {
	svc := &stubTestimonialService{moderateErr: core.ErrInvalidModeration}
	router := newTestimonialRouter(svc)

	body := `{"id":"t-1","action":"promote"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/testimonials/moderate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "promote", svc.lastModerate.Action)
}

func TestModerateTestimonialApprove(t *testing.T) {
	svc := &stubTestimonialService{}
	router := newTestimonialRouter(svc)

	body := `{"id":"t-1","action":"approve"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/testimonials/moderate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "approved")
	assert.Equal(t, "t-1", svc.lastModerate.ID)
}

package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webrend/marketplace-api/internal/db"
	"github.com/webrend/marketplace-api/internal/models"
)

type fakeTestimonialRepo struct {
	testimonials map[string]*models.Testimonial
	nextID       int
}

func newFakeTestimonialRepo() *fakeTestimonialRepo {
	return &fakeTestimonialRepo{testimonials: make(map[string]*models.Testimonial)}
}

func (r *fakeTestimonialRepo) Create(_ context.Context, testimonial *models.Testimonial) (string, error) {
	r.nextID++
	id := "t-" + string(rune('0'+r.nextID))
	cp := *testimonial
	cp.ID = id
	r.testimonials[id] = &cp
	return id, nil
}

func (r *fakeTestimonialRepo) ListByStatus(_ context.Context, status models.TestimonialStatus) ([]*models.Testimonial, error) {
	var out []*models.Testimonial
	for _, tm := range r.testimonials {
		if tm.Status == status {
			cp := *tm
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTestimonialRepo) ListAll(_ context.Context) ([]*models.Testimonial, error) {
	var out []*models.Testimonial
	for _, tm := range r.testimonials {
		cp := *tm
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeTestimonialRepo) SetStatus(_ context.Context, testimonialID string, status models.TestimonialStatus) error {
	tm, ok := r.testimonials[testimonialID]
	if !ok {
		return db.ErrNotFound
	}
	tm.Status = status
	return nil
}

func newTestimonialService(repo *fakeTestimonialRepo) TestimonialService {
	logger := zap.NewNop()
	return NewTestimonialService(repo, NewAuditService(&fakeAuditRepo{}, logger))
}

func TestSubmitTestimonialStartsPending(t *testing.T) {
	repo := newFakeTestimonialRepo()
	svc := newTestimonialService(repo)

	testimonial, err := svc.Submit(context.Background(), models.SubmitTestimonialRequest{
		Person: "Jane Doe", Comment: "Great work",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TestimonialStatusPending, testimonial.Status)
	assert.NotEmpty(t, testimonial.ID)

	approved, err := svc.ListApproved(context.Background())
	require.NoError(t, err)
	assert.Empty(t, approved, "pending submissions must not be publicly visible")
}

func TestModerateApprove(t *testing.T) {
	repo := newFakeTestimonialRepo()
	svc := newTestimonialService(repo)

	submitted, err := svc.Submit(context.Background(), models.SubmitTestimonialRequest{
		Person: "Jane Doe", Comment: "Great work",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Moderate(context.Background(), "admin-1", models.ModerateTestimonialRequest{
		ID: submitted.ID, Action: "approve",
	}))

	approved, err := svc.ListApproved(context.Background())
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, submitted.ID, approved[0].ID)
}

func TestModerateRejectsUnknownAction(t *testing.T) {
	svc := newTestimonialService(newFakeTestimonialRepo())

	err := svc.Moderate(context.Background(), "admin-1", models.ModerateTestimonialRequest{
		ID: "t-1", Action: "promote",
	})
	require.ErrorIs(t, err, ErrInvalidModeration)
}

func TestModerateUnknownTestimonial(t *testing.T) {
	svc := newTestimonialService(newFakeTestimonialRepo())

	err := svc.Moderate(context.Background(), "admin-1", models.ModerateTestimonialRequest{
		ID: "missing", Action: "approve",
	})
	require.ErrorIs(t, err, ErrTestimonialNotFound)
}

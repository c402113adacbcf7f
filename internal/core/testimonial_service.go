package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/webrend/marketplace-api/internal/db"
	"github.com/webrend/marketplace-api/internal/models"
)

// Sentinel errors for testimonial operations.
var (
	ErrTestimonialNotFound = errors.New("testimonial not found")
	ErrInvalidModeration   = errors.New("moderation action must be approve or reject")
)

type testimonialService struct {
	testimonialRepo db.TestimonialRepository
	audit           AuditService
}

// NewTestimonialService creates a TestimonialService.
func NewTestimonialService(testimonialRepo db.TestimonialRepository, audit AuditService) TestimonialService {
	return &testimonialService{testimonialRepo: testimonialRepo, audit: audit}
}

// Submit stores a public testimonial submission. Everything starts pending;
// nothing is shown until an admin approves it.
func (s *testimonialService) Submit(ctx context.Context, req models.SubmitTestimonialRequest) (*models.Testimonial, error) {
	testimonial := &models.Testimonial{
		Person:          req.Person,
		Comment:         req.Comment,
		ProfileImageURL: req.ProfileImageURL,
		ReferenceLink:   req.ReferenceLink,
		ProjectLink:     req.ProjectLink,
		Status:          models.TestimonialStatusPending,
	}
	id, err := s.testimonialRepo.Create(ctx, testimonial)
	if err != nil {
		return nil, fmt.Errorf("creating testimonial: %w", err)
	}
	testimonial.ID = id
	return testimonial, nil
}

func (s *testimonialService) ListApproved(ctx context.Context) ([]*models.Testimonial, error) {
	testimonials, err := s.testimonialRepo.ListByStatus(ctx, models.TestimonialStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("listing approved testimonials: %w", err)
	}
	return testimonials, nil
}

func (s *testimonialService) ListAll(ctx context.Context) ([]*models.Testimonial, error) {
	testimonials, err := s.testimonialRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing testimonials: %w", err)
	}
	return testimonials, nil
}

// Moderate approves or rejects a pending testimonial.
func (s *testimonialService) Moderate(ctx context.Context, adminID string, req models.ModerateTestimonialRequest) error {
	var status models.TestimonialStatus
	switch req.Action {
	case "approve":
		status = models.TestimonialStatusApproved
	case "reject":
		status = models.TestimonialStatusRejected
	default:
		return fmt.Errorf("%w: %q", ErrInvalidModeration, req.Action)
	}

	if err := s.testimonialRepo.SetStatus(ctx, req.ID, status); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrTestimonialNotFound, req.ID)
		}
		return fmt.Errorf("moderating testimonial %s: %w", req.ID, err)
	}

	s.audit.Record(ctx, models.AuditLog{
		UserID:     adminID,
		Action:     AuditActionContentMutated,
		TargetType: "TESTIMONIAL",
		TargetID:   req.ID,
		Details:    map[string]interface{}{"operation": req.Action},
	})
	return nil
}

package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/webrend/marketplace-api/internal/models"
)

const testimonialsCollection = "testimonials"

// firestoreTestimonialRepository implements TestimonialRepository using Firestore.
type firestoreTestimonialRepository struct {
	client *firestore.Client
}

// NewFirestoreTestimonialRepository creates a new testimonial repository.
func NewFirestoreTestimonialRepository(client *firestore.Client) TestimonialRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for TestimonialRepository.")
	}
	return &firestoreTestimonialRepository{client: client}
}

func (r *firestoreTestimonialRepository) Create(ctx context.Context, testimonial *models.Testimonial) (string, error) {
	docRef := r.client.Collection(testimonialsCollection).NewDoc()
	testimonial.ID = docRef.ID
	if _, err := docRef.Create(ctx, testimonial); err != nil {
		return "", fmt.Errorf("failed to create testimonial: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreTestimonialRepository) ListByStatus(ctx context.Context, st models.TestimonialStatus) ([]*models.Testimonial, error) {
	iter := r.client.Collection(testimonialsCollection).
		Where("status", "==", st).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()
	return collectTestimonials(iter)
}

func (r *firestoreTestimonialRepository) ListAll(ctx context.Context) ([]*models.Testimonial, error) {
	iter := r.client.Collection(testimonialsCollection).OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()
	return collectTestimonials(iter)
}

func collectTestimonials(iter *firestore.DocumentIterator) ([]*models.Testimonial, error) {
	var testimonials []*models.Testimonial
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate testimonials: %w", err)
		}
		var t models.Testimonial
		if err := doc.DataTo(&t); err != nil {
			log.Printf("Error decoding testimonial %s: %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		t.ID = doc.Ref.ID
		testimonials = append(testimonials, &t)
	}
	return testimonials, nil
}

func (r *firestoreTestimonialRepository) SetStatus(ctx context.Context, testimonialID string, st models.TestimonialStatus) error {
	if testimonialID == "" {
		return errors.New("testimonialID cannot be empty for SetStatus")
	}
	_, err := r.client.Collection(testimonialsCollection).Doc(testimonialID).Update(ctx, []firestore.Update{
		{Path: "status", Value: st},
		{Path: "moderatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("testimonial '%s' not found: %w", testimonialID, ErrNotFound)
		}
		return fmt.Errorf("failed to set status on testimonial '%s': %w", testimonialID, err)
	}
	return nil
}

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

const subscriptionsCollection = "subscriptions"

// firestoreSubscriptionRepository implements SubscriptionRepository using Firestore.
type firestoreSubscriptionRepository struct {
	client *firestore.Client
}

// NewFirestoreSubscriptionRepository creates a new subscription repository.
func NewFirestoreSubscriptionRepository(client *firestore.Client) SubscriptionRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for SubscriptionRepository.")
	}
	return &firestoreSubscriptionRepository{client: client}
}

// Create adds a new subscription document with an auto-generated ID.
func (r *firestoreSubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) (string, error) {
	docRef := r.client.Collection(subscriptionsCollection).NewDoc()
	sub.ID = docRef.ID
	if _, err := docRef.Create(ctx, sub); err != nil {
		return "", fmt.Errorf("failed to create subscription: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a subscription by its document ID.
func (r *firestoreSubscriptionRepository) GetByID(ctx context.Context, subID string) (*models.Subscription, error) {
	if subID == "" {
		return nil, errors.New("subID cannot be empty")
	}
	docSnap, err := r.client.Collection(subscriptionsCollection).Doc(subID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("subscription '%s' not found: %w", subID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get subscription '%s': %w", subID, err)
	}
	var sub models.Subscription
	if err := docSnap.DataTo(&sub); err != nil {
		return nil, fmt.Errorf("failed to decode subscription '%s': %w", subID, err)
	}
	sub.ID = docSnap.Ref.ID
	return &sub, nil
}

// GetByStripeSubscriptionID finds the subscription that corresponds to a
// Stripe subscription object, as received in webhook events.
func (r *firestoreSubscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubID string) (*models.Subscription, error) {
	if stripeSubID == "" {
		return nil, errors.New("stripeSubID cannot be empty")
	}
	iter := r.client.Collection(subscriptionsCollection).
		Where("stripeSubscriptionId", "==", stripeSubID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("subscription for stripe id '%s' not found: %w", stripeSubID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription by stripe id '%s': %w", stripeSubID, err)
	}
	var sub models.Subscription
	if err := doc.DataTo(&sub); err != nil {
		return nil, fmt.Errorf("failed to decode subscription '%s': %w", doc.Ref.ID, err)
	}
	sub.ID = doc.Ref.ID
	return &sub, nil
}

// RecordRenewal stamps a successful renewal payment.
func (r *firestoreSubscriptionRepository) RecordRenewal(ctx context.Context, subID string) error {
	_, err := r.client.Collection(subscriptionsCollection).Doc(subID).Update(ctx, []firestore.Update{
		{Path: "lastBillingDate", Value: time.Now().UTC()},
		{Path: "status", Value: models.SubscriptionStatusActive},
	})
	if err != nil {
		return fmt.Errorf("failed to record renewal on subscription '%s': %w", subID, err)
	}
	return nil
}

// MarkCanceled marks the subscription canceled.
func (r *firestoreSubscriptionRepository) MarkCanceled(ctx context.Context, subID string) error {
	_, err := r.client.Collection(subscriptionsCollection).Doc(subID).Update(ctx, []firestore.Update{
		{Path: "status", Value: models.SubscriptionStatusCanceled},
		{Path: "canceledAt", Value: time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("failed to mark subscription '%s' canceled: %w", subID, err)
	}
	return nil
}

// RecordRevocation records the outcome of the collaborator revocation that
// follows a cancellation. revokeErr is empty on success.
func (r *firestoreSubscriptionRepository) RecordRevocation(ctx context.Context, subID string, revokeErr string) error {
	updates := []firestore.Update{
		{Path: "accessRevokedAt", Value: time.Now().UTC()},
	}
	if revokeErr != "" {
		updates = []firestore.Update{{Path: "revokeError", Value: revokeErr}}
	}
	if _, err := r.client.Collection(subscriptionsCollection).Doc(subID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to record revocation on subscription '%s': %w", subID, err)
	}
	return nil
}

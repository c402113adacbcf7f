package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/webrend/marketplace-api/internal/models"
)

const purchasesCollection = "purchases"

// firestorePurchaseRepository implements PurchaseRepository using Firestore.
// Purchase documents are keyed by the Stripe checkout session ID so that
// creating one is a conditional write: two concurrent verification calls for
// the same session cannot both succeed.
type firestorePurchaseRepository struct {
	client *firestore.Client
}

// NewFirestorePurchaseRepository creates a new purchase repository.
func NewFirestorePurchaseRepository(client *firestore.Client) PurchaseRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for PurchaseRepository.")
	}
	return &firestorePurchaseRepository{client: client}
}

// CreateIfAbsent writes the purchase keyed by its Stripe session ID.
// Firestore's Create fails with AlreadyExists when the document is present,
// which this method reports as created=false rather than an error.
func (r *firestorePurchaseRepository) CreateIfAbsent(ctx context.Context, purchase *models.Purchase) (bool, error) {
	if purchase.StripeSessionID == "" {
		return false, errors.New("purchase is missing its Stripe session ID")
	}
	purchase.ID = purchase.StripeSessionID
	_, err := r.client.Collection(purchasesCollection).Doc(purchase.StripeSessionID).Create(ctx, purchase)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return false, nil
		}
		return false, fmt.Errorf("failed to create purchase for session '%s': %w", purchase.StripeSessionID, err)
	}
	return true, nil
}

// GetBySessionID retrieves the purchase for a Stripe checkout session.
func (r *firestorePurchaseRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.Purchase, error) {
	if sessionID == "" {
		return nil, errors.New("sessionID cannot be empty")
	}
	docSnap, err := r.client.Collection(purchasesCollection).Doc(sessionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("purchase for session '%s' not found: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get purchase for session '%s': %w", sessionID, err)
	}
	var purchase models.Purchase
	if err := docSnap.DataTo(&purchase); err != nil {
		return nil, fmt.Errorf("failed to decode purchase '%s': %w", sessionID, err)
	}
	purchase.ID = docSnap.Ref.ID
	return &purchase, nil
}

// ListByUserID returns the buyer's purchases, newest first.
func (r *firestorePurchaseRepository) ListByUserID(ctx context.Context, userID string) ([]*models.Purchase, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty")
	}
	iter := r.client.Collection(purchasesCollection).
		Where("userId", "==", userID).
		OrderBy("purchaseDate", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var purchases []*models.Purchase
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate purchases for user '%s': %w", userID, err)
		}
		var purchase models.Purchase
		if err := doc.DataTo(&purchase); err != nil {
			log.Printf("Error decoding purchase %s: %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		purchase.ID = doc.Ref.ID
		purchases = append(purchases, &purchase)
	}
	return purchases, nil
}

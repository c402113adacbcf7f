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

const listingsCollection = "listings"

// firestoreListingRepository implements ListingRepository using Firestore.
type firestoreListingRepository struct {
	client *firestore.Client
}

// NewFirestoreListingRepository creates a new listing repository.
func NewFirestoreListingRepository(client *firestore.Client) ListingRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ListingRepository.")
	}
	return &firestoreListingRepository{client: client}
}

// Create adds a new listing document with an auto-generated ID.
func (r *firestoreListingRepository) Create(ctx context.Context, listing *models.Listing) (string, error) {
	docRef := r.client.Collection(listingsCollection).NewDoc()
	listing.ID = docRef.ID
	if _, err := docRef.Create(ctx, listing); err != nil {
		return "", fmt.Errorf("failed to create listing: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a listing by its document ID.
func (r *firestoreListingRepository) GetByID(ctx context.Context, listingID string) (*models.Listing, error) {
	if listingID == "" {
		return nil, errors.New("listingID cannot be empty")
	}
	docSnap, err := r.client.Collection(listingsCollection).Doc(listingID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("listing '%s' not found: %w", listingID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get listing '%s': %w", listingID, err)
	}

	var listing models.Listing
	if err := docSnap.DataTo(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode listing '%s': %w", listingID, err)
	}
	listing.ID = docSnap.Ref.ID
	return &listing, nil
}

// ListActive retrieves all listings that are still offered for sale,
// newest first.
func (r *firestoreListingRepository) ListActive(ctx context.Context) ([]*models.Listing, error) {
	query := r.client.Collection(listingsCollection).
		Where("active", "==", true).
		OrderBy("createdAt", firestore.Desc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var listings []*models.Listing
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate listings: %w", err)
		}
		var listing models.Listing
		if err := doc.DataTo(&listing); err != nil {
			log.Printf("Error decoding listing %s: %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		listing.ID = doc.Ref.ID
		listings = append(listings, &listing)
	}
	return listings, nil
}

// Update overwrites mutable fields of an existing listing.
func (r *firestoreListingRepository) Update(ctx context.Context, listing *models.Listing) error {
	if listing.ID == "" {
		return errors.New("listing ID cannot be empty for Update")
	}
	if _, err := r.client.Collection(listingsCollection).Doc(listing.ID).Set(ctx, listing, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to update listing '%s': %w", listing.ID, err)
	}
	return nil
}

// MarkSold flips the sold flag and records the buyer. The listing is left in
// place as a soft-state record; nothing in the purchase path hard-deletes it.
func (r *firestoreListingRepository) MarkSold(ctx context.Context, listingID, buyerID string) error {
	if listingID == "" {
		return errors.New("listingID cannot be empty for MarkSold")
	}
	_, err := r.client.Collection(listingsCollection).Doc(listingID).Update(ctx, []firestore.Update{
		{Path: "sold", Value: true},
		{Path: "buyerId", Value: buyerID},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("listing '%s' not found: %w", listingID, ErrNotFound)
		}
		return fmt.Errorf("failed to mark listing '%s' sold: %w", listingID, err)
	}
	return nil
}

// SetActive toggles whether the listing is visible in the marketplace.
func (r *firestoreListingRepository) SetActive(ctx context.Context, listingID string, active bool) error {
	if listingID == "" {
		return errors.New("listingID cannot be empty for SetActive")
	}
	_, err := r.client.Collection(listingsCollection).Doc(listingID).Update(ctx, []firestore.Update{
		{Path: "active", Value: active},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("listing '%s' not found: %w", listingID, ErrNotFound)
		}
		return fmt.Errorf("failed to set listing '%s' active=%t: %w", listingID, active, err)
	}
	return nil
}

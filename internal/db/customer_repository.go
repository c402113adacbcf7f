package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/webrend/marketplace-api/internal/models"
)

const customersCollection = "customers"

// firestoreCustomerRepository implements CustomerRepository using Firestore.
type firestoreCustomerRepository struct {
	client *firestore.Client
}

// NewFirestoreCustomerRepository creates a new customer repository.
func NewFirestoreCustomerRepository(client *firestore.Client) CustomerRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for CustomerRepository.")
	}
	return &firestoreCustomerRepository{client: client}
}

// Create adds a new customer document. The Firebase Auth UID is the document ID.
func (r *firestoreCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID == "" {
		return errors.New("customer ID cannot be empty for Create")
	}
	_, err := r.client.Collection(customersCollection).Doc(customer.ID).Create(ctx, customer)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("customer '%s' already exists: %w", customer.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create customer '%s': %w", customer.ID, err)
	}
	return nil
}

// GetByID retrieves a customer by Firebase Auth UID.
func (r *firestoreCustomerRepository) GetByID(ctx context.Context, userID string) (*models.Customer, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty")
	}
	docSnap, err := r.client.Collection(customersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("customer '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get customer '%s': %w", userID, err)
	}
	var customer models.Customer
	if err := docSnap.DataTo(&customer); err != nil {
		return nil, fmt.Errorf("failed to decode customer '%s': %w", userID, err)
	}
	customer.ID = docSnap.Ref.ID
	return &customer, nil
}

// Update merges the given customer state into the stored document.
func (r *firestoreCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	if customer.ID == "" {
		return errors.New("customer ID cannot be empty for Update")
	}
	if _, err := r.client.Collection(customersCollection).Doc(customer.ID).Set(ctx, customer, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to update customer '%s': %w", customer.ID, err)
	}
	return nil
}

// AppendPurchasedRepo appends a repo ID to the customer's denormalized
// purchasedRepos array. ArrayUnion keeps the append idempotent.
func (r *firestoreCustomerRepository) AppendPurchasedRepo(ctx context.Context, userID, repoID string) error {
	if userID == "" || repoID == "" {
		return errors.New("userID and repoID are required")
	}
	_, err := r.client.Collection(customersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "purchasedRepos", Value: firestore.ArrayUnion(repoID)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("customer '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to append purchased repo for customer '%s': %w", userID, err)
	}
	return nil
}

// SetGithubLink stores the GitHub OAuth linkage on the customer document.
func (r *firestoreCustomerRepository) SetGithubLink(ctx context.Context, userID string, githubID int64, username, accessToken string) error {
	if userID == "" {
		return errors.New("userID cannot be empty for SetGithubLink")
	}
	_, err := r.client.Collection(customersCollection).Doc(userID).Set(ctx, map[string]interface{}{
		"githubId":          githubID,
		"githubUsername":    username,
		"githubAccessToken": accessToken,
		"githubConnectedAt": time.Now().UTC(),
		"updatedAt":         time.Now().UTC(),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to store GitHub link for customer '%s': %w", userID, err)
	}
	return nil
}

// SetConnectAccount stores the Stripe Connect account state.
func (r *firestoreCustomerRepository) SetConnectAccount(ctx context.Context, userID, accountID string, onboardingComplete bool) error {
	if userID == "" {
		return errors.New("userID cannot be empty for SetConnectAccount")
	}
	_, err := r.client.Collection(customersCollection).Doc(userID).Set(ctx, map[string]interface{}{
		"stripeConnectAccountId":          accountID,
		"stripeConnectOnboardingComplete": onboardingComplete,
		"updatedAt":                       time.Now().UTC(),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to store Connect account for customer '%s': %w", userID, err)
	}
	return nil
}

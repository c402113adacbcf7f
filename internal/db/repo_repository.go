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

const repositoriesCollection = "repositories"

// firestoreRepoRepository implements RepoRepository using Firestore.
type firestoreRepoRepository struct {
	client *firestore.Client
}

// NewFirestoreRepoRepository creates a new repository-metadata repository.
func NewFirestoreRepoRepository(client *firestore.Client) RepoRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for RepoRepository.")
	}
	return &firestoreRepoRepository{client: client}
}

// Create adds repository metadata with an auto-generated ID.
func (r *firestoreRepoRepository) Create(ctx context.Context, repo *models.Repository) (string, error) {
	docRef := r.client.Collection(repositoriesCollection).NewDoc()
	repo.ID = docRef.ID
	if _, err := docRef.Create(ctx, repo); err != nil {
		return "", fmt.Errorf("failed to create repository record: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves repository metadata by document ID.
func (r *firestoreRepoRepository) GetByID(ctx context.Context, repoID string) (*models.Repository, error) {
	if repoID == "" {
		return nil, errors.New("repoID cannot be empty")
	}
	docSnap, err := r.client.Collection(repositoriesCollection).Doc(repoID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("repository '%s' not found: %w", repoID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get repository '%s': %w", repoID, err)
	}
	var repo models.Repository
	if err := docSnap.DataTo(&repo); err != nil {
		return nil, fmt.Errorf("failed to decode repository '%s': %w", repoID, err)
	}
	repo.ID = docSnap.Ref.ID
	return &repo, nil
}

// RecordOwnershipTransfer updates the owner fields after a transfer is
// initiated with GitHub.
func (r *firestoreRepoRepository) RecordOwnershipTransfer(ctx context.Context, repoID, newOwnerID, previousOwnerID string) error {
	if repoID == "" {
		return errors.New("repoID cannot be empty for RecordOwnershipTransfer")
	}
	_, err := r.client.Collection(repositoriesCollection).Doc(repoID).Update(ctx, []firestore.Update{
		{Path: "ownerUserId", Value: newOwnerID},
		{Path: "previousOwnerUserId", Value: previousOwnerID},
		{Path: "transferredAt", Value: time.Now().UTC()},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("repository '%s' not found: %w", repoID, ErrNotFound)
		}
		return fmt.Errorf("failed to record ownership transfer for repository '%s': %w", repoID, err)
	}
	return nil
}

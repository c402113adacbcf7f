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

const portfolioCollection = "portfolioProjects"

// firestorePortfolioRepository implements PortfolioRepository using Firestore.
type firestorePortfolioRepository struct {
	client *firestore.Client
}

// NewFirestorePortfolioRepository creates a new portfolio repository.
func NewFirestorePortfolioRepository(client *firestore.Client) PortfolioRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for PortfolioRepository.")
	}
	return &firestorePortfolioRepository{client: client}
}

func (r *firestorePortfolioRepository) Create(ctx context.Context, project *models.PortfolioProject) (string, error) {
	docRef := r.client.Collection(portfolioCollection).NewDoc()
	project.ID = docRef.ID
	if _, err := docRef.Create(ctx, project); err != nil {
		return "", fmt.Errorf("failed to create portfolio project: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestorePortfolioRepository) GetByID(ctx context.Context, projectID string) (*models.PortfolioProject, error) {
	if projectID == "" {
		return nil, errors.New("projectID cannot be empty")
	}
	docSnap, err := r.client.Collection(portfolioCollection).Doc(projectID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("portfolio project '%s' not found: %w", projectID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get portfolio project '%s': %w", projectID, err)
	}
	var project models.PortfolioProject
	if err := docSnap.DataTo(&project); err != nil {
		return nil, fmt.Errorf("failed to decode portfolio project '%s': %w", projectID, err)
	}
	project.ID = docSnap.Ref.ID
	return &project, nil
}

func (r *firestorePortfolioRepository) GetBySlug(ctx context.Context, slug string) (*models.PortfolioProject, error) {
	if slug == "" {
		return nil, errors.New("slug cannot be empty")
	}
	iter := r.client.Collection(portfolioCollection).Where("slug", "==", slug).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("portfolio project with slug '%s' not found: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio project by slug '%s': %w", slug, err)
	}
	var project models.PortfolioProject
	if err := doc.DataTo(&project); err != nil {
		return nil, fmt.Errorf("failed to decode portfolio project '%s': %w", doc.Ref.ID, err)
	}
	project.ID = doc.Ref.ID
	return &project, nil
}

func (r *firestorePortfolioRepository) List(ctx context.Context) ([]*models.PortfolioProject, error) {
	iter := r.client.Collection(portfolioCollection).OrderBy("dateCompleted", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var projects []*models.PortfolioProject
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate portfolio projects: %w", err)
		}
		var project models.PortfolioProject
		if err := doc.DataTo(&project); err != nil {
			log.Printf("Error decoding portfolio project %s: %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		project.ID = doc.Ref.ID
		projects = append(projects, &project)
	}
	return projects, nil
}

func (r *firestorePortfolioRepository) Update(ctx context.Context, project *models.PortfolioProject) error {
	if project.ID == "" {
		return errors.New("project ID cannot be empty for Update")
	}
	if _, err := r.client.Collection(portfolioCollection).Doc(project.ID).Set(ctx, project, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to update portfolio project '%s': %w", project.ID, err)
	}
	return nil
}

func (r *firestorePortfolioRepository) Delete(ctx context.Context, projectID string) error {
	if projectID == "" {
		return errors.New("projectID cannot be empty for Delete")
	}
	if _, err := r.client.Collection(portfolioCollection).Doc(projectID).Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("portfolio project '%s' not found: %w", projectID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete portfolio project '%s': %w", projectID, err)
	}
	return nil
}

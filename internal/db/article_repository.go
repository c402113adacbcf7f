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

const articlesCollection = "articles"

// firestoreArticleRepository implements ArticleRepository using Firestore.
type firestoreArticleRepository struct {
	client *firestore.Client
}

// NewFirestoreArticleRepository creates a new article repository.
func NewFirestoreArticleRepository(client *firestore.Client) ArticleRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ArticleRepository.")
	}
	return &firestoreArticleRepository{client: client}
}

func (r *firestoreArticleRepository) Create(ctx context.Context, article *models.Article) (string, error) {
	docRef := r.client.Collection(articlesCollection).NewDoc()
	article.ID = docRef.ID
	if _, err := docRef.Create(ctx, article); err != nil {
		return "", fmt.Errorf("failed to create article: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreArticleRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	if slug == "" {
		return nil, errors.New("slug cannot be empty")
	}
	iter := r.client.Collection(articlesCollection).Where("slug", "==", slug).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("article with slug '%s' not found: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query article by slug '%s': %w", slug, err)
	}
	var article models.Article
	if err := doc.DataTo(&article); err != nil {
		return nil, fmt.Errorf("failed to decode article '%s': %w", doc.Ref.ID, err)
	}
	article.ID = doc.Ref.ID
	return &article, nil
}

func (r *firestoreArticleRepository) List(ctx context.Context) ([]*models.Article, error) {
	iter := r.client.Collection(articlesCollection).OrderBy("publishedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var articles []*models.Article
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate articles: %w", err)
		}
		var article models.Article
		if err := doc.DataTo(&article); err != nil {
			log.Printf("Error decoding article %s: %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		article.ID = doc.Ref.ID
		articles = append(articles, &article)
	}
	return articles, nil
}

func (r *firestoreArticleRepository) Delete(ctx context.Context, articleID string) error {
	if articleID == "" {
		return errors.New("articleID cannot be empty for Delete")
	}
	if _, err := r.client.Collection(articlesCollection).Doc(articleID).Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("article '%s' not found: %w", articleID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete article '%s': %w", articleID, err)
	}
	return nil
}

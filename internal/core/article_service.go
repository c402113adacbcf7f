package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/webrend/marketplace-api/internal/db"
	"github.com/webrend/marketplace-api/internal/models"
)

// ErrArticleNotFound is returned when an article does not exist.
var ErrArticleNotFound = errors.New("article not found")

type articleService struct {
	articleRepo db.ArticleRepository
	audit       AuditService
}

// NewArticleService creates an ArticleService.
func NewArticleService(articleRepo db.ArticleRepository, audit AuditService) ArticleService {
	return &articleService{articleRepo: articleRepo, audit: audit}
}

func (s *articleService) List(ctx context.Context) ([]*models.Article, error) {
	articles, err := s.articleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	return articles, nil
}

func (s *articleService) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	article, err := s.articleRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrArticleNotFound, slug)
		}
		return nil, fmt.Errorf("loading article %s: %w", slug, err)
	}
	return article, nil
}

func (s *articleService) Create(ctx context.Context, adminID string, req models.CreateArticleRequest) (*models.Article, error) {
	article := &models.Article{
		Title:       req.Title,
		Slug:        slugify(req.Title),
		Content:     req.Content,
		Excerpt:     req.Excerpt,
		ImageURL:    req.ImageURL,
		Author:      req.Author,
		PublishedAt: time.Now().UTC(),
	}
	id, err := s.articleRepo.Create(ctx, article)
	if err != nil {
		return nil, fmt.Errorf("creating article: %w", err)
	}
	article.ID = id

	s.audit.Record(ctx, models.AuditLog{
		UserID:     adminID,
		Action:     AuditActionContentMutated,
		TargetType: "ARTICLE",
		TargetID:   id,
		Details:    map[string]interface{}{"operation": "create"},
	})
	return article, nil
}

func (s *articleService) Delete(ctx context.Context, adminID, articleID string) error {
	if err := s.articleRepo.Delete(ctx, articleID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrArticleNotFound, articleID)
		}
		return fmt.Errorf("deleting article %s: %w", articleID, err)
	}
	s.audit.Record(ctx, models.AuditLog{
		UserID:     adminID,
		Action:     AuditActionContentMutated,
		TargetType: "ARTICLE",
		TargetID:   articleID,
		Details:    map[string]interface{}{"operation": "delete"},
	})
	return nil
}

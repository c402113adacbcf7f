package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/webrend/marketplace-api/internal/db"
	"github.com/webrend/marketplace-api/internal/models"
)

// ErrProjectNotFound is returned when a portfolio project does not exist.
var ErrProjectNotFound = errors.New("portfolio project not found")

type portfolioService struct {
	portfolioRepo db.PortfolioRepository
	audit         AuditService
}

// NewPortfolioService creates a PortfolioService.
func NewPortfolioService(portfolioRepo db.PortfolioRepository, audit AuditService) PortfolioService {
	return &portfolioService{portfolioRepo: portfolioRepo, audit: audit}
}

func (s *portfolioService) List(ctx context.Context) ([]*models.PortfolioProject, error) {
	projects, err := s.portfolioRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing portfolio projects: %w", err)
	}
	return projects, nil
}

func (s *portfolioService) GetBySlug(ctx context.Context, slug string) (*models.PortfolioProject, error) {
	project, err := s.portfolioRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, slug)
		}
		return nil, fmt.Errorf("loading portfolio project %s: %w", slug, err)
	}
	return project, nil
}

func (s *portfolioService) Add(ctx context.Context, adminID string, req models.AddPortfolioProjectRequest) (*models.PortfolioProject, error) {
	project := &models.PortfolioProject{
		Title:          req.Title,
		Slug:           slugify(req.Title),
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		ProjectURL:     req.ProjectURL,
		Tags:           req.Tags,
		DateCompleted:  req.DateCompleted,
		Featured:       req.Featured,
		ClientName:     req.ClientName,
		ProjectGoal:    req.ProjectGoal,
		Solution:       req.Solution,
		KeyFeatures:    req.KeyFeatures,
		Challenges:     req.Challenges,
		Results:        req.Results,
		GalleryImages:  req.GalleryImages,
		VideoURL:       req.VideoURL,
		SEOTitle:       req.SEOTitle,
		SEODescription: req.SEODescription,
	}
	projectID, err := s.portfolioRepo.Create(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("creating portfolio project: %w", err)
	}
	project.ID = projectID

	s.audit.Record(ctx, models.AuditLog{
		UserID:     adminID,
		Action:     AuditActionContentMutated,
		TargetType: "PORTFOLIO_PROJECT",
		TargetID:   projectID,
		Details:    map[string]interface{}{"operation": "add"},
	})
	return project, nil
}

func (s *portfolioService) Update(ctx context.Context, adminID, projectID string, req models.UpdatePortfolioProjectRequest) (*models.PortfolioProject, error) {
	project, err := s.portfolioRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		return nil, fmt.Errorf("loading portfolio project %s: %w", projectID, err)
	}

	if req.Title != nil {
		project.Title = *req.Title
		project.Slug = slugify(*req.Title)
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.ImageURL != nil {
		project.ImageURL = *req.ImageURL
	}
	if req.ProjectURL != nil {
		project.ProjectURL = *req.ProjectURL
	}
	if req.Tags != nil {
		project.Tags = *req.Tags
	}
	if req.DateCompleted != nil {
		project.DateCompleted = *req.DateCompleted
	}
	if req.Featured != nil {
		project.Featured = *req.Featured
	}
	if req.ProjectGoal != nil {
		project.ProjectGoal = *req.ProjectGoal
	}
	if req.Solution != nil {
		project.Solution = *req.Solution
	}
	if req.Results != nil {
		project.Results = *req.Results
	}

	if err := s.portfolioRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("updating portfolio project %s: %w", projectID, err)
	}

	s.audit.Record(ctx, models.AuditLog{
		UserID:     adminID,
		Action:     AuditActionContentMutated,
		TargetType: "PORTFOLIO_PROJECT",
		TargetID:   projectID,
		Details:    map[string]interface{}{"operation": "update"},
	})
	return project, nil
}

func (s *portfolioService) Delete(ctx context.Context, adminID, projectID string) error {
	if _, err := s.portfolioRepo.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		return fmt.Errorf("loading portfolio project %s: %w", projectID, err)
	}
	if err := s.portfolioRepo.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("deleting portfolio project %s: %w", projectID, err)
	}
	s.audit.Record(ctx, models.AuditLog{
		UserID:     adminID,
		Action:     AuditActionContentMutated,
		TargetType: "PORTFOLIO_PROJECT",
		TargetID:   projectID,
		Details:    map[string]interface{}{"operation": "delete"},
	})
	return nil
}

package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/webrend/marketplace-api/internal/db"
	"github.com/webrend/marketplace-api/internal/models"
	"github.com/webrend/marketplace-api/internal/payments"
)

// Sentinel errors for listing operations.
var (
	ErrListingNotFound      = errors.New("listing not found")
	ErrRepositoryNotFound   = errors.New("repository not found")
	ErrNotListingSeller     = errors.New("caller is not the listing seller")
	ErrSellerGithubRequired = errors.New("seller must link a GitHub account before listing")
	ErrInvalidListing       = errors.New("invalid listing")
	ErrStripeProduct        = errors.New("stripe product setup failed")
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns a listing or article title into a URL slug.
func slugify(s string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}

type listingService struct {
	listingRepo  db.ListingRepository
	repoRepo     db.RepoRepository
	customerRepo db.CustomerRepository
	stripeGW     StripeGateway
	githubGW     GitHubGateway
	audit        AuditService
	logger       *zap.Logger
}

// NewListingService creates a ListingService.
func NewListingService(
	listingRepo db.ListingRepository,
	repoRepo db.RepoRepository,
	customerRepo db.CustomerRepository,
	stripeGW StripeGateway,
	githubGW GitHubGateway,
	audit AuditService,
	logger *zap.Logger,
) ListingService {
	return &listingService{
		listingRepo:  listingRepo,
		repoRepo:     repoRepo,
		customerRepo: customerRepo,
		stripeGW:     stripeGW,
		githubGW:     githubGW,
		audit:        audit,
		logger:       logger,
	}
}

// Create validates the request, ensures the repository is registered, creates
// the Stripe product and price, and writes the listing.
func (s *listingService) Create(ctx context.Context, sellerID string, req models.CreateListingRequest) (*models.Listing, error) {
	if req.RepoID == "" && req.RepoFullName == "" {
		return nil, fmt.Errorf("%w: one of repoId or repoFullName is required", ErrInvalidListing)
	}
	if req.IsSubscription && req.SubscriptionPrice <= 0 {
		return nil, fmt.Errorf("%w: subscription listings need a positive subscriptionPrice", ErrInvalidListing)
	}
	if req.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidListing)
	}

	seller, err := s.customerRepo.GetByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, sellerID)
		}
		return nil, fmt.Errorf("loading seller %s: %w", sellerID, err)
	}
	if !seller.HasGithub() {
		return nil, ErrSellerGithubRequired
	}

	repoID := req.RepoID
	stars, forks := 0, 0
	if repoID == "" {
		repoID, stars, forks, err = s.registerRepository(ctx, seller, req.RepoFullName)
		if err != nil {
			return nil, err
		}
	} else {
		repo, err := s.repoRepo.GetByID(ctx, repoID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, repoID)
			}
			return nil, fmt.Errorf("loading repository %s: %w", repoID, err)
		}
		if repo.OwnerUserID != sellerID {
			return nil, ErrNotListingSeller
		}
	}

	amountCents := payments.FormatAmountForStripe(req.Price)
	subscriptionCents := payments.FormatAmountForStripe(req.SubscriptionPrice)
	productAmount := amountCents
	if req.IsSubscription {
		productAmount = subscriptionCents
	}

	productID, priceID, err := s.stripeGW.CreateProductWithPrice(payments.ProductSpec{
		Name:           req.Name,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		RepoID:         repoID,
		SellerUsername: seller.GithubUsername,
		AmountCents:    productAmount,
		Recurring:      req.IsSubscription,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStripeProduct, err)
	}

	listing := &models.Listing{
		Name:                   req.Name,
		Slug:                   slugify(req.Name),
		Description:            req.Description,
		PriceCents:             amountCents,
		IsSubscription:         req.IsSubscription,
		SubscriptionPriceCents: subscriptionCents,
		ImageURL:               req.ImageURL,
		Seller: models.Seller{
			UserID:         sellerID,
			GithubUsername: seller.GithubUsername,
			AvatarURL:      seller.PhotoURL,
		},
		RepoID:          repoID,
		Stars:           stars,
		Forks:           forks,
		StripeProductID: productID,
		StripePriceID:   priceID,
		Active:          true,
	}
	listingID, err := s.listingRepo.Create(ctx, listing)
	if err != nil {
		return nil, fmt.Errorf("creating listing: %w", err)
	}
	listing.ID = listingID

	s.audit.Record(ctx, models.AuditLog{
		UserID:     sellerID,
		Action:     AuditActionListingCreated,
		TargetType: "LISTING",
		TargetID:   listingID,
		Details:    map[string]interface{}{"repoId": repoID, "isSubscription": req.IsSubscription},
	})
	return listing, nil
}

// registerRepository fetches owner/name from GitHub with the seller's token,
// snapshots stars and forks, and records the repository document.
func (s *listingService) registerRepository(ctx context.Context, seller *models.Customer, fullName string) (repoID string, stars, forks int, err error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return "", 0, 0, fmt.Errorf("%w: repoFullName must be owner/name", ErrInvalidListing)
	}
	ghRepo, err := s.githubGW.FetchRepository(ctx, seller.GithubAccessToken, owner, name)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %s: %v", ErrRepositoryNotFound, fullName, err)
	}
	repoID, err = s.repoRepo.Create(ctx, &models.Repository{
		Name:         name,
		GithubRepoID: ghRepo.GetID(),
		OwnerUserID:  seller.ID,
	})
	if err != nil {
		return "", 0, 0, fmt.Errorf("registering repository %s: %w", fullName, err)
	}
	return repoID, ghRepo.GetStargazersCount(), ghRepo.GetForksCount(), nil
}

func (s *listingService) GetByID(ctx context.Context, listingID string) (*models.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrListingNotFound, listingID)
		}
		return nil, fmt.Errorf("loading listing %s: %w", listingID, err)
	}
	return listing, nil
}

func (s *listingService) ListActive(ctx context.Context) ([]*models.Listing, error) {
	listings, err := s.listingRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active listings: %w", err)
	}
	return listings, nil
}

// MarkSold flags a listing as sold. Only the seller may call it directly;
// the webhook pipeline marks listings sold through the billing service.
func (s *listingService) MarkSold(ctx context.Context, callerID, listingID, buyerID string) error {
	listing, err := s.GetByID(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.Seller.UserID != callerID {
		return ErrNotListingSeller
	}
	if err := s.listingRepo.MarkSold(ctx, listingID, buyerID); err != nil {
		return fmt.Errorf("marking listing %s sold: %w", listingID, err)
	}
	return nil
}

// Archive deactivates a listing and archives its Stripe product. The listing
// document is kept.
func (s *listingService) Archive(ctx context.Context, callerID, listingID string) error {
	listing, err := s.GetByID(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.Seller.UserID != callerID {
		return ErrNotListingSeller
	}
	if err := s.listingRepo.SetActive(ctx, listingID, false); err != nil {
		return fmt.Errorf("archiving listing %s: %w", listingID, err)
	}
	if listing.StripeProductID != "" {
		if err := s.stripeGW.ArchiveProduct(listing.StripeProductID); err != nil {
			// The listing is already inactive; a dangling active Stripe
			// product is harmless, so log and move on.
			s.logger.Warn("failed to archive stripe product",
				zap.String("listingID", listingID),
				zap.String("productID", listing.StripeProductID),
				zap.Error(err))
		}
	}
	s.audit.Record(ctx, models.AuditLog{
		UserID:     callerID,
		Action:     AuditActionListingArchived,
		TargetType: "LISTING",
		TargetID:   listingID,
	})
	return nil
}

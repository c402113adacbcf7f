package db

import (
	"context"

	"github.com/webrend/marketplace-api/internal/models"
)

// ListingRepository defines storage operations for marketplace listings.
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) (string, error) // Returns new listing ID
	GetByID(ctx context.Context, listingID string) (*models.Listing, error)
	ListActive(ctx context.Context) ([]*models.Listing, error)
	Update(ctx context.Context, listing *models.Listing) error
	MarkSold(ctx context.Context, listingID, buyerID string) error
	SetActive(ctx context.Context, listingID string, active bool) error
}

// TransactionRepository defines storage operations for payment transactions.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) (string, error)
	GetByID(ctx context.Context, txnID string) (*models.Transaction, error)
	SetTransferOutcome(ctx context.Context, txnID string, status models.TransferStatus, githubTransferID int64, reason string) error
	SetCollaborationOutcome(ctx context.Context, txnID string, status models.CollaborationStatus, reason string) error
	SetTypeAndNote(ctx context.Context, txnID string, txnType models.TransactionType, note string) error
}

// SubscriptionRepository defines storage operations for recurring access.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) (string, error)
	GetByID(ctx context.Context, subID string) (*models.Subscription, error)
	GetByStripeSubscriptionID(ctx context.Context, stripeSubID string) (*models.Subscription, error)
	RecordRenewal(ctx context.Context, subID string) error
	MarkCanceled(ctx context.Context, subID string) error
	RecordRevocation(ctx context.Context, subID string, revokeErr string) error
}

// PurchaseRepository defines storage for buyer-scoped purchase records.
// Documents are keyed by the Stripe checkout session ID; CreateIfAbsent is
// the conditional write that makes session verification idempotent.
type PurchaseRepository interface {
	// CreateIfAbsent writes the purchase keyed by its session ID. It returns
	// created=false (and no error) when a purchase for that session already
	// exists.
	CreateIfAbsent(ctx context.Context, purchase *models.Purchase) (created bool, err error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Purchase, error)
	ListByUserID(ctx context.Context, userID string) ([]*models.Purchase, error)
}

// CustomerRepository defines storage operations for customer profiles.
type CustomerRepository interface {
	GetByID(ctx context.Context, userID string) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) error
	Update(ctx context.Context, customer *models.Customer) error
	AppendPurchasedRepo(ctx context.Context, userID, repoID string) error
	SetGithubLink(ctx context.Context, userID string, githubID int64, username, accessToken string) error
	SetConnectAccount(ctx context.Context, userID, accountID string, onboardingComplete bool) error
}

// RepoRepository defines storage for sellable repository metadata.
type RepoRepository interface {
	GetByID(ctx context.Context, repoID string) (*models.Repository, error)
	Create(ctx context.Context, repo *models.Repository) (string, error)
	RecordOwnershipTransfer(ctx context.Context, repoID, newOwnerID, previousOwnerID string) error
}

// PortfolioRepository defines storage for portfolio case studies.
type PortfolioRepository interface {
	Create(ctx context.Context, project *models.PortfolioProject) (string, error)
	GetByID(ctx context.Context, projectID string) (*models.PortfolioProject, error)
	GetBySlug(ctx context.Context, slug string) (*models.PortfolioProject, error)
	List(ctx context.Context) ([]*models.PortfolioProject, error)
	Update(ctx context.Context, project *models.PortfolioProject) error
	Delete(ctx context.Context, projectID string) error
}

// TestimonialRepository defines storage for submitted testimonials.
type TestimonialRepository interface {
	Create(ctx context.Context, testimonial *models.Testimonial) (string, error)
	ListByStatus(ctx context.Context, status models.TestimonialStatus) ([]*models.Testimonial, error)
	ListAll(ctx context.Context) ([]*models.Testimonial, error)
	SetStatus(ctx context.Context, testimonialID string, status models.TestimonialStatus) error
}

// ArticleRepository defines storage for blog articles.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) (string, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	List(ctx context.Context) ([]*models.Article, error)
	Delete(ctx context.Context, articleID string) error
}

// AuditRepository defines storage for pipeline and admin audit entries.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
}

package core

import (
	"context"

	"github.com/google/go-github/v57/github"
	stripe "github.com/stripe/stripe-go/v74"

	"github.com/webrend/marketplace-api/internal/gh"
	"github.com/webrend/marketplace-api/internal/models"
	"github.com/webrend/marketplace-api/internal/payments"
)

// StripeGateway is the slice of the Stripe API the services use. The
// production implementation is payments.Gateway; tests substitute fakes.
type StripeGateway interface {
	ConstructWebhookEvent(payload []byte, signature string) (stripe.Event, error)
	CreateCheckoutSession(spec payments.CheckoutSessionSpec) (*stripe.CheckoutSession, error)
	RetrieveCheckoutSession(sessionID string) (*stripe.CheckoutSession, error)
	CreateConnectAccount(email, displayName, firebaseUID string) (*stripe.Account, error)
	RetrieveAccount(accountID string) (*stripe.Account, error)
	CreateAccountLink(accountID, refreshURL, returnURL string) (string, error)
	CreateProductWithPrice(spec payments.ProductSpec) (productID, priceID string, err error)
	ArchiveProduct(productID string) error
	CreatePortalSession(customerID, returnURL string) (string, error)
}

// GitHubGateway is the slice of the GitHub API the services use. The
// production implementation is gh.Client.
type GitHubGateway interface {
	AuthorizeURL(state, redirectURL string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchUser(ctx context.Context, token string) (*github.User, error)
	FetchRepository(ctx context.Context, token, owner, repo string) (*github.Repository, error)
	TransferRepository(ctx context.Context, token, owner, repo, newOwner string) (gh.TransferOutcome, error)
	AddCollaborator(ctx context.Context, token, owner, repo, username string) error
	RemoveCollaborator(ctx context.Context, token, owner, repo, username string) error
}

// CustomerService manages customer profiles, GitHub OAuth linkage, and
// Stripe Connect onboarding.
type CustomerService interface {
	GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.Customer, bool, error)
	GetByID(ctx context.Context, userID string) (*models.Customer, error)
	ListPurchases(ctx context.Context, userID string) ([]*models.Purchase, error)
	GithubAuthorizeURL(userID string) string
	CompleteGithubLink(ctx context.Context, state, code string) (*models.Customer, error)
	EnsureConnectAccount(ctx context.Context, userID string) (*ConnectStatus, error)
}

// ListingService manages marketplace listings and their Stripe products.
type ListingService interface {
	Create(ctx context.Context, sellerID string, req models.CreateListingRequest) (*models.Listing, error)
	GetByID(ctx context.Context, listingID string) (*models.Listing, error)
	ListActive(ctx context.Context) ([]*models.Listing, error)
	MarkSold(ctx context.Context, callerID, listingID, buyerID string) error
	Archive(ctx context.Context, callerID, listingID string) error
}

// BillingService covers checkout, session verification, the customer portal,
// and Stripe webhook processing.
type BillingService interface {
	CreateCheckoutSession(ctx context.Context, userID string, req models.CreateCheckoutSessionRequest) (*CheckoutSessionResult, error)
	VerifySession(ctx context.Context, userID, sessionID string) (*models.Purchase, error)
	CreatePortalSession(ctx context.Context, userID string) (string, error)
	ProcessWebhook(ctx context.Context, payload []byte, signature string) error
}

// TransferService performs GitHub repository transfers and collaborator
// management after a completed payment.
type TransferService interface {
	Execute(ctx context.Context, buyerID string, req models.TransferRequest) (*TransferResult, error)
	RevokeAccess(ctx context.Context, subscriptionID string) error
}

// PortfolioService manages portfolio case studies.
type PortfolioService interface {
	List(ctx context.Context) ([]*models.PortfolioProject, error)
	GetBySlug(ctx context.Context, slug string) (*models.PortfolioProject, error)
	Add(ctx context.Context, adminID string, req models.AddPortfolioProjectRequest) (*models.PortfolioProject, error)
	Update(ctx context.Context, adminID, projectID string, req models.UpdatePortfolioProjectRequest) (*models.PortfolioProject, error)
	Delete(ctx context.Context, adminID, projectID string) error
}

// TestimonialService manages testimonial submission and moderation.
type TestimonialService interface {
	Submit(ctx context.Context, req models.SubmitTestimonialRequest) (*models.Testimonial, error)
	ListApproved(ctx context.Context) ([]*models.Testimonial, error)
	ListAll(ctx context.Context) ([]*models.Testimonial, error)
	Moderate(ctx context.Context, adminID string, req models.ModerateTestimonialRequest) error
}

// ArticleService manages blog articles.
type ArticleService interface {
	List(ctx context.Context) ([]*models.Article, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	Create(ctx context.Context, adminID string, req models.CreateArticleRequest) (*models.Article, error)
	Delete(ctx context.Context, adminID, articleID string) error
}

// AuditService records pipeline and admin events, best-effort.
type AuditService interface {
	Record(ctx context.Context, entry models.AuditLog)
}

// ConnectStatus describes a seller's Stripe Connect onboarding state.
type ConnectStatus struct {
	AccountID          string `json:"accountId"`
	OnboardingComplete bool   `json:"onboardingComplete"`
	OnboardingURL      string `json:"onboardingUrl,omitempty"`
}

// CheckoutSessionResult is what the checkout endpoint returns to the client.
type CheckoutSessionResult struct {
	SessionID  string `json:"sessionId"`
	SessionURL string `json:"sessionUrl"`
}

// TransferResult reports the outcome of a transfer or collaborator grant.
type TransferResult struct {
	TransferStatus      models.TransferStatus      `json:"transferStatus,omitempty"`
	CollaborationStatus models.CollaborationStatus `json:"collaborationStatus,omitempty"`
	GithubTransferID    int64                      `json:"githubTransferId,omitempty"`
	Reason              string                     `json:"reason,omitempty"`
}

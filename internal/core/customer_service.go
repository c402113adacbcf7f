package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/webrend/marketplace-api/internal/config"
	"github.com/webrend/marketplace-api/internal/db"
	"github.com/webrend/marketplace-api/internal/models"
)

// Sentinel errors for customer operations.
var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrInvalidOAuthState  = errors.New("invalid oauth state")
	ErrGithubExchange     = errors.New("github authorization failed")
	ErrStripeConnect      = errors.New("stripe connect operation failed")
	ErrCustomerEmailEmpty = errors.New("customer has no email address")
)

type customerService struct {
	customerRepo db.CustomerRepository
	purchaseRepo db.PurchaseRepository
	stripeGW     StripeGateway
	githubGW     GitHubGateway
	audit        AuditService
	cfg          *config.Config
	logger       *zap.Logger
}

// NewCustomerService creates a CustomerService.
func NewCustomerService(
	customerRepo db.CustomerRepository,
	purchaseRepo db.PurchaseRepository,
	stripeGW StripeGateway,
	githubGW GitHubGateway,
	audit AuditService,
	cfg *config.Config,
	logger *zap.Logger,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		purchaseRepo: purchaseRepo,
		stripeGW:     stripeGW,
		githubGW:     githubGW,
		audit:        audit,
		cfg:          cfg,
		logger:       logger,
	}
}

// GetOrCreate retrieves the customer for a Firebase UID, creating the profile
// from the token claims when it does not exist yet.
func (s *customerService) GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.Customer, bool, error) {
	customer, err := s.customerRepo.GetByID(ctx, userID)
	if err == nil {
		return customer, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("loading customer %s: %w", userID, err)
	}

	newCustomer := &models.Customer{
		ID:          userID,
		Email:       email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
	}
	if err := s.customerRepo.Create(ctx, newCustomer); err != nil {
		return nil, false, fmt.Errorf("creating customer %s: %w", userID, err)
	}
	return newCustomer, true, nil
}

func (s *customerService) GetByID(ctx context.Context, userID string) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, userID)
		}
		return nil, fmt.Errorf("loading customer %s: %w", userID, err)
	}
	return customer, nil
}

func (s *customerService) ListPurchases(ctx context.Context, userID string) ([]*models.Purchase, error) {
	purchases, err := s.purchaseRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing purchases for %s: %w", userID, err)
	}
	return purchases, nil
}

// GithubAuthorizeURL returns the OAuth consent URL. The state carries the
// user ID plus a nonce so the callback can attribute the grant.
func (s *customerService) GithubAuthorizeURL(userID string) string {
	state := userID + ":" + uuid.NewString()
	redirect := s.cfg.PublicURL + "/api/v1/github/callback"
	return s.githubGW.AuthorizeURL(state, redirect)
}

// CompleteGithubLink exchanges the OAuth code and stores the GitHub identity
// and access token on the customer document.
func (s *customerService) CompleteGithubLink(ctx context.Context, state, code string) (*models.Customer, error) {
	userID, _, ok := strings.Cut(state, ":")
	if !ok || userID == "" {
		return nil, ErrInvalidOAuthState
	}

	customer, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	token, err := s.githubGW.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGithubExchange, err)
	}
	ghUser, err := s.githubGW.FetchUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGithubExchange, err)
	}

	if err := s.customerRepo.SetGithubLink(ctx, userID, ghUser.GetID(), ghUser.GetLogin(), token); err != nil {
		return nil, fmt.Errorf("storing github link for %s: %w", userID, err)
	}

	customer.GithubID = ghUser.GetID()
	customer.GithubUsername = ghUser.GetLogin()
	customer.GithubAccessToken = token
	customer.GithubConnectedAt = time.Now().UTC()

	s.audit.Record(ctx, models.AuditLog{
		UserID:     userID,
		Action:     AuditActionGithubLinked,
		TargetType: "CUSTOMER",
		TargetID:   userID,
		Details:    map[string]interface{}{"githubUsername": ghUser.GetLogin()},
	})
	return customer, nil
}

// EnsureConnectAccount creates or resumes Stripe Connect Express onboarding
// for a seller. When the account already has charges enabled the onboarding
// flag is persisted and no link is returned.
func (s *customerService) EnsureConnectAccount(ctx context.Context, userID string) (*ConnectStatus, error) {
	customer, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	accountID := customer.StripeConnectAccountID
	if accountID == "" {
		if customer.Email == "" {
			return nil, ErrCustomerEmailEmpty
		}
		account, err := s.stripeGW.CreateConnectAccount(customer.Email, customer.DisplayName, userID)
		if err != nil {
			return nil, fmt.Errorf("%w: creating account: %v", ErrStripeConnect, err)
		}
		accountID = account.ID
		if err := s.customerRepo.SetConnectAccount(ctx, userID, accountID, false); err != nil {
			return nil, fmt.Errorf("storing connect account for %s: %w", userID, err)
		}
		s.audit.Record(ctx, models.AuditLog{
			UserID:     userID,
			Action:     AuditActionConnectAccountCreated,
			TargetType: "CUSTOMER",
			TargetID:   userID,
			Details:    map[string]interface{}{"accountId": accountID},
		})
	} else {
		account, err := s.stripeGW.RetrieveAccount(accountID)
		if err != nil {
			return nil, fmt.Errorf("%w: retrieving account %s: %v", ErrStripeConnect, accountID, err)
		}
		if account.ChargesEnabled && account.DetailsSubmitted {
			if !customer.StripeConnectOnboardingComplete {
				if err := s.customerRepo.SetConnectAccount(ctx, userID, accountID, true); err != nil {
					return nil, fmt.Errorf("storing connect onboarding flag for %s: %w", userID, err)
				}
			}
			return &ConnectStatus{AccountID: accountID, OnboardingComplete: true}, nil
		}
	}

	refresh := s.cfg.ClientURL + "/sell?stripe=refresh"
	ret := s.cfg.ClientURL + "/sell?stripe=complete"
	linkURL, err := s.stripeGW.CreateAccountLink(accountID, refresh, ret)
	if err != nil {
		return nil, fmt.Errorf("%w: creating account link: %v", ErrStripeConnect, err)
	}
	return &ConnectStatus{AccountID: accountID, OnboardingURL: linkURL}, nil
}

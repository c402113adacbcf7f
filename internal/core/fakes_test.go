package core

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/go-github/v57/github"
	stripe "github.com/stripe/stripe-go/v74"

	"github.com/webrend/marketplace-api/internal/db"
	"github.com/webrend/marketplace-api/internal/gh"
	"github.com/webrend/marketplace-api/internal/models"
	"github.com/webrend/marketplace-api/internal/payments"
)

// In-memory fakes for the db interfaces and the Stripe/GitHub gateways.
// They count writes so tests can assert on side effects.

type fakeListingRepo struct {
	listings   map[string]*models.Listing
	soldCalls  int
	writeCount int
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: make(map[string]*models.Listing)}
}

func (r *fakeListingRepo) Create(_ context.Context, listing *models.Listing) (string, error) {
	r.writeCount++
	id := "listing-" + strconv.Itoa(len(r.listings)+1)
	cp := *listing
	cp.ID = id
	r.listings[id] = &cp
	return id, nil
}

func (r *fakeListingRepo) GetByID(_ context.Context, listingID string) (*models.Listing, error) {
	l, ok := r.listings[listingID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeListingRepo) ListActive(_ context.Context) ([]*models.Listing, error) {
	var out []*models.Listing
	for _, l := range r.listings {
		if l.Active {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) Update(_ context.Context, listing *models.Listing) error {
	r.writeCount++
	r.listings[listing.ID] = listing
	return nil
}

func (r *fakeListingRepo) MarkSold(_ context.Context, listingID, buyerID string) error {
	l, ok := r.listings[listingID]
	if !ok {
		return db.ErrNotFound
	}
	r.writeCount++
	r.soldCalls++
	l.Sold = true
	l.BuyerID = buyerID
	return nil
}

func (r *fakeListingRepo) SetActive(_ context.Context, listingID string, active bool) error {
	l, ok := r.listings[listingID]
	if !ok {
		return db.ErrNotFound
	}
	r.writeCount++
	l.Active = active
	return nil
}

type fakeTxnRepo struct {
	txns       map[string]*models.Transaction
	writeCount int
}

func newFakeTxnRepo() *fakeTxnRepo {
	return &fakeTxnRepo{txns: make(map[string]*models.Transaction)}
}

func (r *fakeTxnRepo) Create(_ context.Context, txn *models.Transaction) (string, error) {
	r.writeCount++
	id := "txn-" + strconv.Itoa(len(r.txns)+1)
	cp := *txn
	cp.ID = id
	r.txns[id] = &cp
	return id, nil
}

func (r *fakeTxnRepo) GetByID(_ context.Context, txnID string) (*models.Transaction, error) {
	t, ok := r.txns[txnID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTxnRepo) SetTransferOutcome(_ context.Context, txnID string, status models.TransferStatus, githubTransferID int64, reason string) error {
	t, ok := r.txns[txnID]
	if !ok {
		return db.ErrNotFound
	}
	r.writeCount++
	t.TransferStatus = status
	t.GithubTransferID = githubTransferID
	t.TransferError = reason
	return nil
}

func (r *fakeTxnRepo) SetCollaborationOutcome(_ context.Context, txnID string, status models.CollaborationStatus, reason string) error {
	t, ok := r.txns[txnID]
	if !ok {
		return db.ErrNotFound
	}
	r.writeCount++
	t.CollaborationStatus = status
	t.CollaborationError = reason
	return nil
}

func (r *fakeTxnRepo) SetTypeAndNote(_ context.Context, txnID string, txnType models.TransactionType, note string) error {
	t, ok := r.txns[txnID]
	if !ok {
		return db.ErrNotFound
	}
	r.writeCount++
	t.Type = txnType
	t.Note = note
	return nil
}

type fakeSubRepo struct {
	subs       map[string]*models.Subscription
	writeCount int
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{subs: make(map[string]*models.Subscription)}
}

func (r *fakeSubRepo) Create(_ context.Context, sub *models.Subscription) (string, error) {
	r.writeCount++
	id := "sub-" + strconv.Itoa(len(r.subs)+1)
	cp := *sub
	cp.ID = id
	r.subs[id] = &cp
	return id, nil
}

func (r *fakeSubRepo) GetByID(_ context.Context, subID string) (*models.Subscription, error) {
	s, ok := r.subs[subID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubRepo) GetByStripeSubscriptionID(_ context.Context, stripeSubID string) (*models.Subscription, error) {
	for _, s := range r.subs {
		if s.StripeSubscriptionID == stripeSubID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *fakeSubRepo) RecordRenewal(_ context.Context, subID string) error {
	s, ok := r.subs[subID]
	if !ok {
		return db.ErrNotFound
	}
	r.writeCount++
	s.LastBillingDate = time.Now().UTC()
	return nil
}

func (r *fakeSubRepo) MarkCanceled(_ context.Context, subID string) error {
	s, ok := r.subs[subID]
	if !ok {
		return db.ErrNotFound
	}
	r.writeCount++
	s.Status = models.SubscriptionStatusCanceled
	s.CanceledAt = time.Now().UTC()
	return nil
}

func (r *fakeSubRepo) RecordRevocation(_ context.Context, subID string, revokeErr string) error {
	s, ok := r.subs[subID]
	if !ok {
		return db.ErrNotFound
	}
	r.writeCount++
	s.AccessRevokedAt = time.Now().UTC()
	s.RevokeError = revokeErr
	return nil
}

type fakePurchaseRepo struct {
	purchases  map[string]*models.Purchase
	writeCount int
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{purchases: make(map[string]*models.Purchase)}
}

func (r *fakePurchaseRepo) CreateIfAbsent(_ context.Context, purchase *models.Purchase) (bool, error) {
	if _, exists := r.purchases[purchase.ID]; exists {
		return false, nil
	}
	r.writeCount++
	cp := *purchase
	r.purchases[purchase.ID] = &cp
	return true, nil
}

func (r *fakePurchaseRepo) GetBySessionID(_ context.Context, sessionID string) (*models.Purchase, error) {
	p, ok := r.purchases[sessionID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePurchaseRepo) ListByUserID(_ context.Context, userID string) ([]*models.Purchase, error) {
	var out []*models.Purchase
	for _, p := range r.purchases {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeCustomerRepo struct {
	customers  map[string]*models.Customer
	writeCount int
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[string]*models.Customer)}
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, userID string) (*models.Customer, error) {
	c, ok := r.customers[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCustomerRepo) Create(_ context.Context, customer *models.Customer) error {
	r.writeCount++
	cp := *customer
	r.customers[customer.ID] = &cp
	return nil
}

func (r *fakeCustomerRepo) Update(_ context.Context, customer *models.Customer) error {
	r.writeCount++
	cp := *customer
	r.customers[customer.ID] = &cp
	return nil
}

func (r *fakeCustomerRepo) AppendPurchasedRepo(_ context.Context, userID, repoID string) error {
	c, ok := r.customers[userID]
	if !ok {
		return db.ErrNotFound
	}
	r.writeCount++
	c.PurchasedRepos = append(c.PurchasedRepos, repoID)
	return nil
}

func (r *fakeCustomerRepo) SetGithubLink(_ context.Context, userID string, githubID int64, username, accessToken string) error {
	c, ok := r.customers[userID]
	if !ok {
		return db.ErrNotFound
	}
	r.writeCount++
	c.GithubID = githubID
	c.GithubUsername = username
	c.GithubAccessToken = accessToken
	return nil
}

func (r *fakeCustomerRepo) SetConnectAccount(_ context.Context, userID, accountID string, onboardingComplete bool) error {
	c, ok := r.customers[userID]
	if !ok {
		return db.ErrNotFound
	}
	r.writeCount++
	c.StripeConnectAccountID = accountID
	c.StripeConnectOnboardingComplete = onboardingComplete
	return nil
}

type fakeRepoRepo struct {
	repos      map[string]*models.Repository
	writeCount int
}

func newFakeRepoRepo() *fakeRepoRepo {
	return &fakeRepoRepo{repos: make(map[string]*models.Repository)}
}

func (r *fakeRepoRepo) GetByID(_ context.Context, repoID string) (*models.Repository, error) {
	rec, ok := r.repos[repoID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeRepoRepo) Create(_ context.Context, repo *models.Repository) (string, error) {
	r.writeCount++
	id := "repo-" + strconv.Itoa(len(r.repos)+1)
	cp := *repo
	cp.ID = id
	r.repos[id] = &cp
	return id, nil
}

func (r *fakeRepoRepo) RecordOwnershipTransfer(_ context.Context, repoID, newOwnerID, previousOwnerID string) error {
	rec, ok := r.repos[repoID]
	if !ok {
		return db.ErrNotFound
	}
	r.writeCount++
	rec.PreviousOwnerUserID = previousOwnerID
	rec.OwnerUserID = newOwnerID
	rec.TransferredAt = time.Now().UTC()
	return nil
}

type fakeAuditRepo struct {
	entries []models.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, entry models.AuditLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

// fakeStripeGateway implements StripeGateway. ConstructWebhookEvent returns
// the prepared event unless signature verification is set to fail.
type fakeStripeGateway struct {
	event           stripe.Event
	signatureErr    error
	session         *stripe.CheckoutSession
	retrieveErr     error
	checkoutCalls   []payments.CheckoutSessionSpec
	account         *stripe.Account
	accountLinkURL  string
	productID       string
	priceID         string
	archivedProduct string
	portalURL       string
}

func (g *fakeStripeGateway) ConstructWebhookEvent(_ []byte, _ string) (stripe.Event, error) {
	if g.signatureErr != nil {
		return stripe.Event{}, g.signatureErr
	}
	return g.event, nil
}

func (g *fakeStripeGateway) CreateCheckoutSession(spec payments.CheckoutSessionSpec) (*stripe.CheckoutSession, error) {
	g.checkoutCalls = append(g.checkoutCalls, spec)
	if g.session != nil {
		return g.session, nil
	}
	return &stripe.CheckoutSession{ID: "cs_test", URL: "https://checkout.stripe.test/cs_test"}, nil
}

func (g *fakeStripeGateway) RetrieveCheckoutSession(_ string) (*stripe.CheckoutSession, error) {
	if g.retrieveErr != nil {
		return nil, g.retrieveErr
	}
	return g.session, nil
}

func (g *fakeStripeGateway) CreateConnectAccount(_, _, _ string) (*stripe.Account, error) {
	if g.account != nil {
		return g.account, nil
	}
	return &stripe.Account{ID: "acct_test"}, nil
}

func (g *fakeStripeGateway) RetrieveAccount(_ string) (*stripe.Account, error) {
	if g.account != nil {
		return g.account, nil
	}
	return &stripe.Account{ID: "acct_test"}, nil
}

func (g *fakeStripeGateway) CreateAccountLink(_, _, _ string) (string, error) {
	if g.accountLinkURL != "" {
		return g.accountLinkURL, nil
	}
	return "https://connect.stripe.test/onboarding", nil
}

func (g *fakeStripeGateway) CreateProductWithPrice(_ payments.ProductSpec) (string, string, error) {
	if g.productID != "" {
		return g.productID, g.priceID, nil
	}
	return "prod_test", "price_test", nil
}

func (g *fakeStripeGateway) ArchiveProduct(productID string) error {
	g.archivedProduct = productID
	return nil
}

func (g *fakeStripeGateway) CreatePortalSession(_, _ string) (string, error) {
	if g.portalURL != "" {
		return g.portalURL, nil
	}
	return "https://billing.stripe.test/portal", nil
}

// fakeGitHubGateway implements GitHubGateway with scripted outcomes.
type fakeGitHubGateway struct {
	transferOutcome    gh.TransferOutcome
	transferErr        error
	transferCalls      int
	collaboratorErr    error
	collaboratorCalls  []string
	removeErr          error
	removedCollabs     []string
	user               *github.User
	repo               *github.Repository
	exchangedToken     string
	lastTransferTarget string
}

func (g *fakeGitHubGateway) AuthorizeURL(state, redirectURL string) string {
	return fmt.Sprintf("https://github.test/authorize?state=%s&redirect_uri=%s", state, redirectURL)
}

func (g *fakeGitHubGateway) ExchangeCode(_ context.Context, _ string) (string, error) {
	if g.exchangedToken != "" {
		return g.exchangedToken, nil
	}
	return "gho_test", nil
}

func (g *fakeGitHubGateway) FetchUser(_ context.Context, _ string) (*github.User, error) {
	if g.user != nil {
		return g.user, nil
	}
	return &github.User{ID: github.Int64(42), Login: github.String("octocat")}, nil
}

func (g *fakeGitHubGateway) FetchRepository(_ context.Context, _, _, _ string) (*github.Repository, error) {
	if g.repo != nil {
		return g.repo, nil
	}
	return &github.Repository{ID: github.Int64(7), StargazersCount: github.Int(10), ForksCount: github.Int(2)}, nil
}

func (g *fakeGitHubGateway) TransferRepository(_ context.Context, _, _, _, newOwner string) (gh.TransferOutcome, error) {
	g.transferCalls++
	g.lastTransferTarget = newOwner
	if g.transferErr != nil {
		return gh.TransferOutcome{}, g.transferErr
	}
	return g.transferOutcome, nil
}

func (g *fakeGitHubGateway) AddCollaborator(_ context.Context, _, _, _, username string) error {
	g.collaboratorCalls = append(g.collaboratorCalls, username)
	return g.collaboratorErr
}

func (g *fakeGitHubGateway) RemoveCollaborator(_ context.Context, _, _, _, username string) error {
	if g.removeErr != nil {
		return g.removeErr
	}
	g.removedCollabs = append(g.removedCollabs, username)
	return nil
}

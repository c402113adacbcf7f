package core

import (
	"context"
	"encoding/json"
	"testing"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webrend/marketplace-api/internal/config"
	"github.com/webrend/marketplace-api/internal/models"
)

type billingFixture struct {
	listingRepo  *fakeListingRepo
	txnRepo      *fakeTxnRepo
	subRepo      *fakeSubRepo
	purchaseRepo *fakePurchaseRepo
	customerRepo *fakeCustomerRepo
	repoRepo     *fakeRepoRepo
	stripeGW     *fakeStripeGateway
	githubGW     *fakeGitHubGateway
	service      BillingService
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	f := &billingFixture{
		listingRepo:  newFakeListingRepo(),
		txnRepo:      newFakeTxnRepo(),
		subRepo:      newFakeSubRepo(),
		purchaseRepo: newFakePurchaseRepo(),
		customerRepo: newFakeCustomerRepo(),
		repoRepo:     newFakeRepoRepo(),
		stripeGW:     &fakeStripeGateway{},
		githubGW:     &fakeGitHubGateway{},
	}
	logger := zap.NewNop()
	audit := NewAuditService(&fakeAuditRepo{}, logger)
	transfers := NewTransferService(f.repoRepo, f.customerRepo, f.txnRepo, f.subRepo, f.githubGW, audit, logger)
	cfg := &config.Config{ClientURL: "https://webrend.test", PlatformFeePercent: 5}
	f.service = NewBillingService(f.listingRepo, f.txnRepo, f.subRepo, f.purchaseRepo, f.customerRepo, f.stripeGW, transfers, audit, cfg, logger)

	f.repoRepo.repos["repo-1"] = &models.Repository{ID: "repo-1", Name: "cool-lib", OwnerUserID: "seller-1"}
	f.customerRepo.customers["seller-1"] = &models.Customer{
		ID:                "seller-1",
		Email:             "seller@example.com",
		GithubUsername:    "sellerdev",
		GithubAccessToken: "gho_seller",
	}
	f.customerRepo.customers["buyer-1"] = &models.Customer{
		ID:             "buyer-1",
		Email:          "buyer@example.com",
		GithubUsername: "buyerdev",
	}
	return f
}

func (f *billingFixture) totalWrites() int {
	return f.listingRepo.writeCount + f.txnRepo.writeCount + f.subRepo.writeCount +
		f.purchaseRepo.writeCount + f.customerRepo.writeCount + f.repoRepo.writeCount
}

func checkoutEvent(t *testing.T, metadata map[string]string) stripe.Event {
	t.Helper()
	payload := map[string]interface{}{
		"id":             "cs_test_1",
		"object":         "checkout.session",
		"amount_total":   4999,
		"currency":       "usd",
		"payment_intent": "pi_1",
		"metadata":       metadata,
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return stripe.Event{Type: "checkout.session.completed", Data: &stripe.EventData{Raw: raw}}
}

func fullMetadata(pricing string) map[string]string {
	return map[string]string{
		"listingId":           "listing-9",
		"documentId":          "listing-9",
		"repoId":              "repo-1",
		"sellerId":            "seller-1",
		"buyerId":             "buyer-1",
		"pricingType":         pricing,
		"buyerGithubUsername": "buyerdev",
	}
}

func TestProcessWebhookUnknownEventIgnored(t *testing.T) {
	f := newBillingFixture(t)
	f.stripeGW.event = stripe.Event{Type: "charge.refunded", Data: &stripe.EventData{Raw: json.RawMessage(`{}`)}}

	err := f.service.ProcessWebhook(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.Zero(t, f.totalWrites())
}

func TestProcessWebhookBadSignature(t *testing.T) {
	f := newBillingFixture(t)
	f.stripeGW.signatureErr = assert.AnError

	err := f.service.ProcessWebhook(context.Background(), []byte(`{}`), "bad")
	require.ErrorIs(t, err, ErrInvalidSignature)
	assert.Zero(t, f.totalWrites())
}

func TestProcessWebhookMissingMetadataSkipped(t *testing.T) {
	f := newBillingFixture(t)
	meta := fullMetadata("onetime")
	delete(meta, "buyerId")
	f.stripeGW.event = checkoutEvent(t, meta)

	err := f.service.ProcessWebhook(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.Zero(t, f.totalWrites())
	assert.Empty(t, f.txnRepo.txns)
}

func TestProcessWebhookOneTimePurchase(t *testing.T) {
	f := newBillingFixture(t)
	f.listingRepo.listings["listing-9"] = &models.Listing{ID: "listing-9", Active: true}
	f.githubGW.transferOutcome.Initiated = true
	f.stripeGW.event = checkoutEvent(t, fullMetadata("onetime"))

	err := f.service.ProcessWebhook(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)

	require.Len(t, f.txnRepo.txns, 1)
	txn := f.txnRepo.txns["txn-1"]
	assert.Equal(t, models.TransactionTypePurchase, txn.Type)
	assert.Equal(t, models.PricingOneTime, txn.PricingType)
	assert.Equal(t, int64(4999), txn.AmountCents)
	assert.Equal(t, "pi_1", txn.StripePaymentIntentID)
	assert.Equal(t, models.TransferStatusInitiated, txn.TransferStatus)

	assert.True(t, f.listingRepo.listings["listing-9"].Sold)
	assert.Equal(t, "buyer-1", f.listingRepo.listings["listing-9"].BuyerID)
	assert.Equal(t, 1, f.githubGW.transferCalls)
	assert.Equal(t, "buyerdev", f.githubGW.lastTransferTarget)
	assert.Equal(t, "buyer-1", f.repoRepo.repos["repo-1"].OwnerUserID)
	assert.Contains(t, f.customerRepo.customers["buyer-1"].PurchasedRepos, "repo-1")
}

func TestProcessWebhookSubscriptionPurchase(t *testing.T) {
	f := newBillingFixture(t)
	f.listingRepo.listings["listing-9"] = &models.Listing{ID: "listing-9", Active: true, IsSubscription: true}
	f.stripeGW.event = checkoutEvent(t, fullMetadata("subscription"))

	err := f.service.ProcessWebhook(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)

	require.Len(t, f.txnRepo.txns, 1)
	txn := f.txnRepo.txns["txn-1"]
	assert.Equal(t, models.CollaborationStatusAdded, txn.CollaborationStatus)
	assert.Empty(t, txn.TransferStatus)

	// Subscriptions never sell the listing outright.
	assert.False(t, f.listingRepo.listings["listing-9"].Sold)
	assert.Zero(t, f.githubGW.transferCalls)
	assert.Equal(t, []string{"buyerdev"}, f.githubGW.collaboratorCalls)

	require.Len(t, f.subRepo.subs, 1)
	sub := f.subRepo.subs["sub-1"]
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, "txn-1", sub.TransactionID)
}

func TestProcessWebhookSelfPurchase(t *testing.T) {
	f := newBillingFixture(t)
	f.listingRepo.listings["listing-9"] = &models.Listing{ID: "listing-9", Active: true}
	meta := fullMetadata("onetime")
	meta["buyerId"] = "seller-1"
	f.stripeGW.event = checkoutEvent(t, meta)

	err := f.service.ProcessWebhook(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)

	require.Len(t, f.txnRepo.txns, 1)
	txn := f.txnRepo.txns["txn-1"]
	assert.Equal(t, models.TransactionTypeSelfPurchase, txn.Type)
	assert.Equal(t, models.TransferStatusNotApplicable, txn.TransferStatus)
	assert.Zero(t, f.githubGW.transferCalls)
}

func TestProcessWebhookTransferFailureRecorded(t *testing.T) {
	f := newBillingFixture(t)
	f.listingRepo.listings["listing-9"] = &models.Listing{ID: "listing-9", Active: true}
	f.githubGW.transferErr = assert.AnError
	f.stripeGW.event = checkoutEvent(t, fullMetadata("onetime"))

	err := f.service.ProcessWebhook(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err, "downstream github failures must not fail the webhook")

	require.Len(t, f.txnRepo.txns, 1)
	txn := f.txnRepo.txns["txn-1"]
	assert.Equal(t, models.TransferStatusFailed, txn.TransferStatus)
	assert.NotEmpty(t, txn.TransferError)
}

func TestProcessWebhookRenewal(t *testing.T) {
	f := newBillingFixture(t)
	f.subRepo.subs["sub-1"] = &models.Subscription{
		ID: "sub-1", ListingID: "listing-9", RepoID: "repo-1",
		SellerID: "seller-1", BuyerID: "buyer-1",
		StripeSubscriptionID: "stripe-sub-1", Status: models.SubscriptionStatusActive,
	}
	raw, err := json.Marshal(map[string]interface{}{
		"id":           "in_1",
		"object":       "invoice",
		"amount_paid":  999,
		"currency":     "usd",
		"subscription": "stripe-sub-1",
	})
	require.NoError(t, err)
	f.stripeGW.event = stripe.Event{Type: "invoice.payment_succeeded", Data: &stripe.EventData{Raw: raw}}

	require.NoError(t, f.service.ProcessWebhook(context.Background(), []byte(`{}`), "sig"))

	require.Len(t, f.txnRepo.txns, 1)
	txn := f.txnRepo.txns["txn-1"]
	assert.Equal(t, models.TransactionTypeRenewal, txn.Type)
	assert.Equal(t, int64(999), txn.AmountCents)
	assert.Equal(t, "in_1", txn.StripeInvoiceID)
	assert.False(t, f.subRepo.subs["sub-1"].LastBillingDate.IsZero())
}

func TestProcessWebhookSubscriptionDeleted(t *testing.T) {
	f := newBillingFixture(t)
	f.subRepo.subs["sub-1"] = &models.Subscription{
		ID: "sub-1", ListingID: "listing-9", RepoID: "repo-1",
		SellerID: "seller-1", BuyerID: "buyer-1",
		StripeSubscriptionID: "stripe-sub-1", Status: models.SubscriptionStatusActive,
	}
	raw, err := json.Marshal(map[string]interface{}{"id": "stripe-sub-1", "object": "subscription"})
	require.NoError(t, err)
	f.stripeGW.event = stripe.Event{Type: "customer.subscription.deleted", Data: &stripe.EventData{Raw: raw}}

	require.NoError(t, f.service.ProcessWebhook(context.Background(), []byte(`{}`), "sig"))

	sub := f.subRepo.subs["sub-1"]
	assert.Equal(t, models.SubscriptionStatusCanceled, sub.Status)
	assert.False(t, sub.AccessRevokedAt.IsZero())
	assert.Equal(t, []string{"buyerdev"}, f.githubGW.removedCollabs)
}

func TestVerifySessionIdempotent(t *testing.T) {
	f := newBillingFixture(t)
	f.listingRepo.listings["listing-9"] = &models.Listing{ID: "listing-9", Active: true}
	f.stripeGW.session = &stripe.CheckoutSession{
		ID:            "cs_test_1",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:      fullMetadata("onetime"),
	}

	first, err := f.service.VerifySession(context.Background(), "buyer-1", "cs_test_1")
	require.NoError(t, err)
	second, err := f.service.VerifySession(context.Background(), "buyer-1", "cs_test_1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.purchaseRepo.purchases, 1)
	assert.Equal(t, 1, f.listingRepo.soldCalls, "listing must be marked sold exactly once")
}

func TestVerifySessionRejectsUnpaid(t *testing.T) {
	f := newBillingFixture(t)
	f.stripeGW.session = &stripe.CheckoutSession{
		ID:            "cs_test_1",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
		Metadata:      fullMetadata("onetime"),
	}

	_, err := f.service.VerifySession(context.Background(), "buyer-1", "cs_test_1")
	require.ErrorIs(t, err, ErrSessionNotPaid)
	assert.Empty(t, f.purchaseRepo.purchases)
}

func TestVerifySessionRejectsWrongUser(t *testing.T) {
	f := newBillingFixture(t)
	f.stripeGW.session = &stripe.CheckoutSession{
		ID:            "cs_test_1",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:      fullMetadata("onetime"),
	}

	_, err := f.service.VerifySession(context.Background(), "someone-else", "cs_test_1")
	require.ErrorIs(t, err, ErrSessionOwnerMismatch)
}

func TestCreateCheckoutSessionConnectFee(t *testing.T) {
	f := newBillingFixture(t)
	f.listingRepo.listings["listing-9"] = &models.Listing{
		ID: "listing-9", Active: true, PriceCents: 10000,
		StripePriceID: "price_1",
		Seller:        models.Seller{UserID: "seller-1", GithubUsername: "sellerdev"},
		RepoID:        "repo-1",
	}
	seller := f.customerRepo.customers["seller-1"]
	seller.StripeConnectAccountID = "acct_seller"
	seller.StripeConnectOnboardingComplete = true

	result, err := f.service.CreateCheckoutSession(context.Background(), "buyer-1", models.CreateCheckoutSessionRequest{ListingID: "listing-9"})
	require.NoError(t, err)
	assert.Equal(t, "cs_test", result.SessionID)

	require.Len(t, f.stripeGW.checkoutCalls, 1)
	spec := f.stripeGW.checkoutCalls[0]
	assert.Equal(t, "acct_seller", spec.DestinationAccountID)
	assert.Equal(t, int64(500), spec.ApplicationFeeCents, "fee should be 5 percent of $100.00")
	assert.Equal(t, "buyer-1", spec.Metadata["buyerId"])
	assert.Equal(t, "repo-1", spec.Metadata["repoId"])
}

func TestCreateCheckoutSessionSoldListing(t *testing.T) {
	f := newBillingFixture(t)
	f.listingRepo.listings["listing-9"] = &models.Listing{
		ID: "listing-9", Active: true, Sold: true, StripePriceID: "price_1",
	}

	_, err := f.service.CreateCheckoutSession(context.Background(), "buyer-1", models.CreateCheckoutSessionRequest{ListingID: "listing-9"})
	require.ErrorIs(t, err, ErrListingSold)
}

package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"

	"github.com/webrend/marketplace-api/internal/config"
	"github.com/webrend/marketplace-api/internal/db"
	"github.com/webrend/marketplace-api/internal/models"
	"github.com/webrend/marketplace-api/internal/payments"
)

// Sentinel errors for billing operations.
var (
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrListingUnavailable    = errors.New("listing is not available for purchase")
	ErrListingSold           = errors.New("listing has already been sold")
	ErrListingNotPurchasable = errors.New("listing has no purchasable price")
	ErrSessionNotPaid        = errors.New("checkout session is not paid")
	ErrSessionOwnerMismatch  = errors.New("checkout session belongs to another user")
	ErrStripeCustomerMissing = errors.New("customer has no stripe billing account")
	ErrStripeUpstream        = errors.New("payment provider error")
)

type billingService struct {
	listingRepo  db.ListingRepository
	txnRepo      db.TransactionRepository
	subRepo      db.SubscriptionRepository
	purchaseRepo db.PurchaseRepository
	customerRepo db.CustomerRepository
	stripeGW     StripeGateway
	transfers    TransferService
	audit        AuditService
	cfg          *config.Config
	logger       *zap.Logger
}

// NewBillingService creates a BillingService.
func NewBillingService(
	listingRepo db.ListingRepository,
	txnRepo db.TransactionRepository,
	subRepo db.SubscriptionRepository,
	purchaseRepo db.PurchaseRepository,
	customerRepo db.CustomerRepository,
	stripeGW StripeGateway,
	transfers TransferService,
	audit AuditService,
	cfg *config.Config,
	logger *zap.Logger,
) BillingService {
	return &billingService{
		listingRepo:  listingRepo,
		txnRepo:      txnRepo,
		subRepo:      subRepo,
		purchaseRepo: purchaseRepo,
		customerRepo: customerRepo,
		stripeGW:     stripeGW,
		transfers:    transfers,
		audit:        audit,
		cfg:          cfg,
		logger:       logger,
	}
}

// CreateCheckoutSession builds a Stripe Checkout session for a listing. The
// metadata it attaches is what the webhook later uses to record the purchase.
func (s *billingService) CreateCheckoutSession(ctx context.Context, userID string, req models.CreateCheckoutSessionRequest) (*CheckoutSessionResult, error) {
	listing, err := s.listingRepo.GetByID(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrListingNotFound, req.ListingID)
		}
		return nil, fmt.Errorf("loading listing %s: %w", req.ListingID, err)
	}
	if !listing.Active {
		return nil, ErrListingUnavailable
	}

	pricing := listing.Pricing()
	if req.PricingType != "" {
		pricing = models.PricingType(req.PricingType)
	}
	if pricing == models.PricingOneTime && listing.Sold {
		return nil, ErrListingSold
	}
	if listing.StripePriceID == "" {
		return nil, ErrListingNotPurchasable
	}

	buyer, err := s.customerRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, userID)
		}
		return nil, fmt.Errorf("loading buyer %s: %w", userID, err)
	}

	spec := payments.CheckoutSessionSpec{
		PriceID:       listing.StripePriceID,
		Subscription:  pricing == models.PricingSubscription,
		SuccessURL:    s.cfg.ClientURL + "/marketplace/buy/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.cfg.ClientURL + "/marketplace/" + listing.ID,
		CustomerEmail: buyer.Email,
		Metadata: map[string]string{
			"listingId":           listing.ID,
			"documentId":          listing.ID,
			"repoId":              listing.RepoID,
			"sellerId":            listing.Seller.UserID,
			"buyerId":             userID,
			"pricingType":         string(pricing),
			"buyerGithubUsername": buyer.GithubUsername,
		},
	}

	// Route funds to the seller's Connect account when onboarding finished;
	// otherwise the platform collects directly.
	seller, err := s.customerRepo.GetByID(ctx, listing.Seller.UserID)
	if err == nil && seller.StripeConnectOnboardingComplete && seller.StripeConnectAccountID != "" {
		spec.DestinationAccountID = seller.StripeConnectAccountID
		if pricing == models.PricingSubscription {
			spec.ApplicationFeePct = float64(s.cfg.PlatformFeePercent)
		} else {
			spec.ApplicationFeeCents = payments.CalculatePlatformFee(listing.PriceCents, s.cfg.PlatformFeePercent)
		}
	}

	session, err := s.stripeGW.CreateCheckoutSession(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStripeUpstream, err)
	}
	return &CheckoutSessionResult{SessionID: session.ID, SessionURL: session.URL}, nil
}

// VerifySession confirms a completed checkout from the client's success
// redirect. The purchase document is keyed by the session ID, so repeated or
// concurrent calls record at most one purchase.
func (s *billingService) VerifySession(ctx context.Context, userID, sessionID string) (*models.Purchase, error) {
	session, err := s.stripeGW.RetrieveCheckoutSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStripeUpstream, err)
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, ErrSessionNotPaid
	}
	if buyerID := session.Metadata["buyerId"]; buyerID != "" && buyerID != userID {
		return nil, ErrSessionOwnerMismatch
	}

	listingID := session.Metadata["listingId"]
	documentID := session.Metadata["documentId"]
	if documentID == "" {
		documentID = listingID
	}
	pricing := models.PricingType(session.Metadata["pricingType"])
	if pricing == "" {
		pricing = models.PricingOneTime
	}

	purchase := &models.Purchase{
		ID:              session.ID,
		UserID:          userID,
		ListingID:       listingID,
		DocumentID:      documentID,
		PurchaseType:    pricing,
		Status:          "completed",
		TransferStatus:  models.TransferStatusPending,
		StripeSessionID: session.ID,
	}
	if session.PaymentIntent != nil {
		purchase.StripePaymentIntentID = session.PaymentIntent.ID
	}
	if session.Subscription != nil {
		purchase.StripeSubscriptionID = session.Subscription.ID
	}

	created, err := s.purchaseRepo.CreateIfAbsent(ctx, purchase)
	if err != nil {
		return nil, fmt.Errorf("recording purchase for session %s: %w", sessionID, err)
	}
	if !created {
		existing, err := s.purchaseRepo.GetBySessionID(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("loading existing purchase %s: %w", sessionID, err)
		}
		return existing, nil
	}

	// First verification for this session. The webhook normally does these
	// writes too; both paths are idempotent.
	if pricing == models.PricingOneTime && documentID != "" {
		if err := s.listingRepo.MarkSold(ctx, documentID, userID); err != nil {
			s.logger.Warn("failed to mark listing sold during verification",
				zap.String("listingID", documentID), zap.Error(err))
		}
	}
	if repoID := session.Metadata["repoId"]; repoID != "" {
		if err := s.customerRepo.AppendPurchasedRepo(ctx, userID, repoID); err != nil {
			s.logger.Warn("failed to append purchased repo",
				zap.String("userID", userID), zap.Error(err))
		}
	}
	return purchase, nil
}

// CreatePortalSession returns a Stripe Billing Portal URL for the customer.
func (s *billingService) CreatePortalSession(ctx context.Context, userID string) (string, error) {
	customer, err := s.customerRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrCustomerNotFound, userID)
		}
		return "", fmt.Errorf("loading customer %s: %w", userID, err)
	}
	if customer.StripeCustomerID == "" {
		return "", ErrStripeCustomerMissing
	}
	url, err := s.stripeGW.CreatePortalSession(customer.StripeCustomerID, s.cfg.ClientURL+"/account")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStripeUpstream, err)
	}
	return url, nil
}

// ProcessWebhook verifies and dispatches a Stripe webhook event. Only a bad
// signature is returned as an error; handled events that fail downstream are
// logged and recorded on their documents so Stripe does not retry forever.
func (s *billingService) ProcessWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.stripeGW.ConstructWebhookEvent(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			s.logger.Error("failed to decode checkout session event", zap.Error(err))
			return nil
		}
		s.handleCheckoutCompleted(ctx, &session)
	case "invoice.payment_succeeded":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			s.logger.Error("failed to decode invoice event", zap.Error(err))
			return nil
		}
		s.handleInvoicePaid(ctx, &invoice)
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			s.logger.Error("failed to decode subscription event", zap.Error(err))
			return nil
		}
		s.handleSubscriptionDeleted(ctx, &sub)
	default:
		s.logger.Debug("ignoring webhook event", zap.String("type", string(event.Type)))
	}
	return nil
}

// handleCheckoutCompleted records the transaction for a completed checkout
// and kicks off the GitHub side: ownership transfer for one-time purchases,
// collaborator access for subscriptions.
func (s *billingService) handleCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) {
	meta := session.Metadata
	listingID := meta["listingId"]
	repoID := meta["repoId"]
	sellerID := meta["sellerId"]
	buyerID := meta["buyerId"]
	if listingID == "" || repoID == "" || sellerID == "" || buyerID == "" {
		s.logger.Warn("checkout session missing required metadata, skipping",
			zap.String("sessionID", session.ID),
			zap.String("listingId", listingID),
			zap.String("repoId", repoID),
			zap.String("sellerId", sellerID),
			zap.String("buyerId", buyerID))
		return
	}

	pricing := models.PricingType(meta["pricingType"])
	if pricing == "" {
		pricing = models.PricingOneTime
	}

	txn := &models.Transaction{
		ListingID:           listingID,
		RepoID:              repoID,
		SellerID:            sellerID,
		BuyerID:             buyerID,
		BuyerGithubUsername: meta["buyerGithubUsername"],
		PricingType:         pricing,
		Type:                models.TransactionTypePurchase,
		StripeSessionID:     session.ID,
		AmountCents:         session.AmountTotal,
		Currency:            string(session.Currency),
		Status:              "completed",
	}
	if session.PaymentIntent != nil {
		txn.StripePaymentIntentID = session.PaymentIntent.ID
	}
	if session.Subscription != nil {
		txn.StripeSubscriptionID = session.Subscription.ID
	}
	if pricing == models.PricingOneTime {
		txn.TransferStatus = models.TransferStatusPending
	} else {
		txn.CollaborationStatus = models.CollaborationStatusPending
	}

	txnID, err := s.txnRepo.Create(ctx, txn)
	if err != nil {
		s.logger.Error("failed to record transaction for checkout session",
			zap.String("sessionID", session.ID), zap.Error(err))
		return
	}

	if err := s.customerRepo.AppendPurchasedRepo(ctx, buyerID, repoID); err != nil {
		s.logger.Warn("failed to append purchased repo",
			zap.String("buyerID", buyerID), zap.Error(err))
	}
	s.recordCustomerBillingID(ctx, buyerID, session)

	s.audit.Record(ctx, models.AuditLog{
		UserID:     AuditUserWebhook,
		Action:     AuditActionPurchaseRecorded,
		TargetType: "TRANSACTION",
		TargetID:   txnID,
		Details: map[string]interface{}{
			"listingId":   listingID,
			"buyerId":     buyerID,
			"pricingType": string(pricing),
		},
	})

	documentID := meta["documentId"]
	if documentID == "" {
		documentID = listingID
	}

	if pricing == models.PricingOneTime {
		if err := s.listingRepo.MarkSold(ctx, documentID, buyerID); err != nil {
			s.logger.Error("failed to mark listing sold",
				zap.String("listingID", documentID), zap.Error(err))
		}
		if _, err := s.transfers.Execute(ctx, buyerID, models.TransferRequest{
			RepoID:           repoID,
			SellerID:         sellerID,
			IsSinglePurchase: true,
			TransactionID:    txnID,
		}); err != nil {
			s.logger.Error("repository transfer could not start",
				zap.String("transactionID", txnID), zap.Error(err))
		}
		return
	}

	sub := &models.Subscription{
		ListingID:     listingID,
		RepoID:        repoID,
		SellerID:      sellerID,
		BuyerID:       buyerID,
		Status:        models.SubscriptionStatusActive,
		TransactionID: txnID,
		StartDate:     time.Now().UTC(),
	}
	if session.Subscription != nil {
		sub.StripeSubscriptionID = session.Subscription.ID
	}
	if _, err := s.subRepo.Create(ctx, sub); err != nil {
		s.logger.Error("failed to record subscription",
			zap.String("sessionID", session.ID), zap.Error(err))
	}
	if _, err := s.transfers.Execute(ctx, buyerID, models.TransferRequest{
		RepoID:           repoID,
		SellerID:         sellerID,
		IsSinglePurchase: false,
		TransactionID:    txnID,
	}); err != nil {
		s.logger.Error("collaborator grant could not start",
			zap.String("transactionID", txnID), zap.Error(err))
	}
}

// recordCustomerBillingID stores the Stripe customer ID from the first
// checkout so the billing portal works later.
func (s *billingService) recordCustomerBillingID(ctx context.Context, buyerID string, session *stripe.CheckoutSession) {
	if session.Customer == nil || session.Customer.ID == "" {
		return
	}
	customer, err := s.customerRepo.GetByID(ctx, buyerID)
	if err != nil || customer.StripeCustomerID != "" {
		return
	}
	customer.StripeCustomerID = session.Customer.ID
	if err := s.customerRepo.Update(ctx, customer); err != nil {
		s.logger.Warn("failed to store stripe customer id",
			zap.String("userID", buyerID), zap.Error(err))
	}
}

// handleInvoicePaid records a subscription renewal.
func (s *billingService) handleInvoicePaid(ctx context.Context, invoice *stripe.Invoice) {
	if invoice.Subscription == nil || invoice.Subscription.ID == "" {
		return
	}
	sub, err := s.subRepo.GetByStripeSubscriptionID(ctx, invoice.Subscription.ID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("renewal invoice for unknown subscription",
				zap.String("stripeSubscriptionID", invoice.Subscription.ID))
			return
		}
		s.logger.Error("failed to look up subscription for invoice",
			zap.String("invoiceID", invoice.ID), zap.Error(err))
		return
	}

	txn := &models.Transaction{
		ListingID:            sub.ListingID,
		RepoID:               sub.RepoID,
		SellerID:             sub.SellerID,
		BuyerID:              sub.BuyerID,
		PricingType:          models.PricingSubscription,
		Type:                 models.TransactionTypeRenewal,
		StripeSubscriptionID: sub.StripeSubscriptionID,
		StripeInvoiceID:      invoice.ID,
		AmountCents:          invoice.AmountPaid,
		Currency:             string(invoice.Currency),
		Status:               "completed",
	}
	txnID, err := s.txnRepo.Create(ctx, txn)
	if err != nil {
		s.logger.Error("failed to record renewal transaction",
			zap.String("invoiceID", invoice.ID), zap.Error(err))
		return
	}
	if err := s.subRepo.RecordRenewal(ctx, sub.ID); err != nil {
		s.logger.Error("failed to record renewal billing date",
			zap.String("subscriptionID", sub.ID), zap.Error(err))
	}
	s.audit.Record(ctx, models.AuditLog{
		UserID:     AuditUserWebhook,
		Action:     AuditActionRenewalRecorded,
		TargetType: "SUBSCRIPTION",
		TargetID:   sub.ID,
		Details:    map[string]interface{}{"transactionId": txnID, "invoiceId": invoice.ID},
	})
}

// handleSubscriptionDeleted marks the subscription canceled and revokes the
// buyer's collaborator access.
func (s *billingService) handleSubscriptionDeleted(ctx context.Context, stripeSub *stripe.Subscription) {
	sub, err := s.subRepo.GetByStripeSubscriptionID(ctx, stripeSub.ID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("cancellation for unknown subscription",
				zap.String("stripeSubscriptionID", stripeSub.ID))
			return
		}
		s.logger.Error("failed to look up subscription for cancellation",
			zap.String("stripeSubscriptionID", stripeSub.ID), zap.Error(err))
		return
	}

	if err := s.subRepo.MarkCanceled(ctx, sub.ID); err != nil {
		s.logger.Error("failed to mark subscription canceled",
			zap.String("subscriptionID", sub.ID), zap.Error(err))
	}
	if err := s.transfers.RevokeAccess(ctx, sub.ID); err != nil {
		// Already recorded on the subscription document by RevokeAccess.
		s.logger.Error("failed to revoke collaborator access",
			zap.String("subscriptionID", sub.ID), zap.Error(err))
	}
	s.audit.Record(ctx, models.AuditLog{
		UserID:     AuditUserWebhook,
		Action:     AuditActionSubscriptionCanceled,
		TargetType: "SUBSCRIPTION",
		TargetID:   sub.ID,
	})
}

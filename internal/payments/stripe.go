// Package payments wraps the Stripe SDK behind a small gateway so the core
// services can be exercised against fakes in tests.
package payments

import (
	"fmt"
	"math"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

// CheckoutSessionSpec describes the checkout session the billing service
// wants, independent of Stripe's parameter structs.
type CheckoutSessionSpec struct {
	PriceID              string
	Subscription         bool
	SuccessURL           string
	CancelURL            string
	CustomerEmail        string
	Metadata             map[string]string
	ApplicationFeeCents  int64  // one-time purchases; ignored for subscriptions
	ApplicationFeePct    float64 // subscriptions; ignored for one-time purchases
	DestinationAccountID string // seller's Connect account; empty for direct charges
}

// ProductSpec describes a Stripe product + price pair for a listing.
type ProductSpec struct {
	Name           string
	Description    string
	ImageURL       string
	RepoID         string
	SellerUsername string
	AmountCents    int64
	Recurring      bool // monthly interval when true
}

// Gateway is the production Stripe client.
type Gateway struct {
	api           *client.API
	webhookSecret string
}

// NewGateway builds a Stripe gateway from the secret key and webhook secret.
func NewGateway(secretKey, webhookSecret string) *Gateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Gateway{api: api, webhookSecret: webhookSecret}
}

// ConstructWebhookEvent verifies the Stripe-Signature header against the raw
// payload and returns the parsed event.
func (g *Gateway) ConstructWebhookEvent(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signature, g.webhookSecret)
}

// CreateCheckoutSession creates a Stripe Checkout session for a listing.
func (g *Gateway) CreateCheckoutSession(spec CheckoutSessionSpec) (*stripe.CheckoutSession, error) {
	mode := stripe.CheckoutSessionModePayment
	if spec.Subscription {
		mode = stripe.CheckoutSessionModeSubscription
	}
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(mode)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(spec.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(spec.SuccessURL),
		CancelURL:  stripe.String(spec.CancelURL),
	}
	if spec.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(spec.CustomerEmail)
	}
	for k, v := range spec.Metadata {
		params.AddMetadata(k, v)
	}
	if spec.DestinationAccountID != "" {
		if spec.Subscription {
			params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
				ApplicationFeePercent: stripe.Float64(spec.ApplicationFeePct),
				TransferData: &stripe.CheckoutSessionSubscriptionDataTransferDataParams{
					Destination: stripe.String(spec.DestinationAccountID),
				},
			}
		} else {
			params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
				ApplicationFeeAmount: stripe.Int64(spec.ApplicationFeeCents),
				TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
					Destination: stripe.String(spec.DestinationAccountID),
				},
			}
		}
	}
	return g.api.CheckoutSessions.New(params)
}

// RetrieveCheckoutSession fetches a checkout session from Stripe with its
// payment intent and subscription expanded.
func (g *Gateway) RetrieveCheckoutSession(sessionID string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.AddExpand("payment_intent")
	params.AddExpand("subscription")
	return g.api.CheckoutSessions.Get(sessionID, params)
}

// CreateConnectAccount creates a Stripe Express account for a seller.
func (g *Gateway) CreateConnectAccount(email, displayName, firebaseUID string) (*stripe.Account, error) {
	name := displayName
	if name == "" {
		name = "GitHub Repository Seller"
	}
	params := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
		BusinessProfile: &stripe.AccountBusinessProfileParams{
			Name:               stripe.String(name),
			ProductDescription: stripe.String("Selling software repositories and code"),
		},
	}
	params.AddMetadata("firebaseUserId", firebaseUID)
	return g.api.Accounts.New(params)
}

// RetrieveAccount fetches a Connect account, used to check charges_enabled.
func (g *Gateway) RetrieveAccount(accountID string) (*stripe.Account, error) {
	return g.api.Accounts.GetByID(accountID, nil)
}

// CreateAccountLink creates an onboarding link for a Connect account.
func (g *Gateway) CreateAccountLink(accountID, refreshURL, returnURL string) (string, error) {
	link, err := g.api.AccountLinks.New(&stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	})
	if err != nil {
		return "", err
	}
	return link.URL, nil
}

// CreateProductWithPrice creates a Stripe product and its price for a new
// listing. Subscription listings get a monthly recurring price.
func (g *Gateway) CreateProductWithPrice(spec ProductSpec) (productID, priceID string, err error) {
	productParams := &stripe.ProductParams{
		Name:        stripe.String(spec.Name),
		Description: stripe.String(spec.Description),
	}
	if spec.ImageURL != "" {
		productParams.Images = stripe.StringSlice([]string{spec.ImageURL})
	}
	productParams.AddMetadata("repoId", spec.RepoID)
	productParams.AddMetadata("sellerUsername", spec.SellerUsername)

	product, err := g.api.Products.New(productParams)
	if err != nil {
		return "", "", fmt.Errorf("stripe product creation failed: %w", err)
	}

	priceParams := &stripe.PriceParams{
		Product:    stripe.String(product.ID),
		UnitAmount: stripe.Int64(spec.AmountCents),
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
	}
	if spec.Recurring {
		priceParams.Recurring = &stripe.PriceRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		}
	}
	price, err := g.api.Prices.New(priceParams)
	if err != nil {
		return "", "", fmt.Errorf("stripe price creation failed: %w", err)
	}
	return product.ID, price.ID, nil
}

// ArchiveProduct deactivates a Stripe product when a listing is archived.
func (g *Gateway) ArchiveProduct(productID string) error {
	_, err := g.api.Products.Update(productID, &stripe.ProductParams{Active: stripe.Bool(false)})
	return err
}

// CreatePortalSession creates a Stripe Customer Portal session.
func (g *Gateway) CreatePortalSession(customerID, returnURL string) (string, error) {
	session, err := g.api.BillingPortalSessions.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	})
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

// FormatAmountForStripe converts a dollar amount to cents.
func FormatAmountForStripe(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FormatAmountFromStripe converts cents back to dollars.
func FormatAmountFromStripe(amount int64) float64 {
	return float64(amount) / 100
}

// CalculatePlatformFee returns the platform's cut of an amount in cents.
func CalculatePlatformFee(amountCents int64, feePercent int) int64 {
	return int64(math.Round(float64(amountCents) * float64(feePercent) / 100))
}

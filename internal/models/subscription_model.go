package models

import "time"

// SubscriptionStatus is the lifecycle of a recurring-access record.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Subscription is a recurring-access record created on the first successful
// checkout and updated by renewal and cancellation webhooks.
type Subscription struct {
	ID                   string             `json:"id" firestore:"-"`
	ListingID            string             `json:"listingId" firestore:"listingId"`
	RepoID               string             `json:"repoId" firestore:"repoId"`
	SellerID             string             `json:"sellerId" firestore:"sellerId"`
	BuyerID              string             `json:"buyerId" firestore:"buyerId"`
	StripeSubscriptionID string             `json:"stripeSubscriptionId" firestore:"stripeSubscriptionId"`
	Status               SubscriptionStatus `json:"status" firestore:"status"`
	TransactionID        string             `json:"transactionId,omitempty" firestore:"transactionId,omitempty"`
	StartDate            time.Time          `json:"startDate" firestore:"startDate"`
	LastBillingDate      time.Time          `json:"lastBillingDate,omitempty" firestore:"lastBillingDate,omitempty"`
	CanceledAt           time.Time          `json:"canceledAt,omitempty" firestore:"canceledAt,omitempty"`
	AccessRevokedAt      time.Time          `json:"accessRevokedAt,omitempty" firestore:"accessRevokedAt,omitempty"`
	RevokeError          string             `json:"revokeError,omitempty" firestore:"revokeError,omitempty"`
}

// Purchase is the buyer-scoped, denormalized copy of a completed checkout
// used for quick "my purchases" listings. The Firestore document ID is the
// Stripe checkout session ID, which makes creation naturally idempotent.
type Purchase struct {
	ID                    string         `json:"id" firestore:"-"` // = Stripe checkout session ID
	UserID                string         `json:"userId" firestore:"userId"`
	ListingID             string         `json:"listingId" firestore:"listingId"`
	DocumentID            string         `json:"documentId" firestore:"documentId"` // Firestore listing doc ID
	PurchaseType          PricingType    `json:"purchaseType" firestore:"purchaseType"`
	Status                string         `json:"status" firestore:"status"`
	TransferStatus        TransferStatus `json:"transferStatus,omitempty" firestore:"transferStatus,omitempty"`
	StripeSessionID       string         `json:"stripeSessionId" firestore:"stripeSessionId"`
	StripePaymentIntentID string         `json:"stripePaymentIntentId,omitempty" firestore:"stripePaymentIntentId,omitempty"`
	StripeSubscriptionID  string         `json:"stripeSubscriptionId,omitempty" firestore:"stripeSubscriptionId,omitempty"`
	PurchaseDate          time.Time      `json:"purchaseDate" firestore:"purchaseDate,serverTimestamp"`
}

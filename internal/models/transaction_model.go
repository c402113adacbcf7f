package models

import "time"

// TransferStatus is the closed set of states a repository ownership transfer
// can be in. It replaces the free-text status strings the legacy system used,
// so eventual-consistency gaps are visible and testable.
type TransferStatus string

const (
	TransferStatusPending       TransferStatus = "pending"
	TransferStatusInitiated     TransferStatus = "initiated" // GitHub accepted the transfer (202); the new owner must confirm
	TransferStatusCompleted     TransferStatus = "completed"
	TransferStatusFailed        TransferStatus = "failed"
	TransferStatusNotApplicable TransferStatus = "not_applicable" // e.g. self-purchase
)

// CollaborationStatus is the closed set of states for subscription-based
// collaborator access.
type CollaborationStatus string

const (
	CollaborationStatusPending CollaborationStatus = "pending"
	CollaborationStatusAdded   CollaborationStatus = "added"
	CollaborationStatusFailed  CollaborationStatus = "failed"
)

// TransactionType classifies what a transaction records.
type TransactionType string

const (
	TransactionTypePurchase     TransactionType = "purchase"
	TransactionTypeRenewal      TransactionType = "subscription_renewal"
	TransactionTypeSelfPurchase TransactionType = "repository_self_purchase"
)

// Transaction is a record of a completed Stripe payment tied to a listing,
// buyer, and seller. It is created once per webhook event and mutated in
// place as downstream GitHub calls succeed or fail.
type Transaction struct {
	ID                    string              `json:"id" firestore:"-"`
	ListingID             string              `json:"listingId" firestore:"listingId"`
	RepoID                string              `json:"repoId" firestore:"repoId"`
	SellerID              string              `json:"sellerId" firestore:"sellerId"`
	BuyerID               string              `json:"buyerId" firestore:"buyerId"`
	SellerGithubUsername  string              `json:"sellerGithubUsername,omitempty" firestore:"sellerGithubUsername,omitempty"`
	BuyerGithubUsername   string              `json:"buyerGithubUsername,omitempty" firestore:"buyerGithubUsername,omitempty"`
	PricingType           PricingType         `json:"pricingType" firestore:"pricingType"`
	Type                  TransactionType     `json:"type" firestore:"type"`
	StripeSessionID       string              `json:"stripeSessionId,omitempty" firestore:"stripeSessionId,omitempty"`
	StripePaymentIntentID string              `json:"stripePaymentIntentId,omitempty" firestore:"stripePaymentIntentId,omitempty"`
	StripeSubscriptionID  string              `json:"stripeSubscriptionId,omitempty" firestore:"stripeSubscriptionId,omitempty"`
	StripeInvoiceID       string              `json:"stripeInvoiceId,omitempty" firestore:"stripeInvoiceId,omitempty"`
	AmountCents           int64               `json:"amountCents" firestore:"amountCents"`
	Currency              string              `json:"currency,omitempty" firestore:"currency,omitempty"`
	Status                string              `json:"status" firestore:"status"` // "completed" once the payment cleared
	TransferStatus        TransferStatus      `json:"transferStatus,omitempty" firestore:"transferStatus,omitempty"`
	TransferError         string              `json:"transferError,omitempty" firestore:"transferError,omitempty"`
	GithubTransferID      int64               `json:"githubTransferId,omitempty" firestore:"githubTransferId,omitempty"`
	CollaborationStatus   CollaborationStatus `json:"collaborationStatus,omitempty" firestore:"collaborationStatus,omitempty"`
	CollaborationError    string              `json:"collaborationError,omitempty" firestore:"collaborationError,omitempty"`
	Note                  string              `json:"note,omitempty" firestore:"note,omitempty"`
	CreatedAt             time.Time           `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt             time.Time           `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

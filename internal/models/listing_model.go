package models

import "time"

// PricingType distinguishes one-time purchases from recurring subscriptions.
type PricingType string

const (
	PricingOneTime      PricingType = "onetime"
	PricingSubscription PricingType = "subscription"
)

// Seller is the denormalized seller summary embedded in a listing.
type Seller struct {
	UserID         string `json:"userId" firestore:"userId"`
	GithubUsername string `json:"githubUsername" firestore:"githubUsername"`
	AvatarURL      string `json:"avatarUrl,omitempty" firestore:"avatarUrl,omitempty"`
}

// Listing represents a marketplace entry: a GitHub repository offered for
// sale or subscription. Listings are never hard-deleted by the purchase
// pipeline; `sold` and `active` are the lifecycle flags.
type Listing struct {
	ID                    string      `json:"id" firestore:"-"` // Document ID, auto-generated
	Name                  string      `json:"name" firestore:"name"`
	Slug                  string      `json:"slug" firestore:"slug"`
	Description           string      `json:"description" firestore:"description"`
	PriceCents            int64       `json:"priceCents" firestore:"priceCents"`
	IsSubscription        bool        `json:"isSubscription" firestore:"isSubscription"`
	SubscriptionPriceCents int64      `json:"subscriptionPriceCents,omitempty" firestore:"subscriptionPriceCents,omitempty"`
	ImageURL              string      `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`
	Seller                Seller      `json:"seller" firestore:"seller"`
	RepoID                string      `json:"repoId" firestore:"repoId"`
	Stars                 int         `json:"stars" firestore:"stars"`
	Forks                 int         `json:"forks" firestore:"forks"`
	StripeProductID       string      `json:"stripeProductId,omitempty" firestore:"stripeProductId,omitempty"`
	StripePriceID         string      `json:"stripePriceId,omitempty" firestore:"stripePriceId,omitempty"`
	Sold                  bool        `json:"sold" firestore:"sold"`
	BuyerID               string      `json:"buyerId,omitempty" firestore:"buyerId,omitempty"`
	Active                bool        `json:"active" firestore:"active"`
	CreatedAt             time.Time   `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt             time.Time   `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// Pricing returns the effective pricing type of the listing.
func (l *Listing) Pricing() PricingType {
	if l.IsSubscription {
		return PricingSubscription
	}
	return PricingOneTime
}

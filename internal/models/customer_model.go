package models

import "time"

// Customer represents a user of the marketplace. The document ID is the
// Firebase Auth UID. It carries the GitHub OAuth linkage and the Stripe
// Connect account used for seller payouts.
type Customer struct {
	ID                            string    `json:"id" firestore:"-"` // Firebase Auth UID, used as the document ID
	Email                         string    `json:"email" firestore:"email"`
	DisplayName                   string    `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	PhotoURL                      string    `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`
	GithubID                      int64     `json:"githubId,omitempty" firestore:"githubId,omitempty"`
	GithubUsername                string    `json:"githubUsername,omitempty" firestore:"githubUsername,omitempty"`
	GithubAccessToken             string    `json:"-" firestore:"githubAccessToken,omitempty"` // never serialized to clients
	GithubConnectedAt             time.Time `json:"githubConnectedAt,omitempty" firestore:"githubConnectedAt,omitempty"`
	StripeCustomerID              string    `json:"stripeCustomerId,omitempty" firestore:"stripeCustomerId,omitempty"`
	StripeConnectAccountID        string    `json:"stripeConnectAccountId,omitempty" firestore:"stripeConnectAccountId,omitempty"`
	StripeConnectOnboardingComplete bool    `json:"stripeConnectOnboardingComplete" firestore:"stripeConnectOnboardingComplete"`
	PurchasedRepos                []string  `json:"purchasedRepos,omitempty" firestore:"purchasedRepos,omitempty"`
	CreatedAt                     time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt                     time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// HasGithub reports whether the customer has a usable GitHub OAuth linkage.
func (c *Customer) HasGithub() bool {
	return c.GithubAccessToken != "" && c.GithubUsername != ""
}

// Repository is the marketplace's record of a sellable GitHub repository.
// Ownership fields are updated when a one-time purchase transfers the repo.
type Repository struct {
	ID                  string    `json:"id" firestore:"-"`
	Name                string    `json:"name" firestore:"name"`
	GithubRepoID        int64     `json:"githubRepoId,omitempty" firestore:"githubRepoId,omitempty"`
	OwnerUserID         string    `json:"ownerUserId" firestore:"ownerUserId"`
	PreviousOwnerUserID string    `json:"previousOwnerUserId,omitempty" firestore:"previousOwnerUserId,omitempty"`
	TransferredAt       time.Time `json:"transferredAt,omitempty" firestore:"transferredAt,omitempty"`
	CreatedAt           time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt           time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

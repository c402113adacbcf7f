package models

// CreateListingRequest is the request body for listing a repository for sale.
// Prices are given in dollars and converted to cents before storage. Either
// repoId (an already-registered repository document) or repoFullName
// ("owner/name", registered on the fly from GitHub) must be provided.
type CreateListingRequest struct {
	Name              string  `json:"name" binding:"required"`
	Description       string  `json:"description" binding:"required"`
	Price             float64 `json:"price" binding:"required"`
	IsSubscription    bool    `json:"isSubscription"`
	SubscriptionPrice float64 `json:"subscriptionPrice,omitempty"`
	ImageURL          string  `json:"imageUrl,omitempty"`
	RepoID            string  `json:"repoId,omitempty"`
	RepoFullName      string  `json:"repoFullName,omitempty"`
}

// CreateCheckoutSessionRequest starts a Stripe Checkout for a listing.
type CreateCheckoutSessionRequest struct {
	ListingID   string `json:"listingId" binding:"required"`
	PricingType string `json:"pricingType,omitempty"` // "onetime" (default) or "subscription"
}

// VerifySessionRequest asks the backend to confirm a completed checkout.
type VerifySessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// TransferRequest asks for a repository ownership transfer or collaborator
// grant after a completed payment. The buyer is always present on the caller.
type TransferRequest struct {
	RepoID           string `json:"repoId" binding:"required"`
	SellerID         string `json:"sellerId" binding:"required"`
	IsSinglePurchase bool   `json:"isSinglePurchase"`
	TransactionID    string `json:"transactionId,omitempty"`
}

// RevokeAccessRequest removes a subscriber's collaborator access.
type RevokeAccessRequest struct {
	SubscriptionID string `json:"subscriptionId" binding:"required"`
}

// SubmitTestimonialRequest is the public testimonial submission body.
type SubmitTestimonialRequest struct {
	Person          string `json:"person" binding:"required"`
	Comment         string `json:"comment" binding:"required"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
	ReferenceLink   string `json:"referenceLink,omitempty"`
	ProjectLink     string `json:"projectLink,omitempty"`
}

// ModerateTestimonialRequest approves or rejects a pending testimonial.
type ModerateTestimonialRequest struct {
	ID     string `json:"id" binding:"required"`
	Action string `json:"action" binding:"required"` // "approve" or "reject"
}

// AddPortfolioProjectRequest is the admin request body for a new case study.
type AddPortfolioProjectRequest struct {
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description" binding:"required"`
	ImageURL       string   `json:"imageUrl" binding:"required"`
	ProjectURL     string   `json:"projectUrl,omitempty"`
	Tags           []string `json:"tags" binding:"required"`
	DateCompleted  string   `json:"dateCompleted" binding:"required"` // YYYY-MM-DD
	Featured       bool     `json:"featured"`
	ClientName     string   `json:"clientName,omitempty"`
	ProjectGoal    string   `json:"projectGoal" binding:"required"`
	Solution       string   `json:"solution" binding:"required"`
	KeyFeatures    []string `json:"keyFeatures,omitempty"`
	Challenges     string   `json:"challenges,omitempty"`
	Results        string   `json:"results,omitempty"`
	GalleryImages  []string `json:"galleryImages,omitempty"`
	VideoURL       string   `json:"videoUrl,omitempty"`
	SEOTitle       string   `json:"seoTitle,omitempty"`
	SEODescription string   `json:"seoDescription,omitempty"`
}

// UpdatePortfolioProjectRequest carries partial updates; pointers distinguish
// "not provided" from an explicit empty value.
type UpdatePortfolioProjectRequest struct {
	Title         *string   `json:"title,omitempty"`
	Description   *string   `json:"description,omitempty"`
	ImageURL      *string   `json:"imageUrl,omitempty"`
	ProjectURL    *string   `json:"projectUrl,omitempty"`
	Tags          *[]string `json:"tags,omitempty"`
	DateCompleted *string   `json:"dateCompleted,omitempty"`
	Featured      *bool     `json:"featured,omitempty"`
	ProjectGoal   *string   `json:"projectGoal,omitempty"`
	Solution      *string   `json:"solution,omitempty"`
	Results       *string   `json:"results,omitempty"`
}

// CreateArticleRequest is the admin request body for a blog post.
type CreateArticleRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content" binding:"required"`
	Excerpt  string `json:"excerpt,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Author   string `json:"author,omitempty"`
}

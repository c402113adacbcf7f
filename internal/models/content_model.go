package models

import "time"

// PortfolioProject is a case-study entry managed by admins.
type PortfolioProject struct {
	ID            string    `json:"id" firestore:"-"`
	Title         string    `json:"title" firestore:"title"`
	Slug          string    `json:"slug" firestore:"slug"`
	Description   string    `json:"description" firestore:"description"`
	ImageURL      string    `json:"imageUrl" firestore:"imageUrl"`
	ProjectURL    string    `json:"projectUrl,omitempty" firestore:"projectUrl,omitempty"`
	Tags          []string  `json:"tags" firestore:"tags"`
	DateCompleted string    `json:"dateCompleted" firestore:"dateCompleted"` // YYYY-MM-DD
	Featured      bool      `json:"featured" firestore:"featured"`
	ClientName    string    `json:"clientName,omitempty" firestore:"clientName,omitempty"`
	ProjectGoal   string    `json:"projectGoal" firestore:"projectGoal"`
	Solution      string    `json:"solution" firestore:"solution"`
	KeyFeatures   []string  `json:"keyFeatures,omitempty" firestore:"keyFeatures,omitempty"`
	Challenges    string    `json:"challenges,omitempty" firestore:"challenges,omitempty"`
	Results       string    `json:"results,omitempty" firestore:"results,omitempty"`
	GalleryImages []string  `json:"galleryImages,omitempty" firestore:"galleryImages,omitempty"`
	VideoURL      string    `json:"videoUrl,omitempty" firestore:"videoUrl,omitempty"`
	SEOTitle      string    `json:"seoTitle,omitempty" firestore:"seoTitle,omitempty"`
	SEODescription string   `json:"seoDescription,omitempty" firestore:"seoDescription,omitempty"`
	CreatedAt     time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt     time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// TestimonialStatus is the moderation state of a submitted testimonial.
type TestimonialStatus string

const (
	TestimonialStatusPending  TestimonialStatus = "pending"
	TestimonialStatusApproved TestimonialStatus = "approved"
	TestimonialStatusRejected TestimonialStatus = "rejected"
)

// Testimonial is a publicly submitted review that goes through admin
// moderation before it is shown anywhere.
type Testimonial struct {
	ID              string            `json:"id" firestore:"-"`
	Person          string            `json:"person" firestore:"person"`
	Comment         string            `json:"comment" firestore:"comment"`
	ProfileImageURL string            `json:"profileImageUrl,omitempty" firestore:"profileImageUrl,omitempty"`
	ReferenceLink   string            `json:"referenceLink,omitempty" firestore:"referenceLink,omitempty"`
	ProjectLink     string            `json:"projectLink,omitempty" firestore:"projectLink,omitempty"`
	Status          TestimonialStatus `json:"status" firestore:"status"`
	CreatedAt       time.Time         `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

// Article is a blog post.
type Article struct {
	ID          string    `json:"id" firestore:"-"`
	Title       string    `json:"title" firestore:"title"`
	Slug        string    `json:"slug" firestore:"slug"`
	Content     string    `json:"content" firestore:"content"`
	Excerpt     string    `json:"excerpt,omitempty" firestore:"excerpt,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`
	Author      string    `json:"author,omitempty" firestore:"author,omitempty"`
	PublishedAt time.Time `json:"publishedAt" firestore:"publishedAt"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/webrend/marketplace-api/internal/config"
	"github.com/webrend/marketplace-api/internal/core"
	"github.com/webrend/marketplace-api/internal/db"
	"github.com/webrend/marketplace-api/internal/middleware"
)

// SetupRoutes wires all handlers and route groups. Global middleware
// (logging, recovery, CORS) is applied to the router before this is called.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	customerService core.CustomerService,
	listingService core.ListingService,
	billingService core.BillingService,
	transferService core.TransferService,
	portfolioService core.PortfolioService,
	testimonialService core.TestimonialService,
	articleService core.ArticleService,
) {
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		logger.Fatal("Firebase Auth client is not initialized; routes cannot be secured")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient, appConfig, logger)

	customerHandler := NewCustomerHandler(customerService, appConfig, logger)
	listingHandler := NewListingHandler(listingService, logger)
	billingHandler := NewBillingHandler(billingService, logger)
	transferHandler := NewTransferHandler(transferService, logger)
	portfolioHandler := NewPortfolioHandler(portfolioService, logger)
	testimonialHandler := NewTestimonialHandler(testimonialService, logger)
	articleHandler := NewArticleHandler(articleService, logger)

	apiV1 := router.Group("/api/v1")
	{
		users := apiV1.Group("/users")
		{
			users.POST("/initialize", authMW.VerifyToken(), customerHandler.Initialize)
			users.GET("/me", authMW.VerifyToken(), customerHandler.Me)
			users.GET("/me/purchases", authMW.VerifyToken(), customerHandler.MyPurchases)
			users.POST("/me/stripe-account", authMW.VerifyToken(), customerHandler.StripeAccount)
			users.GET("/me/github/connect", authMW.VerifyToken(), customerHandler.GithubConnect)
		}

		// Public OAuth redirect target; GitHub cannot send a bearer token.
		apiV1.GET("/github/callback", customerHandler.GithubCallback)

		payments := apiV1.Group("/payments")
		{
			payments.POST("/checkout-session", authMW.VerifyToken(), billingHandler.CreateCheckoutSession)
			payments.POST("/verify-session", authMW.VerifyToken(), billingHandler.VerifySession)
			payments.POST("/portal-session", authMW.VerifyToken(), billingHandler.CreatePortalSession)

			// Public: Stripe authenticates with the Stripe-Signature header.
			payments.POST("/webhooks/stripe", billingHandler.HandleStripeWebhook)
		}

		repos := apiV1.Group("/repos", authMW.VerifyToken())
		{
			repos.POST("/transfer", transferHandler.Transfer)
			repos.POST("/revoke-access", transferHandler.RevokeAccess)
		}

		marketplace := apiV1.Group("/marketplace")
		{
			marketplace.GET("/listings", listingHandler.List)
			marketplace.GET("/listings/:listingId", listingHandler.Get)
			marketplace.POST("/listings", authMW.VerifyToken(), listingHandler.Create)
			marketplace.POST("/listings/:listingId/mark-sold", authMW.VerifyToken(), listingHandler.MarkSold)
			marketplace.POST("/listings/:listingId/archive", authMW.VerifyToken(), listingHandler.Archive)
		}

		portfolio := apiV1.Group("/portfolio")
		{
			portfolio.GET("/projects", portfolioHandler.List)
			portfolio.GET("/projects/:slug", portfolioHandler.Get)
		}

		apiV1.POST("/testimonials", testimonialHandler.Submit)
		apiV1.GET("/testimonials", testimonialHandler.ListApproved)

		apiV1.GET("/articles", articleHandler.List)
		apiV1.GET("/articles/:slug", articleHandler.Get)

		admin := apiV1.Group("/admin", authMW.VerifyToken(), authMW.RequireAdmin())
		{
			admin.POST("/portfolio/projects", portfolioHandler.Add)
			admin.PUT("/portfolio/projects/:projectId", portfolioHandler.Update)
			admin.DELETE("/portfolio/projects/:projectId", portfolioHandler.Delete)

			admin.GET("/testimonials", testimonialHandler.ListAll)
			admin.POST("/testimonials/moderate", testimonialHandler.Moderate)

			admin.POST("/articles", articleHandler.Create)
			admin.DELETE("/articles/:articleId", articleHandler.Delete)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	logger.Info("API routes configured under /api/v1")
}

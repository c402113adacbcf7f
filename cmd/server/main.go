package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/webrend/marketplace-api/internal/api"
	"github.com/webrend/marketplace-api/internal/config"
	"github.com/webrend/marketplace-api/internal/core"
	"github.com/webrend/marketplace-api/internal/db"
	"github.com/webrend/marketplace-api/internal/gh"
	"github.com/webrend/marketplace-api/internal/middleware"
	"github.com/webrend/marketplace-api/internal/payments"
)

func main() {
	// Best-effort: local development reads .env, deployments set real env vars.
	_ = godotenv.Load()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("failed to load application configuration", zap.Error(err))
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()
	if err := db.InitFirestore(initCtx, appConfig); err != nil {
		zapLogger.Fatal("failed to initialize Firebase Admin SDK", zap.Error(err))
	}

	firestoreClient := db.GetFirestoreClient()
	if firestoreClient == nil || db.GetFirebaseAuthClient() == nil {
		zapLogger.Fatal("Firestore or Firebase Auth client is nil after initialization")
	}

	listingRepo := db.NewFirestoreListingRepository(firestoreClient)
	txnRepo := db.NewFirestoreTransactionRepository(firestoreClient)
	subRepo := db.NewFirestoreSubscriptionRepository(firestoreClient)
	purchaseRepo := db.NewFirestorePurchaseRepository(firestoreClient)
	customerRepo := db.NewFirestoreCustomerRepository(firestoreClient)
	repoRepo := db.NewFirestoreRepoRepository(firestoreClient)
	portfolioRepo := db.NewFirestorePortfolioRepository(firestoreClient)
	testimonialRepo := db.NewFirestoreTestimonialRepository(firestoreClient)
	articleRepo := db.NewFirestoreArticleRepository(firestoreClient)
	auditRepo := db.NewFirestoreAuditRepository(firestoreClient)

	stripeGW := payments.NewGateway(appConfig.StripeSecretKey, appConfig.StripeWebhookSecret)
	githubGW := gh.NewClient(appConfig.GithubClientID, appConfig.GithubClientSecret)

	auditService := core.NewAuditService(auditRepo, zapLogger)
	customerService := core.NewCustomerService(customerRepo, purchaseRepo, stripeGW, githubGW, auditService, appConfig, zapLogger)
	listingService := core.NewListingService(listingRepo, repoRepo, customerRepo, stripeGW, githubGW, auditService, zapLogger)
	transferService := core.NewTransferService(repoRepo, customerRepo, txnRepo, subRepo, githubGW, auditService, zapLogger)
	billingService := core.NewBillingService(listingRepo, txnRepo, subRepo, purchaseRepo, customerRepo, stripeGW, transferService, auditService, appConfig, zapLogger)
	portfolioService := core.NewPortfolioService(portfolioRepo, auditService)
	testimonialService := core.NewTestimonialService(testimonialRepo, auditService)
	articleService := core.NewArticleService(articleRepo, auditService)

	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
	} else {
		zapLogger.Warn("CORS middleware skipped: CLIENT_URL is not configured")
	}

	api.SetupRoutes(
		router,
		appConfig,
		zapLogger,
		customerService,
		listingService,
		billingService,
		transferService,
		portfolioService,
		testimonialService,
		articleService,
	)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.Port),
		Handler: router,
	}

	zapLogger.Info("starting HTTP server",
		zap.String("address", httpServer.Addr),
		zap.String("ginMode", gin.Mode()))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("server exited gracefully")
}

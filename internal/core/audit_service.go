package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/webrend/marketplace-api/internal/db"
	"github.com/webrend/marketplace-api/internal/models"
)

// Audit actions recorded by the purchase pipeline and admin surface.
const (
	AuditActionPurchaseRecorded      = "PURCHASE_RECORDED"
	AuditActionRenewalRecorded       = "RENEWAL_RECORDED"
	AuditActionSubscriptionCanceled  = "SUBSCRIPTION_CANCELED"
	AuditActionTransferInitiated     = "REPO_TRANSFER_INITIATED"
	AuditActionTransferFailed        = "REPO_TRANSFER_FAILED"
	AuditActionCollaboratorAdded     = "COLLABORATOR_ADDED"
	AuditActionCollaboratorRemoved   = "COLLABORATOR_REMOVED"
	AuditActionGithubLinked          = "GITHUB_ACCOUNT_LINKED"
	AuditActionConnectAccountCreated = "STRIPE_CONNECT_ACCOUNT_CREATED"
	AuditActionListingCreated        = "LISTING_CREATED"
	AuditActionListingArchived       = "LISTING_ARCHIVED"
	AuditActionContentMutated        = "CONTENT_MUTATED"
)

// AuditUserWebhook is the actor recorded for webhook-driven events.
const AuditUserWebhook = "stripe-webhook"

type auditService struct {
	auditRepo db.AuditRepository
	logger    *zap.Logger
}

// NewAuditService creates an AuditService backed by the auditLogs collection.
func NewAuditService(auditRepo db.AuditRepository, logger *zap.Logger) AuditService {
	return &auditService{auditRepo: auditRepo, logger: logger}
}

// Record writes an audit entry. Failures are logged and swallowed: an audit
// write must never fail the operation it describes.
func (s *auditService) Record(ctx context.Context, entry models.AuditLog) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log",
			zap.String("action", entry.Action),
			zap.String("userID", entry.UserID),
			zap.Error(err))
	}
}

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/webrend/marketplace-api/internal/db"
	"github.com/webrend/marketplace-api/internal/models"
)

// Sentinel errors for transfer operations.
var (
	ErrTransferRepoNotFound  = errors.New("repository record not found")
	ErrTransferPartyNotFound = errors.New("transfer party not found")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrRevokeFailed          = errors.New("collaborator revocation failed")
)

type transferService struct {
	repoRepo     db.RepoRepository
	customerRepo db.CustomerRepository
	txnRepo      db.TransactionRepository
	subRepo      db.SubscriptionRepository
	githubGW     GitHubGateway
	audit        AuditService
	logger       *zap.Logger
}

// NewTransferService creates a TransferService.
func NewTransferService(
	repoRepo db.RepoRepository,
	customerRepo db.CustomerRepository,
	txnRepo db.TransactionRepository,
	subRepo db.SubscriptionRepository,
	githubGW GitHubGateway,
	audit AuditService,
	logger *zap.Logger,
) TransferService {
	return &transferService{
		repoRepo:     repoRepo,
		customerRepo: customerRepo,
		txnRepo:      txnRepo,
		subRepo:      subRepo,
		githubGW:     githubGW,
		audit:        audit,
		logger:       logger,
	}
}

// splitRepoName returns the owner and bare name for a repository record.
// Repository names may be stored bare (owner inferred from the seller) or as
// "owner/name".
func splitRepoName(stored, sellerUsername string) (owner, name string) {
	if o, n, ok := strings.Cut(stored, "/"); ok {
		return o, n
	}
	return sellerUsername, stored
}

// Execute performs the GitHub side of a completed purchase: ownership
// transfer for one-time purchases, collaborator access for subscriptions.
// GitHub failures are recorded on the transaction and reported in the result
// rather than returned as errors; only missing-precondition failures error.
func (s *transferService) Execute(ctx context.Context, buyerID string, req models.TransferRequest) (*TransferResult, error) {
	repo, err := s.repoRepo.GetByID(ctx, req.RepoID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTransferRepoNotFound, req.RepoID)
		}
		return nil, fmt.Errorf("loading repository %s: %w", req.RepoID, err)
	}

	// Self-purchase: the seller bought their own listing. Nothing to move.
	if buyerID == req.SellerID {
		if req.TransactionID != "" {
			if err := s.txnRepo.SetTypeAndNote(ctx, req.TransactionID, models.TransactionTypeSelfPurchase,
				"buyer and seller are the same user; no transfer performed"); err != nil {
				s.logger.Warn("failed to annotate self-purchase transaction",
					zap.String("transactionID", req.TransactionID), zap.Error(err))
			}
			if err := s.txnRepo.SetTransferOutcome(ctx, req.TransactionID, models.TransferStatusNotApplicable, 0, ""); err != nil {
				s.logger.Warn("failed to record self-purchase transfer status",
					zap.String("transactionID", req.TransactionID), zap.Error(err))
			}
		}
		return &TransferResult{TransferStatus: models.TransferStatusNotApplicable}, nil
	}

	seller, err := s.customerRepo.GetByID(ctx, req.SellerID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: seller %s", ErrTransferPartyNotFound, req.SellerID)
		}
		return nil, fmt.Errorf("loading seller %s: %w", req.SellerID, err)
	}
	buyer, err := s.customerRepo.GetByID(ctx, buyerID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: buyer %s", ErrTransferPartyNotFound, buyerID)
		}
		return nil, fmt.Errorf("loading buyer %s: %w", buyerID, err)
	}

	if req.IsSinglePurchase {
		return s.transferOwnership(ctx, repo, seller, buyer, req)
	}
	return s.grantCollaborator(ctx, repo, seller, buyer, req)
}

func (s *transferService) transferOwnership(ctx context.Context, repo *models.Repository, seller, buyer *models.Customer, req models.TransferRequest) (*TransferResult, error) {
	if reason := transferPrereq(seller, buyer); reason != "" {
		return s.failTransfer(ctx, req.TransactionID, repo.ID, reason), nil
	}

	owner, name := splitRepoName(repo.Name, seller.GithubUsername)
	outcome, err := s.githubGW.TransferRepository(ctx, seller.GithubAccessToken, owner, name, buyer.GithubUsername)
	if err != nil {
		return s.failTransfer(ctx, req.TransactionID, repo.ID, err.Error()), nil
	}

	status := models.TransferStatusCompleted
	if outcome.Initiated {
		status = models.TransferStatusInitiated
	}
	if req.TransactionID != "" {
		if err := s.txnRepo.SetTransferOutcome(ctx, req.TransactionID, status, outcome.RepoID, ""); err != nil {
			s.logger.Warn("failed to record transfer outcome",
				zap.String("transactionID", req.TransactionID), zap.Error(err))
		}
	}
	if err := s.repoRepo.RecordOwnershipTransfer(ctx, repo.ID, buyer.ID, seller.ID); err != nil {
		s.logger.Warn("failed to record repository ownership change",
			zap.String("repoID", repo.ID), zap.Error(err))
	}
	s.audit.Record(ctx, models.AuditLog{
		UserID:     buyer.ID,
		Action:     AuditActionTransferInitiated,
		TargetType: "REPOSITORY",
		TargetID:   repo.ID,
		Details: map[string]interface{}{
			"newOwner": buyer.GithubUsername,
			"status":   string(status),
		},
	})
	return &TransferResult{TransferStatus: status, GithubTransferID: outcome.RepoID}, nil
}

func (s *transferService) grantCollaborator(ctx context.Context, repo *models.Repository, seller, buyer *models.Customer, req models.TransferRequest) (*TransferResult, error) {
	if reason := transferPrereq(seller, buyer); reason != "" {
		return s.failCollaboration(ctx, req.TransactionID, repo.ID, reason), nil
	}

	owner, name := splitRepoName(repo.Name, seller.GithubUsername)
	if err := s.githubGW.AddCollaborator(ctx, seller.GithubAccessToken, owner, name, buyer.GithubUsername); err != nil {
		return s.failCollaboration(ctx, req.TransactionID, repo.ID, err.Error()), nil
	}

	if req.TransactionID != "" {
		if err := s.txnRepo.SetCollaborationOutcome(ctx, req.TransactionID, models.CollaborationStatusAdded, ""); err != nil {
			s.logger.Warn("failed to record collaboration outcome",
				zap.String("transactionID", req.TransactionID), zap.Error(err))
		}
	}
	s.audit.Record(ctx, models.AuditLog{
		UserID:     buyer.ID,
		Action:     AuditActionCollaboratorAdded,
		TargetType: "REPOSITORY",
		TargetID:   repo.ID,
		Details:    map[string]interface{}{"collaborator": buyer.GithubUsername},
	})
	return &TransferResult{CollaborationStatus: models.CollaborationStatusAdded}, nil
}

// transferPrereq returns a human-readable reason when either party lacks a
// usable GitHub linkage, or "" when both are ready.
func transferPrereq(seller, buyer *models.Customer) string {
	if !seller.HasGithub() {
		return "seller has no linked GitHub account"
	}
	if buyer.GithubUsername == "" {
		return "buyer has no linked GitHub account"
	}
	return ""
}

func (s *transferService) failTransfer(ctx context.Context, txnID, repoID, reason string) *TransferResult {
	s.logger.Error("repository transfer failed",
		zap.String("repoID", repoID), zap.String("reason", reason))
	if txnID != "" {
		if err := s.txnRepo.SetTransferOutcome(ctx, txnID, models.TransferStatusFailed, 0, reason); err != nil {
			s.logger.Warn("failed to record transfer failure",
				zap.String("transactionID", txnID), zap.Error(err))
		}
	}
	s.audit.Record(ctx, models.AuditLog{
		UserID:     AuditUserWebhook,
		Action:     AuditActionTransferFailed,
		TargetType: "REPOSITORY",
		TargetID:   repoID,
		Details:    map[string]interface{}{"reason": reason},
	})
	return &TransferResult{TransferStatus: models.TransferStatusFailed, Reason: reason}
}

func (s *transferService) failCollaboration(ctx context.Context, txnID, repoID, reason string) *TransferResult {
	s.logger.Error("collaborator grant failed",
		zap.String("repoID", repoID), zap.String("reason", reason))
	if txnID != "" {
		if err := s.txnRepo.SetCollaborationOutcome(ctx, txnID, models.CollaborationStatusFailed, reason); err != nil {
			s.logger.Warn("failed to record collaboration failure",
				zap.String("transactionID", txnID), zap.Error(err))
		}
	}
	return &TransferResult{CollaborationStatus: models.CollaborationStatusFailed, Reason: reason}
}

// RevokeAccess removes a subscription buyer's collaborator access and records
// the revocation on the subscription document.
func (s *transferService) RevokeAccess(ctx context.Context, subscriptionID string) error {
	sub, err := s.subRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrSubscriptionNotFound, subscriptionID)
		}
		return fmt.Errorf("loading subscription %s: %w", subscriptionID, err)
	}

	repo, err := s.repoRepo.GetByID(ctx, sub.RepoID)
	if err != nil {
		return fmt.Errorf("loading repository %s: %w", sub.RepoID, err)
	}
	seller, err := s.customerRepo.GetByID(ctx, sub.SellerID)
	if err != nil {
		return fmt.Errorf("loading seller %s: %w", sub.SellerID, err)
	}
	buyer, err := s.customerRepo.GetByID(ctx, sub.BuyerID)
	if err != nil {
		return fmt.Errorf("loading buyer %s: %w", sub.BuyerID, err)
	}

	if !seller.HasGithub() || buyer.GithubUsername == "" {
		reason := "missing GitHub linkage for revocation"
		if err := s.subRepo.RecordRevocation(ctx, subscriptionID, reason); err != nil {
			s.logger.Warn("failed to record revocation error",
				zap.String("subscriptionID", subscriptionID), zap.Error(err))
		}
		return fmt.Errorf("%w: %s", ErrRevokeFailed, reason)
	}

	owner, name := splitRepoName(repo.Name, seller.GithubUsername)
	if err := s.githubGW.RemoveCollaborator(ctx, seller.GithubAccessToken, owner, name, buyer.GithubUsername); err != nil {
		if recErr := s.subRepo.RecordRevocation(ctx, subscriptionID, err.Error()); recErr != nil {
			s.logger.Warn("failed to record revocation error",
				zap.String("subscriptionID", subscriptionID), zap.Error(recErr))
		}
		return fmt.Errorf("%w: %v", ErrRevokeFailed, err)
	}

	if err := s.subRepo.RecordRevocation(ctx, subscriptionID, ""); err != nil {
		s.logger.Warn("failed to record revocation",
			zap.String("subscriptionID", subscriptionID), zap.Error(err))
	}
	s.audit.Record(ctx, models.AuditLog{
		UserID:     sub.BuyerID,
		Action:     AuditActionCollaboratorRemoved,
		TargetType: "SUBSCRIPTION",
		TargetID:   subscriptionID,
		Details:    map[string]interface{}{"collaborator": buyer.GithubUsername},
	})
	return nil
}

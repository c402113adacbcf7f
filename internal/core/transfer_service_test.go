package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webrend/marketplace-api/internal/gh"
	"github.com/webrend/marketplace-api/internal/models"
)

type transferFixture struct {
	repoRepo     *fakeRepoRepo
	customerRepo *fakeCustomerRepo
	txnRepo      *fakeTxnRepo
	subRepo      *fakeSubRepo
	githubGW     *fakeGitHubGateway
	service      TransferService
}

func newTransferFixture(t *testing.T) *transferFixture {
	t.Helper()
	f := &transferFixture{
		repoRepo:     newFakeRepoRepo(),
		customerRepo: newFakeCustomerRepo(),
		txnRepo:      newFakeTxnRepo(),
		subRepo:      newFakeSubRepo(),
		githubGW:     &fakeGitHubGateway{},
	}
	logger := zap.NewNop()
	audit := NewAuditService(&fakeAuditRepo{}, logger)
	f.service = NewTransferService(f.repoRepo, f.customerRepo, f.txnRepo, f.subRepo, f.githubGW, audit, logger)

	f.repoRepo.repos["repo-1"] = &models.Repository{ID: "repo-1", Name: "cool-lib", OwnerUserID: "seller-1"}
	f.customerRepo.customers["seller-1"] = &models.Customer{
		ID: "seller-1", GithubUsername: "sellerdev", GithubAccessToken: "gho_seller",
	}
	f.customerRepo.customers["buyer-1"] = &models.Customer{
		ID: "buyer-1", GithubUsername: "buyerdev",
	}
	f.txnRepo.txns["txn-1"] = &models.Transaction{ID: "txn-1", TransferStatus: models.TransferStatusPending}
	return f
}

func TestExecuteSelfPurchase(t *testing.T) {
	f := newTransferFixture(t)

	result, err := f.service.Execute(context.Background(), "seller-1", models.TransferRequest{
		RepoID: "repo-1", SellerID: "seller-1", IsSinglePurchase: true, TransactionID: "txn-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusNotApplicable, result.TransferStatus)
	assert.Equal(t, models.TransactionTypeSelfPurchase, f.txnRepo.txns["txn-1"].Type)
	assert.NotEmpty(t, f.txnRepo.txns["txn-1"].Note)
	assert.Zero(t, f.githubGW.transferCalls)
}

func TestExecuteAcceptedTransferIsInitiated(t *testing.T) {
	f := newTransferFixture(t)
	f.githubGW.transferOutcome = gh.TransferOutcome{Initiated: true}

	result, err := f.service.Execute(context.Background(), "buyer-1", models.TransferRequest{
		RepoID: "repo-1", SellerID: "seller-1", IsSinglePurchase: true, TransactionID: "txn-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusInitiated, result.TransferStatus)
	assert.Equal(t, models.TransferStatusInitiated, f.txnRepo.txns["txn-1"].TransferStatus)

	repo := f.repoRepo.repos["repo-1"]
	assert.Equal(t, "buyer-1", repo.OwnerUserID)
	assert.Equal(t, "seller-1", repo.PreviousOwnerUserID)
	assert.False(t, repo.TransferredAt.IsZero())
}

func TestExecuteTransferFailureRecordsReason(t *testing.T) {
	f := newTransferFixture(t)
	f.githubGW.transferErr = assert.AnError

	result, err := f.service.Execute(context.Background(), "buyer-1", models.TransferRequest{
		RepoID: "repo-1", SellerID: "seller-1", IsSinglePurchase: true, TransactionID: "txn-1",
	})
	require.NoError(t, err, "github failures are recorded, not returned")
	assert.Equal(t, models.TransferStatusFailed, result.TransferStatus)
	assert.NotEmpty(t, result.Reason)

	txn := f.txnRepo.txns["txn-1"]
	assert.Equal(t, models.TransferStatusFailed, txn.TransferStatus)
	assert.NotEmpty(t, txn.TransferError)
	// Ownership stays with the seller on failure.
	assert.Equal(t, "seller-1", f.repoRepo.repos["repo-1"].OwnerUserID)
}

func TestExecuteSellerWithoutGithubFails(t *testing.T) {
	f := newTransferFixture(t)
	f.customerRepo.customers["seller-1"].GithubAccessToken = ""

	result, err := f.service.Execute(context.Background(), "buyer-1", models.TransferRequest{
		RepoID: "repo-1", SellerID: "seller-1", IsSinglePurchase: true, TransactionID: "txn-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusFailed, result.TransferStatus)
	assert.Contains(t, result.Reason, "seller")
	assert.Zero(t, f.githubGW.transferCalls)
}

func TestExecuteCollaboratorGrant(t *testing.T) {
	f := newTransferFixture(t)

	result, err := f.service.Execute(context.Background(), "buyer-1", models.TransferRequest{
		RepoID: "repo-1", SellerID: "seller-1", IsSinglePurchase: false, TransactionID: "txn-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CollaborationStatusAdded, result.CollaborationStatus)
	assert.Equal(t, []string{"buyerdev"}, f.githubGW.collaboratorCalls)
	assert.Equal(t, models.CollaborationStatusAdded, f.txnRepo.txns["txn-1"].CollaborationStatus)
}

func TestExecuteUnknownRepo(t *testing.T) {
	f := newTransferFixture(t)

	_, err := f.service.Execute(context.Background(), "buyer-1", models.TransferRequest{
		RepoID: "missing", SellerID: "seller-1", IsSinglePurchase: true,
	})
	require.ErrorIs(t, err, ErrTransferRepoNotFound)
}

func TestRevokeAccess(t *testing.T) {
	f := newTransferFixture(t)
	f.subRepo.subs["sub-1"] = &models.Subscription{
		ID: "sub-1", RepoID: "repo-1", SellerID: "seller-1", BuyerID: "buyer-1",
		Status: models.SubscriptionStatusActive,
	}

	require.NoError(t, f.service.RevokeAccess(context.Background(), "sub-1"))
	assert.Equal(t, []string{"buyerdev"}, f.githubGW.removedCollabs)

	sub := f.subRepo.subs["sub-1"]
	assert.False(t, sub.AccessRevokedAt.IsZero())
	assert.Empty(t, sub.RevokeError)
}

func TestRevokeAccessGithubFailureRecorded(t *testing.T) {
	f := newTransferFixture(t)
	f.subRepo.subs["sub-1"] = &models.Subscription{
		ID: "sub-1", RepoID: "repo-1", SellerID: "seller-1", BuyerID: "buyer-1",
		Status: models.SubscriptionStatusActive,
	}
	f.githubGW.removeErr = assert.AnError

	err := f.service.RevokeAccess(context.Background(), "sub-1")
	require.ErrorIs(t, err, ErrRevokeFailed)
	assert.NotEmpty(t, f.subRepo.subs["sub-1"].RevokeError)
}

func TestRevokeAccessUnknownSubscription(t *testing.T) {
	f := newTransferFixture(t)

	err := f.service.RevokeAccess(context.Background(), "missing")
	require.ErrorIs(t, err, ErrSubscriptionNotFound)
}

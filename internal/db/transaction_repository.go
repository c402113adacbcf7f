package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/webrend/marketplace-api/internal/models"
)

const transactionsCollection = "transactions"

// firestoreTransactionRepository implements TransactionRepository using Firestore.
type firestoreTransactionRepository struct {
	client *firestore.Client
}

// NewFirestoreTransactionRepository creates a new transaction repository.
func NewFirestoreTransactionRepository(client *firestore.Client) TransactionRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for TransactionRepository.")
	}
	return &firestoreTransactionRepository{client: client}
}

// Create adds a new transaction document with an auto-generated ID.
func (r *firestoreTransactionRepository) Create(ctx context.Context, txn *models.Transaction) (string, error) {
	docRef := r.client.Collection(transactionsCollection).NewDoc()
	txn.ID = docRef.ID
	if _, err := docRef.Create(ctx, txn); err != nil {
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a transaction by its document ID.
func (r *firestoreTransactionRepository) GetByID(ctx context.Context, txnID string) (*models.Transaction, error) {
	if txnID == "" {
		return nil, errors.New("txnID cannot be empty")
	}
	docSnap, err := r.client.Collection(transactionsCollection).Doc(txnID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("transaction '%s' not found: %w", txnID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction '%s': %w", txnID, err)
	}
	var txn models.Transaction
	if err := docSnap.DataTo(&txn); err != nil {
		return nil, fmt.Errorf("failed to decode transaction '%s': %w", txnID, err)
	}
	txn.ID = docSnap.Ref.ID
	return &txn, nil
}

// SetTransferOutcome records the result of a repository ownership transfer on
// the transaction. The reason field is only meaningful for failed transfers.
func (r *firestoreTransactionRepository) SetTransferOutcome(ctx context.Context, txnID string, st models.TransferStatus, githubTransferID int64, reason string) error {
	if txnID == "" {
		return errors.New("txnID cannot be empty for SetTransferOutcome")
	}
	updates := []firestore.Update{
		{Path: "transferStatus", Value: st},
		{Path: "updatedAt", Value: time.Now().UTC()},
	}
	if githubTransferID != 0 {
		updates = append(updates, firestore.Update{Path: "githubTransferId", Value: githubTransferID})
	}
	if reason != "" {
		updates = append(updates, firestore.Update{Path: "transferError", Value: reason})
	}
	if _, err := r.client.Collection(transactionsCollection).Doc(txnID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to record transfer outcome on transaction '%s': %w", txnID, err)
	}
	return nil
}

// SetCollaborationOutcome records the result of a collaborator grant.
func (r *firestoreTransactionRepository) SetCollaborationOutcome(ctx context.Context, txnID string, st models.CollaborationStatus, reason string) error {
	if txnID == "" {
		return errors.New("txnID cannot be empty for SetCollaborationOutcome")
	}
	updates := []firestore.Update{
		{Path: "collaborationStatus", Value: st},
		{Path: "updatedAt", Value: time.Now().UTC()},
	}
	if reason != "" {
		updates = append(updates, firestore.Update{Path: "collaborationError", Value: reason})
	}
	if _, err := r.client.Collection(transactionsCollection).Doc(txnID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to record collaboration outcome on transaction '%s': %w", txnID, err)
	}
	return nil
}

// SetTypeAndNote reclassifies a transaction, e.g. marking a self-purchase.
func (r *firestoreTransactionRepository) SetTypeAndNote(ctx context.Context, txnID string, txnType models.TransactionType, note string) error {
	if txnID == "" {
		return errors.New("txnID cannot be empty for SetTypeAndNote")
	}
	_, err := r.client.Collection(transactionsCollection).Doc(txnID).Update(ctx, []firestore.Update{
		{Path: "type", Value: txnType},
		{Path: "note", Value: note},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("failed to update transaction '%s': %w", txnID, err)
	}
	return nil
}

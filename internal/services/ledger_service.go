package services

import (
	"context"
	"fmt"
	"log/slog"

	"spendyze/internal/amqp"
	"spendyze/internal/core"
	"spendyze/internal/storage"
)

// LedgerService stores transactions for the backend API and announces them
// over AMQP.
type LedgerService struct {
	storage   *storage.SQLiteRepository
	publisher amqp.Publisher
	closer    func() error
}

// NewLedgerService wires storage and an optional publisher. A nil
// publisher disables events.
func NewLedgerService(storage *storage.SQLiteRepository, publisher amqp.Publisher) *LedgerService {
	s := &LedgerService{storage: storage, publisher: publisher}
	if c, ok := publisher.(interface{ Close() error }); ok {
		s.closer = c.Close
	}
	return s
}

// Record saves the transaction and publishes a recorded event. Publishing
// failures are logged; the transaction stays saved.
func (s *LedgerService) Record(ctx context.Context, userID int64, t core.NewTransaction) (int64, error) {
	id, err := s.storage.InsertTransaction(ctx, userID, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping transaction event", "id", id)
		return id, nil
	}
	if err := s.publisher.PublishTransactionRecorded(ctx, id, userID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event", "id", id, "error", err)
	}
	return id, nil
}

// List returns the user's transactions.
func (s *LedgerService) List(ctx context.Context, userID int64) ([]core.TransactionRecord, error) {
	return s.storage.ListTransactions(ctx, userID)
}

// Close closes both storage and AMQP connections
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.closer != nil {
		if err := s.closer(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}

// Package snapshot holds the transaction history used to ground AI
// answers and to render the report view.
package snapshot

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"spendyze/internal/backend"
	"spendyze/internal/core"
)

// DefaultTimeout bounds one Load.
const DefaultTimeout = 10 * time.Second

// Source fetches the logged-in user's transactions.
type Source interface {
	Transactions(ctx context.Context) (backend.Transactions, error)
}

// Loader keeps the most recently loaded snapshot. Each Load replaces it
// wholesale; a failed Load leaves it empty.
type Loader struct {
	source  Source
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.RWMutex
	records []core.TransactionRecord
	chart   json.RawMessage
}

func NewLoader(source Source, timeout time.Duration, logger *slog.Logger) *Loader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{source: source, timeout: timeout, logger: logger}
}

// Load fetches the snapshot. On failure the held snapshot is cleared and
// the error is returned for the caller to log or ignore.
func (l *Loader) Load(ctx context.Context) ([]core.TransactionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()
	tx, err := l.source.Transactions(ctx)
	if err != nil {
		l.Clear()
		l.logger.WarnContext(ctx, "Failed to load transaction snapshot", "error", err)
		return nil, err
	}

	records := tx.Records
	if records == nil {
		records = []core.TransactionRecord{}
	}
	l.mu.Lock()
	l.records = records
	l.chart = tx.Chart
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "Transaction snapshot loaded",
		"records", len(records),
		"duration_ms", time.Since(start).Milliseconds())
	return records, nil
}

// Snapshot returns the held records. Callers must not modify them.
func (l *Loader) Snapshot() []core.TransactionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.records
}

// Chart returns the chart configuration delivered with the snapshot.
func (l *Loader) Chart() json.RawMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chart
}

// Clear empties the snapshot.
func (l *Loader) Clear() {
	l.mu.Lock()
	l.records = []core.TransactionRecord{}
	l.chart = nil
	l.mu.Unlock()
}

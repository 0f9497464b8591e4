package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"spendyze/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// StoredTransaction is a transaction row together with its owner.
type StoredTransaction struct {
	Record core.TransactionRecord
	UserID int64
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before the main pool opens the file.
	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("SQLite repository ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateUser stores a new account. Returns ErrUsernameTaken when the
// username already exists.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	id, err := r.queries.CreateUser(ctx, username, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User created", "user_id", id)
	return id, nil
}

// GetUserByUsername returns ErrNotFound when no such user exists.
func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (User, error) {
	u, err := r.queries.GetUserByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// InsertTransaction stores a validated transaction for the user and
// returns its ID.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, userID int64, t core.NewTransaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	id, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		UserID:    userID,
		TransType: string(t.Type),
		Amount:    core.FormatAmount(t.Amount),
		Date:      t.Date.String(),
		Category:  strings.TrimSpace(t.Category),
	})
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"user_id", userID,
		"trans_type", t.Type,
		"amount", core.FormatAmount(t.Amount),
		"date", t.Date.String())

	return id, nil
}

// ListTransactions returns the user's transactions in insertion order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.TransactionRecord, error) {
	rows, err := r.queries.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	records := make([]core.TransactionRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := toRecord(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// GetTransaction returns ErrNotFound when the row does not exist.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (StoredTransaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredTransaction{}, ErrNotFound
	}
	if err != nil {
		return StoredTransaction{}, fmt.Errorf("get transaction by id: %w", err)
	}
	rec, err := toRecord(row)
	if err != nil {
		return StoredTransaction{}, err
	}
	return StoredTransaction{Record: rec, UserID: row.UserID}, nil
}

// PendingExports returns up to limit transaction IDs not yet exported.
func (r *SQLiteRepository) PendingExports(ctx context.Context, limit int) ([]int64, error) {
	ids, err := r.queries.ListPendingExports(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending exports: %w", err)
	}
	return ids, nil
}

// MarkExported marks a transaction as exported to the spreadsheet.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionExported(ctx, id); err != nil {
		return fmt.Errorf("mark transaction exported: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "id", id)
	return nil
}

// MarkExportError marks a transaction whose export failed.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionExportError(ctx, id); err != nil {
		return fmt.Errorf("mark transaction export error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}

func toRecord(row Transaction) (core.TransactionRecord, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.TransactionRecord{}, fmt.Errorf("transaction %d: parse amount %q: %w", row.ID, row.Amount, err)
	}
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.TransactionRecord{}, fmt.Errorf("transaction %d: %w", row.ID, err)
	}
	return core.TransactionRecord{
		ID:       row.ID,
		Type:     core.TransactionType(row.TransType),
		Amount:   amount,
		Date:     date,
		Category: row.Category,
	}, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

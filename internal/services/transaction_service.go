package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"spendyze/internal/backend"
	"spendyze/internal/core"
)

// Messages shown by the add-transaction view.
const (
	MsgTransactionAdded  = "Transaction added successfully!"
	MsgTransactionFailed = "Error adding transaction. Please try again."
	MsgUnreachable       = "Unable to connect to the server."

	MsgInvalidType     = "Please choose expense or income."
	MsgInvalidAmount   = "Please enter a positive amount."
	MsgInvalidDate     = "Please enter a valid date."
	MsgInvalidCategory = "Please choose or enter a category."
	MsgCategoryTooLong = "Category must be at most 64 characters."
)

var (
	expenseCategories = []string{"Food", "Transport", "Shopping", "Rent", "Utilities", "Miscellaneous"}
	incomeCategories  = []string{"Salary", "Business", "Investment", "Gift", "Other"}
)

// Categories returns the preset categories for a transaction type.
func Categories(t core.TransactionType) []string {
	switch t {
	case core.Expense:
		return append([]string(nil), expenseCategories...)
	case core.Income:
		return append([]string(nil), incomeCategories...)
	default:
		return nil
	}
}

// TransactionForm is the add-transaction form as submitted. A blank
// Category falls back to CustomCategory.
type TransactionForm struct {
	Type           string
	Amount         string
	Date           string
	Category       string
	CustomCategory string
}

// Parse validates the form into a transaction.
func (f TransactionForm) Parse() (core.NewTransaction, error) {
	typ, err := core.ParseTransactionType(f.Type)
	if err != nil {
		return core.NewTransaction{}, err
	}
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return core.NewTransaction{}, err
	}
	date, err := core.ParseDate(f.Date)
	if err != nil {
		return core.NewTransaction{}, err
	}
	category := strings.TrimSpace(f.Category)
	if category == "" {
		category = strings.TrimSpace(f.CustomCategory)
	}
	t := core.NewTransaction{Type: typ, Amount: amount, Date: date, Category: category}
	if err := t.Validate(); err != nil {
		return core.NewTransaction{}, err
	}
	return t, nil
}

// TransactionService submits new transactions to the backend.
type TransactionService struct {
	client backend.Client
	logger *slog.Logger
}

func NewTransactionService(client backend.Client, logger *slog.Logger) *TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionService{client: client, logger: logger}
}

// Add validates and submits the form.
func (s *TransactionService) Add(ctx context.Context, form TransactionForm) Outcome {
	t, err := form.Parse()
	if err != nil {
		return Outcome{Message: validationMessage(err)}
	}

	reply, err := s.client.AddTransaction(ctx, t)
	if err != nil {
		s.logger.WarnContext(ctx, "Add transaction request failed", "error", err)
		return Outcome{Message: MsgUnreachable}
	}
	if !reply.OK() {
		s.logger.WarnContext(ctx, "Add transaction rejected", "status_code", reply.Status, "reply", reply.Body)
		return Outcome{Message: MsgTransactionFailed}
	}

	s.logger.InfoContext(ctx, "Transaction recorded",
		"trans_type", t.Type,
		"amount", core.FormatAmount(t.Amount),
		"date", t.Date.String(),
		"category", t.Category)
	return Outcome{OK: true, Message: MsgTransactionAdded}
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidType):
		return MsgInvalidType
	case errors.Is(err, core.ErrInvalidAmount):
		return MsgInvalidAmount
	case errors.Is(err, core.ErrInvalidDate):
		return MsgInvalidDate
	case errors.Is(err, core.ErrCategoryTooLong):
		return MsgCategoryTooLong
	default:
		return MsgInvalidCategory
	}
}

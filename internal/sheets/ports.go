package sheets

import (
	"context"

	"spendyze/internal/core"
)

// ExportRow is one transaction as written to a spreadsheet.
type ExportRow struct {
	UserID int64
	Record core.TransactionRecord
}

// Values returns the row cells: id, user, date, type, amount, category.
func (r ExportRow) Values() []any {
	return []any{
		r.Record.ID,
		r.UserID,
		r.Record.Date.String(),
		string(r.Record.Type),
		core.FormatAmount(r.Record.Amount),
		r.Record.Category,
	}
}

// Ports for outbound adapters.
type TransactionExporter interface {
	Export(ctx context.Context, row ExportRow) (rowRef string, err error)
}

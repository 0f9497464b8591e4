// Package memory provides an in-process TransactionExporter.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"spendyze/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows     []sheets.ExportRow
	failNext int
}

var _ sheets.TransactionExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// Export stores the row and returns a synthetic row reference.
func (e *Exporter) Export(_ context.Context, row sheets.ExportRow) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failNext > 0 {
		e.failNext--
		return "", errors.New("export failed")
	}
	e.rows = append(e.rows, row)
	return fmt.Sprintf("mem:%d", len(e.rows)), nil
}

// FailNext makes the next n exports fail.
func (e *Exporter) FailNext(n int) {
	e.mu.Lock()
	e.failNext = n
	e.mu.Unlock()
}

// Rows returns a copy of the exported rows.
func (e *Exporter) Rows() []sheets.ExportRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]sheets.ExportRow(nil), e.rows...)
}

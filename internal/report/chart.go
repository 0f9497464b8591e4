// Package report builds the chart configuration served alongside a user's
// transactions.
package report

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"spendyze/internal/core"
)

const (
	incomeColor  = "rgba(75, 192, 192, 0.6)"
	expenseColor = "rgba(255, 99, 132, 0.6)"
)

// Chart is a chart.js bar chart configuration.
type Chart struct {
	Type    string  `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
}

type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Label           string        `json:"label"`
	Data            []json.Number `json:"data"`
	BackgroundColor string        `json:"backgroundColor"`
}

type Options struct {
	Responsive bool   `json:"responsive"`
	Scales     Scales `json:"scales"`
}

type Scales struct {
	Y Axis `json:"y"`
}

type Axis struct {
	BeginAtZero bool `json:"beginAtZero"`
}

// MonthTotals holds income and expense sums for one YYYY-MM bucket.
type MonthTotals struct {
	Month   string
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Totals sums records per month in ascending month order. Records without
// a date are skipped.
func Totals(records []core.TransactionRecord) []MonthTotals {
	byMonth := make(map[string]*MonthTotals)
	for _, r := range records {
		key := r.Date.MonthKey()
		if key == "" {
			continue
		}
		t, ok := byMonth[key]
		if !ok {
			t = &MonthTotals{Month: key}
			byMonth[key] = t
		}
		switch r.Type {
		case core.Income:
			t.Income = t.Income.Add(r.Amount)
		case core.Expense:
			t.Expense = t.Expense.Add(r.Amount)
		}
	}

	out := make([]MonthTotals, 0, len(byMonth))
	for _, t := range byMonth {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// BuildChart returns a monthly income versus expense bar chart.
func BuildChart(records []core.TransactionRecord) Chart {
	totals := Totals(records)
	labels := make([]string, len(totals))
	income := make([]json.Number, len(totals))
	expense := make([]json.Number, len(totals))
	for i, t := range totals {
		labels[i] = t.Month
		income[i] = json.Number(t.Income.StringFixed(2))
		expense[i] = json.Number(t.Expense.StringFixed(2))
	}
	return Chart{
		Type: "bar",
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{
				{Label: "Income", Data: income, BackgroundColor: incomeColor},
				{Label: "Expense", Data: expense, BackgroundColor: expenseColor},
			},
		},
		Options: Options{Responsive: true, Scales: Scales{Y: Axis{BeginAtZero: true}}},
	}
}

// BuildChartJSON is BuildChart encoded for the transactions response.
func BuildChartJSON(records []core.TransactionRecord) (json.RawMessage, error) {
	b, err := json.Marshal(BuildChart(records))
	if err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return b, nil
}

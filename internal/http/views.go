package http

import (
	"time"

	"spendyze/internal/chat"
	"spendyze/internal/core"
	"spendyze/internal/gate"
	"spendyze/internal/markup"
	"spendyze/internal/services"
	"spendyze/internal/session"
)

// page is the data shared by every view.
type page struct {
	Title         string
	View          gate.View
	Authenticated bool
	Username      string
	Flash         string
	Error         string
}

func newPage(title string, view gate.View, s session.Session) page {
	return page{
		Title:         title,
		View:          view,
		Authenticated: s.Authenticated,
		Username:      s.Identifier,
	}
}

type entryView struct {
	page
	FormUsername string
}

type homeView struct {
	page
	Form              services.TransactionForm
	ExpenseCategories []string
	IncomeCategories  []string
	Today             string
}

func newHomeView(p page, form services.TransactionForm) homeView {
	if form.Type == "" {
		form.Type = string(core.Expense)
	}
	return homeView{
		page:              p,
		Form:              form,
		ExpenseCategories: services.Categories(core.Expense),
		IncomeCategories:  services.Categories(core.Income),
		Today:             time.Now().Format(core.DateLayout),
	}
}

type reportRow struct {
	ID       int64
	Type     string
	Amount   string
	Date     string
	Category string
}

type reportView struct {
	page
	Rows  []reportRow
	Chart string
}

func newReportView(p page, records []core.TransactionRecord, chart []byte) reportView {
	rows := make([]reportRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, reportRow{
			ID:       rec.ID,
			Type:     string(rec.Type),
			Amount:   core.FormatAmount(rec.Amount),
			Date:     rec.Date.String(),
			Category: rec.Category,
		})
	}
	return reportView{page: p, Rows: rows, Chart: string(chart)}
}

type segmentView struct {
	Text     string
	Emphasis bool
}

type messageView struct {
	ID       string
	Sender   string
	Segments []segmentView
}

type chatView struct {
	page
	Messages []messageView
	Pending  bool
	Input    string
}

func newChatView(p page, state chat.State, input string) chatView {
	msgs := make([]messageView, 0, len(state.Messages))
	for _, m := range state.Messages {
		segs := make([]segmentView, 0, len(m.Segments))
		for _, seg := range m.Segments {
			segs = append(segs, segmentView{Text: seg.Text, Emphasis: seg.Kind == markup.Emphasis})
		}
		msgs = append(msgs, messageView{ID: m.ID, Sender: string(m.Sender), Segments: segs})
	}
	return chatView{page: p, Messages: msgs, Pending: state.Pending, Input: input}
}

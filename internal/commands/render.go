package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"spendyze/internal/chat"
	"spendyze/internal/core"
	"spendyze/internal/markup"
	"spendyze/internal/report"
)

var (
	emphasisStyle = lipgloss.NewStyle().Bold(true)

	userLabel = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	assistantLabel = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

// renderSegments joins segments, styling emphasis runs.
func renderSegments(segments []markup.Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		if seg.Kind == markup.Emphasis {
			b.WriteString(emphasisStyle.Render(seg.Text))
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

func writeMessage(w io.Writer, m chat.Message) {
	label := userLabel.Render("You:")
	if m.Sender == chat.Assistant {
		label = assistantLabel.Render("Spendyze AI:")
	}
	fmt.Fprintf(w, "%s %s\n", label, renderSegments(m.Segments))
}

// lastReply returns the newest assistant message, if any.
func lastReply(s chat.State) (chat.Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Sender == chat.Assistant {
			return s.Messages[i], true
		}
	}
	return chat.Message{}, false
}

func transactionsTable(records []core.TransactionRecord) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Type", "Amount", "Date", "Category").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range records {
		t.Row(string(r.Type), core.FormatAmount(r.Amount), r.Date.String(), r.Category)
	}
	return t.Render()
}

func totalsTable(totals []report.MonthTotals) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Month", "Income", "Expense").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, m := range totals {
		t.Row(m.Month, core.FormatAmount(m.Income), core.FormatAmount(m.Expense))
	}
	return t.Render()
}

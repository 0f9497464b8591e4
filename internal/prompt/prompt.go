// Package prompt builds the language-model request for a user question and
// the current transaction snapshot.
package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"spendyze/internal/core"
)

const (
	// Preamble frames the model as a consultant.
	Preamble = "Act as a personal financial and economic consultant. " +
		"Answer the user's question using the transaction history below. " +
		"Be specific, refer to categories and amounts where useful, and highlight key figures in **bold**."

	// ClosingSentence must end every answer.
	ClosingSentence = "This is general guidance, not professional financial advice."
)

var ErrEmptyQuery = errors.New("empty query")

type (
	// Payload is the request body expected by the model endpoint.
	Payload struct {
		Contents []Content `json:"contents"`
	}

	Content struct {
		Parts []Part `json:"parts"`
	}

	Part struct {
		Text string `json:"text"`
	}
)

// Text returns the instruction carried by the payload.
func (p Payload) Text() string {
	if len(p.Contents) == 0 || len(p.Contents[0].Parts) == 0 {
		return ""
	}
	return p.Contents[0].Parts[0].Text
}

// Build combines query and snapshot into a single instruction. The query is
// embedded verbatim and the snapshot in full, in order. Build is pure: the
// same inputs always give the same payload.
func Build(query string, snapshot []core.TransactionRecord) (Payload, error) {
	if strings.TrimSpace(query) == "" {
		return Payload{}, ErrEmptyQuery
	}
	if snapshot == nil {
		snapshot = []core.TransactionRecord{}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return Payload{}, fmt.Errorf("encode snapshot: %w", err)
	}

	var b strings.Builder
	b.WriteString(Preamble)
	b.WriteString("\n\nUser query: ")
	b.WriteString(query)
	b.WriteString("\n\nTransactions data:\n")
	b.Write(data)
	b.WriteString("\n\nEnd your response with exactly this sentence: \"")
	b.WriteString(ClosingSentence)
	b.WriteString("\"")

	return Payload{Contents: []Content{{Parts: []Part{{Text: b.String()}}}}}, nil
}

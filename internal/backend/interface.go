// Package backend talks to the transaction and authentication services.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"spendyze/internal/core"
)

var (
	// ErrUnauthorized is returned when the backend has no logged-in user.
	ErrUnauthorized = errors.New("backend: not logged in")
	ErrBadResponse  = errors.New("backend: invalid response")
)

// StatusError reports a non-2xx reply.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Body)
}

// Reply is a text reply from an endpoint that answers in prose.
type Reply struct {
	Status int
	Body   string
}

// OK reports a 2xx status.
func (r Reply) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Transactions is the transactions endpoint payload. Chart is passed
// through unparsed.
type Transactions struct {
	Records []core.TransactionRecord `json:"method1"`
	Chart   json.RawMessage          `json:"method2"`
}

// Client is the backend as seen by the web client and CLI. Transport
// failures are returned as errors; replies of any status are returned as
// Reply so callers can apply their own success rules.
type Client interface {
	Login(ctx context.Context, username, password string) (Reply, error)
	CreateAccount(ctx context.Context, username, password string) (Reply, error)
	Transactions(ctx context.Context) (Transactions, error)
	AddTransaction(ctx context.Context, t core.NewTransaction) (Reply, error)
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the client and an optional cleanup function.
type Result struct {
	Client  Client
	Cleanup CleanupFunc
}

// Type represents the kind of backend.
type Type string

const (
	HTTPBackend   Type = "http"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case HTTPBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Credentials is the login and create-account request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TransactionBody is the add-transaction request body. The amount travels
// as a string.
type TransactionBody struct {
	Type     core.TransactionType `json:"type"`
	Amount   string               `json:"amount"`
	Date     string               `json:"date"`
	Category string               `json:"category"`
}

func NewTransactionBody(t core.NewTransaction) TransactionBody {
	return TransactionBody{
		Type:     t.Type,
		Amount:   core.FormatAmount(t.Amount),
		Date:     t.Date.String(),
		Category: t.Category,
	}
}

// Transaction parses the body back into a validated transaction.
func (b TransactionBody) Transaction() (core.NewTransaction, error) {
	typ, err := core.ParseTransactionType(string(b.Type))
	if err != nil {
		return core.NewTransaction{}, err
	}
	amount, err := core.ParseAmount(b.Amount)
	if err != nil {
		return core.NewTransaction{}, err
	}
	date, err := core.ParseDate(b.Date)
	if err != nil {
		return core.NewTransaction{}, err
	}
	t := core.NewTransaction{Type: typ, Amount: amount, Date: date, Category: strings.TrimSpace(b.Category)}
	if err := t.Validate(); err != nil {
		return core.NewTransaction{}, err
	}
	return t, nil
}

package backend

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"spendyze/internal/core"
	"spendyze/internal/report"
)

type memoryUser struct {
	id   int64
	hash []byte
}

// MemoryClient is an in-process backend with the same replies as the HTTP
// services. Like them it remembers the last user that logged in.
type MemoryClient struct {
	mu      sync.Mutex
	users   map[string]memoryUser
	records map[int64][]core.TransactionRecord
	current int64
	nextID  int64
}

var _ Client = (*MemoryClient)(nil)

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		users:   make(map[string]memoryUser),
		records: make(map[int64][]core.TransactionRecord),
	}
}

func (m *MemoryClient) CreateAccount(_ context.Context, username, password string) (Reply, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Reply{Status: http.StatusOK, Body: ReplyAccountFailed}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return Reply{Status: http.StatusOK, Body: ReplyAccountFailed}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.users[username]; taken {
		return Reply{Status: http.StatusOK, Body: ReplyAccountFailed}, nil
	}
	m.users[username] = memoryUser{id: int64(len(m.users) + 1), hash: hash}
	return Reply{Status: http.StatusOK, Body: ReplyAccountCreated}, nil
}

func (m *MemoryClient) Login(_ context.Context, username, password string) (Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.TrimSpace(username)]
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		return Reply{Status: http.StatusOK, Body: ReplyLoginFailed}, nil
	}
	m.current = u.id
	return Reply{Status: http.StatusOK, Body: LoginSucceeded(u.id)}, nil
}

func (m *MemoryClient) AddTransaction(_ context.Context, t core.NewTransaction) (Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == 0 {
		return Reply{Status: http.StatusUnauthorized, Body: ReplyNotLoggedIn}, nil
	}
	if err := t.Validate(); err != nil {
		return Reply{Status: http.StatusBadRequest, Body: ReplyBadRequest}, nil
	}
	m.nextID++
	m.records[m.current] = append(m.records[m.current], core.TransactionRecord{
		ID:       m.nextID,
		Type:     t.Type,
		Amount:   t.Amount,
		Date:     t.Date,
		Category: strings.TrimSpace(t.Category),
	})
	return Reply{Status: http.StatusOK, Body: ReplyInserted}, nil
}

func (m *MemoryClient) Transactions(_ context.Context) (Transactions, error) {
	m.mu.Lock()
	if m.current == 0 {
		m.mu.Unlock()
		return Transactions{}, ErrUnauthorized
	}
	records := append([]core.TransactionRecord{}, m.records[m.current]...)
	m.mu.Unlock()

	chart, err := report.BuildChartJSON(records)
	if err != nil {
		return Transactions{}, err
	}
	return Transactions{Records: records, Chart: chart}, nil
}

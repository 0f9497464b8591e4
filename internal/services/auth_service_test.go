package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"spendyze/internal/backend"
	"spendyze/internal/core"
	"spendyze/internal/session"
)

// stubClient replies with fixed values.
type stubClient struct {
	reply backend.Reply
	err   error
	added []core.NewTransaction
}

func (s *stubClient) Login(context.Context, string, string) (backend.Reply, error) {
	return s.reply, s.err
}

func (s *stubClient) CreateAccount(context.Context, string, string) (backend.Reply, error) {
	return s.reply, s.err
}

func (s *stubClient) Transactions(context.Context) (backend.Transactions, error) {
	return backend.Transactions{}, s.err
}

func (s *stubClient) AddTransaction(_ context.Context, t core.NewTransaction) (backend.Reply, error) {
	s.added = append(s.added, t)
	return s.reply, s.err
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name     string
		reply    backend.Reply
		err      error
		wantOK   bool
		wantMsg  string
		wantAuth bool
	}{
		{
			name:     "success keyword",
			reply:    backend.Reply{Status: http.StatusOK, Body: "Login successful! Your user ID is 4."},
			wantOK:   true,
			wantMsg:  "Login successful! Your user ID is 4.",
			wantAuth: true,
		},
		{
			name:    "invalid credentials",
			reply:   backend.Reply{Status: http.StatusOK, Body: "Invalid username or password."},
			wantMsg: "Invalid username or password.",
		},
		{
			name:    "keyword with error status",
			reply:   backend.Reply{Status: http.StatusInternalServerError, Body: "not successful"},
			wantMsg: "not successful",
		},
		{
			name:    "empty body",
			reply:   backend.Reply{Status: http.StatusBadGateway},
			wantMsg: MsgLoginFailed,
		},
		{
			name:    "transport failure",
			err:     errors.New("dial tcp: refused"),
			wantMsg: MsgNetworkError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := session.NewStore()
			svc := NewAuthService(&stubClient{reply: tt.reply, err: tt.err}, store, nil)

			got := svc.Login(context.Background(), "alice", "pw")

			assert.Equal(t, tt.wantOK, got.OK)
			assert.Equal(t, tt.wantMsg, got.Message)
			assert.Equal(t, tt.wantAuth, store.IsAuthenticated())
			if tt.wantAuth {
				id, _ := store.Identifier()
				assert.Equal(t, "alice", id)
			}
		})
	}
}

func TestAuthService_LoginRequiresFields(t *testing.T) {
	store := session.NewStore()
	svc := NewAuthService(&stubClient{reply: backend.Reply{Status: 200, Body: "Login successful!"}}, store, nil)

	got := svc.Login(context.Background(), "  ", "pw")
	assert.Equal(t, Outcome{Message: MsgMissingFields}, got)
	assert.False(t, store.IsAuthenticated())
}

func TestAuthService_CreateAccount(t *testing.T) {
	tests := []struct {
		name  string
		reply backend.Reply
		err   error
		want  Outcome
	}{
		{"created", backend.Reply{Status: 200, Body: "Account created successfully."}, nil, Outcome{OK: true, Message: MsgAccountCreated}},
		{"taken", backend.Reply{Status: 200, Body: "Error creating account (username may be taken)."}, nil, Outcome{Message: "Error creating account (username may be taken)."}},
		{"transport", backend.Reply{}, errors.New("boom"), Outcome{Message: MsgNetworkError}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := session.NewStore()
			svc := NewAuthService(&stubClient{reply: tt.reply, err: tt.err}, store, nil)
			assert.Equal(t, tt.want, svc.CreateAccount(context.Background(), "bob", "pw"))
			assert.False(t, store.IsAuthenticated())
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	store := session.NewStore()
	svc := NewAuthService(&stubClient{reply: backend.Reply{Status: 200, Body: "Login successful!"}}, store, nil)
	svc.Login(context.Background(), "alice", "pw")
	assert.True(t, store.IsAuthenticated())

	svc.Logout(context.Background())
	assert.False(t, store.IsAuthenticated())
}

func TestAuthService_AgainstMemoryBackend(t *testing.T) {
	store := session.NewStore()
	svc := NewAuthService(backend.NewMemoryClient(), store, nil)
	ctx := context.Background()

	assert.Equal(t, MsgAccountCreated, svc.CreateAccount(ctx, "carol", "pw").Message)
	assert.False(t, svc.Login(ctx, "carol", "nope").OK)
	assert.False(t, store.IsAuthenticated())
	assert.True(t, svc.Login(ctx, "carol", "pw").OK)
	assert.True(t, store.IsAuthenticated())
}

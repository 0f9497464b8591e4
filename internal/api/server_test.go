package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"spendyze/internal/backend"
	"spendyze/internal/core"
	applog "spendyze/internal/log"
	"spendyze/internal/services"
	"spendyze/internal/storage"
)

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Component: applog.ComponentAPI, Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestServer(t *testing.T) (*Server, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	ledger := services.NewLedgerService(repo, nil)
	t.Cleanup(func() { ledger.Close() })

	srv := NewServer(":0", repo, ledger, quietLogger(), WithBcryptCost(bcrypt.MinCost), WithPinger(repo))
	return srv, repo
}

func do(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestPreflightAndCORS(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(srv, http.MethodOptions, "/anything", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rr.Header().Get("Access-Control-Allow-Headers"))
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/nope"},
		{http.MethodGet, "/login"},
		{http.MethodPost, "/transactions"},
	} {
		rr := do(srv, tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotFound, rr.Code, tc.path)
		assert.Equal(t, backend.ReplyNotFound, rr.Body.String())
	}
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/readyz", "").Code)
}

func TestAccountAndLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(srv, http.MethodPost, "/create_account", `{"username":"alice","password":"secret"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, backend.ReplyAccountCreated, rr.Body.String())

	rr = do(srv, http.MethodPost, "/create_account", `{"username":"alice","password":"other"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, backend.ReplyAccountFailed, rr.Body.String())

	rr = do(srv, http.MethodPost, "/create_account", `not json`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, backend.ReplyBadRequest, rr.Body.String())

	rr = do(srv, http.MethodPost, "/login", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, backend.ReplyLoginFailed, rr.Body.String())
	assert.Zero(t, srv.CurrentUser())

	rr = do(srv, http.MethodPost, "/login", `{"username":"ghost","password":"x"}`)
	assert.Equal(t, backend.ReplyLoginFailed, rr.Body.String())

	rr = do(srv, http.MethodPost, "/login", `{"username":"alice","password":"secret"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Login successful! Your user ID is 1.", rr.Body.String())
	assert.Equal(t, int64(1), srv.CurrentUser())
}

func TestInsertRequiresLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(srv, http.MethodPost, "/home", `{"type":"expense","amount":"5","date":"2025-01-01","category":"Food"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, backend.ReplyNotLoggedIn, rr.Body.String())

	rr = do(srv, http.MethodGet, "/transactions", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestInsertAndList(t *testing.T) {
	srv, _ := newTestServer(t)
	do(srv, http.MethodPost, "/create_account", `{"username":"bob","password":"pw"}`)
	do(srv, http.MethodPost, "/login", `{"username":"bob","password":"pw"}`)

	rr := do(srv, http.MethodPost, "/home", `{"type":"expense","amount":"12.5","date":"2025-03-04","category":"Food"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, backend.ReplyInserted, rr.Body.String())

	rr = do(srv, http.MethodPost, "/home", `{"type":"income","amount":"1000","date":"2025-03-01","category":"Salary"}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(srv, http.MethodPost, "/home", `{"type":"gift","amount":"1","date":"2025-03-01","category":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, backend.ReplyBadRequest, rr.Body.String())

	rr = do(srv, http.MethodPost, "/home", `{"type":"income"`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(srv, http.MethodGet, "/transactions", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var got struct {
		Method1 []core.TransactionRecord `json:"method1"`
		Method2 struct {
			Type string `json:"type"`
			Data struct {
				Labels []string `json:"labels"`
			} `json:"data"`
		} `json:"method2"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Method1, 2)
	assert.Equal(t, "bar", got.Method2.Type)
	assert.Equal(t, []string{"2025-03"}, got.Method2.Data.Labels)
}

func TestTransactionsCacheInvalidatedOnInsert(t *testing.T) {
	srv, _ := newTestServer(t)
	do(srv, http.MethodPost, "/create_account", `{"username":"dora","password":"pw"}`)
	do(srv, http.MethodPost, "/login", `{"username":"dora","password":"pw"}`)

	count := func() int {
		rr := do(srv, http.MethodGet, "/transactions", "")
		require.Equal(t, http.StatusOK, rr.Code)
		var got backend.Transactions
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		return len(got.Records)
	}

	assert.Equal(t, 0, count())
	assert.Equal(t, 1, srv.reports.Len())

	do(srv, http.MethodPost, "/home", `{"type":"expense","amount":"3","date":"2025-04-01","category":"Food"}`)
	assert.Equal(t, 0, srv.reports.Len())
	assert.Equal(t, 1, count())
}

type failingLedger struct{}

func (failingLedger) Record(context.Context, int64, core.NewTransaction) (int64, error) {
	return 0, errors.New("disk full")
}

func (failingLedger) List(context.Context, int64) ([]core.TransactionRecord, error) {
	return nil, errors.New("disk full")
}

func TestDatabaseErrors(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	defer repo.Close()
	srv := NewServer(":0", repo, failingLedger{}, quietLogger(), WithBcryptCost(bcrypt.MinCost))

	do(srv, http.MethodPost, "/create_account", `{"username":"carol","password":"pw"}`)
	do(srv, http.MethodPost, "/login", `{"username":"carol","password":"pw"}`)

	rr := do(srv, http.MethodPost, "/home", `{"type":"expense","amount":"5","date":"2025-01-01","category":"Food"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, backend.ReplyDatabaseError, rr.Body.String())

	rr = do(srv, http.MethodGet, "/transactions", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

// The HTTP backend client and this server must agree on the wire format.
func TestHTTPClientRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	client := backend.NewHTTPClient(ts.URL, ts.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	reply, err := client.CreateAccount(ctx, "dave", "pw")
	require.NoError(t, err)
	assert.Contains(t, reply.Body, "successfully")

	reply, err = client.Login(ctx, "dave", "pw")
	require.NoError(t, err)
	assert.True(t, reply.OK())
	assert.Contains(t, reply.Body, "successful")

	reply, err = client.AddTransaction(ctx, core.NewTransaction{
		Type: core.Expense, Amount: decimal.RequireFromString("7.25"), Date: core.NewDate(2025, 6, 2), Category: "Transport",
	})
	require.NoError(t, err)
	assert.Equal(t, backend.ReplyInserted, reply.Body)

	tx, err := client.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, tx.Records, 1)
	rec := tx.Records[0]
	assert.Equal(t, core.Expense, rec.Type)
	assert.True(t, rec.Amount.Equal(decimal.RequireFromString("7.25")))
	assert.Equal(t, "2025-06-02", rec.Date.String())
	assert.Equal(t, "Transport", rec.Category)
	assert.NotEmpty(t, tx.Chart)
}

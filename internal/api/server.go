// Package api serves the backend the Spendyze clients talk to: account
// creation, login, transaction insert and the transaction report.
//
// Like the service it replaces, it remembers a single logged-in user for
// the whole process; the last successful login wins.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"spendyze/internal/backend"
	"spendyze/internal/cache"
	"spendyze/internal/core"
	applog "spendyze/internal/log"
	"spendyze/internal/middleware/security"
	"spendyze/internal/middleware/trace"
	"spendyze/internal/report"
	"spendyze/internal/storage"
)

const (
	maxBodySize = 64 << 10

	reportCacheSize = 128
	reportCacheTTL  = 5 * time.Minute
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (storage.User, error)
}

// Ledger records and lists transactions.
type Ledger interface {
	Record(ctx context.Context, userID int64, t core.NewTransaction) (int64, error)
	List(ctx context.Context, userID int64) ([]core.TransactionRecord, error)
}

// Pinger reports storage health for /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server

	users  UserStore
	ledger Ledger
	pinger Pinger
	logger *applog.Logger
	events *applog.StructuredLogger

	bcryptCost int

	// reports holds the last /transactions response per user. The API is
	// the only writer, so an insert invalidates the user's entry.
	reports *cache.LRU[int64, backend.Transactions]

	mu          sync.RWMutex
	currentUser int64
}

// Option customises a Server.
type Option func(*Server)

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.bcryptCost = cost }
}

// WithPinger enables the storage check on /readyz.
func WithPinger(p Pinger) Option {
	return func(s *Server) { s.pinger = p }
}

func NewServer(addr string, users UserStore, ledger Ledger, logger *applog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		users:      users,
		ledger:     ledger,
		logger:     logger,
		events:     applog.NewStructuredLogger(logger),
		bcryptCost: bcrypt.DefaultCost,
		reports:    cache.NewLRU[int64, backend.Transactions](reportCacheSize, reportCacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}

	var handler http.Handler = http.HandlerFunc(s.route)
	handler = withCORS(handler)
	handler = applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(handler)
	handler = applog.ComponentMiddleware(applog.ComponentAPI)(handler)
	handler = applog.Middleware(logger)(handler)
	handler = trace.NewMiddleware(logger.Logger, security.NewResolver().ClientIP).Middleware(handler)
	s.Handler = handler
	return s
}

// route dispatches on exact method and path. Anything unknown, including a
// known path with the wrong method, is 404.
func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeText(w, http.StatusOK, "")
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/login":
		s.handleLogin(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/create_account":
		s.handleCreateAccount(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/home":
		s.handleInsert(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/transactions":
		s.handleTransactions(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/healthz":
		writeText(w, http.StatusOK, "ok")
	case r.Method == http.MethodGet && r.URL.Path == "/readyz":
		s.handleReady(w, r)
	default:
		writeText(w, http.StatusNotFound, backend.ReplyNotFound)
	}
}

// CurrentUser returns the logged-in user ID, or 0.
func (s *Server) CurrentUser() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentUser
}

func (s *Server) setCurrentUser(id int64) {
	s.mu.Lock()
	s.currentUser = id
	s.mu.Unlock()
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	var creds backend.Credentials
	if err := decodeBody(w, r, &creds); err != nil {
		writeText(w, http.StatusOK, backend.ReplyBadRequest)
		return
	}

	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(creds.Username))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeText(w, http.StatusOK, backend.ReplyLoginFailed)
		return
	case err != nil:
		s.events.LogError(ctx, "Login lookup failed", err, applog.ComponentStorage, applog.OpLogin, applog.NewFields())
		writeText(w, http.StatusOK, backend.ReplyDatabaseError)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		writeText(w, http.StatusOK, backend.ReplyLoginFailed)
		return
	}

	s.setCurrentUser(user.ID)
	logger.InfoContext(ctx, "User logged in", applog.FieldUserID, user.ID)
	writeText(w, http.StatusOK, backend.LoginSucceeded(user.ID))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	var creds backend.Credentials
	if err := decodeBody(w, r, &creds); err != nil {
		writeText(w, http.StatusOK, backend.ReplyBadRequest)
		return
	}
	username := strings.TrimSpace(creds.Username)
	if username == "" || creds.Password == "" {
		writeText(w, http.StatusOK, backend.ReplyAccountFailed)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.bcryptCost)
	if err != nil {
		// Passwords over 72 bytes end up here.
		logger.WarnContext(ctx, "Password hashing failed", applog.FieldError, err)
		writeText(w, http.StatusOK, backend.ReplyAccountFailed)
		return
	}

	id, err := s.users.CreateUser(ctx, username, string(hash))
	if err != nil {
		if !errors.Is(err, storage.ErrUsernameTaken) {
			s.events.LogError(ctx, "Account creation failed", err, applog.ComponentStorage, applog.OpCreate, applog.NewFields())
		}
		writeText(w, http.StatusOK, backend.ReplyAccountFailed)
		return
	}

	logger.InfoContext(ctx, "Account created", applog.FieldUserID, id)
	writeText(w, http.StatusOK, backend.ReplyAccountCreated)
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.CurrentUser()
	if userID == 0 {
		writeText(w, http.StatusUnauthorized, backend.ReplyNotLoggedIn)
		return
	}

	var body backend.TransactionBody
	if err := decodeBody(w, r, &body); err != nil {
		writeText(w, http.StatusBadRequest, backend.ReplyBadRequest)
		return
	}
	t, err := body.Transaction()
	if err != nil {
		applog.FromContext(ctx).InfoContext(ctx, "Rejected transaction", applog.FieldError, err)
		writeText(w, http.StatusBadRequest, backend.ReplyBadRequest)
		return
	}

	id, err := s.ledger.Record(ctx, userID, t)
	if err != nil {
		s.events.LogError(ctx, "Transaction insert failed", err, applog.ComponentStorage, applog.OpCreate,
			applog.NewFields().WithTransaction(string(t.Type), core.FormatAmount(t.Amount), t.Date.String(), t.Category))
		writeText(w, http.StatusInternalServerError, backend.ReplyDatabaseError)
		return
	}

	s.reports.Delete(userID)
	s.events.LogTransactionRecorded(ctx, string(t.Type), core.FormatAmount(t.Amount), t.Date.String(), t.Category)
	applog.FromContext(ctx).DebugContext(ctx, "Transaction stored", applog.FieldTransactionID, id, applog.FieldUserID, userID)
	writeText(w, http.StatusOK, backend.ReplyInserted)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := s.CurrentUser()
	if userID == 0 {
		writeText(w, http.StatusUnauthorized, backend.ReplyNotLoggedIn)
		return
	}

	if cached, ok := s.reports.Get(userID); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	records, err := s.ledger.List(ctx, userID)
	if err != nil {
		s.events.LogError(ctx, "Transaction list failed", err, applog.ComponentStorage, applog.OpList, applog.NewFields())
		writeText(w, http.StatusInternalServerError, backend.ReplyDatabaseError)
		return
	}
	chart, err := report.BuildChartJSON(records)
	if err != nil {
		s.events.LogError(ctx, "Chart build failed", err, applog.ComponentAPI, applog.OpRead, applog.NewFields())
		writeText(w, http.StatusInternalServerError, backend.ReplyDatabaseError)
		return
	}

	resp := backend.Transactions{Records: records, Chart: chart}
	s.reports.Set(userID, resp)
	applog.FromContext(ctx).DebugContext(ctx, "Transactions listed", applog.FieldUserID, userID, applog.FieldRecords, len(records))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			writeText(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	writeText(w, http.StatusOK, "ready")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after JSON body")
	}
	return nil
}

// withCORS lets browser clients on any origin call the API.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

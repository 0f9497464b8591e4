// Package http serves the Spendyze web client: the entry, add-transaction,
// report and AI consultation views for the single user of this process.
package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"spendyze/internal/chat"
	"spendyze/internal/gate"
	"spendyze/internal/middleware/ratelimit"
	"spendyze/internal/middleware/security"
	"spendyze/internal/middleware/trace"
	"spendyze/internal/services"
	"spendyze/internal/session"
	"spendyze/internal/snapshot"
	appweb "spendyze/web"
)

// Deps are the collaborators the web client renders from.
type Deps struct {
	Store        *session.Store
	Auth         *services.AuthService
	Transactions *services.TransactionService
	Snapshot     *snapshot.Loader
	Chat         *chat.Controller
	Logger       *slog.Logger

	RateLimitPerMinute int
}

type Server struct {
	http.Server

	templates *template.Template
	store     *session.Store
	auth      *services.AuthService
	txs       *services.TransactionService
	loader    *snapshot.Loader
	chat      *chat.Controller
	logger    *slog.Logger

	limiter     *ratelimit.Limiter
	unsubscribe func()
	watchDone   chan struct{}
	stopOnce    sync.Once
}

func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	t, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		templates: t,
		store:     deps.Store,
		auth:      deps.Auth,
		txs:       deps.Transactions,
		loader:    deps.Snapshot,
		chat:      deps.Chat,
		logger:    deps.Logger,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		watchDone: make(chan struct{}),
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /{$}", s.handleEntry)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /create-account", s.handleCreateAccount)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /home", s.requireSession(gate.ViewHome, s.handleHome))
	mux.HandleFunc("POST /home", s.requireSession(gate.ViewHome, s.handleAddTransaction))
	mux.HandleFunc("GET /report", s.requireSession(gate.ViewReport, s.handleReport))
	mux.HandleFunc("GET /ai-chat", s.requireSession(gate.ViewChat, s.handleChat))
	mux.HandleFunc("POST /ai-chat/messages", s.requireSession(gate.ViewChat, s.handleChatMessage))

	resolver := security.NewResolver()
	var handler http.Handler = mux
	handler = s.limiter.Middleware(resolver.ClientIP)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(s.logger, resolver.ClientIP).Middleware(handler)
	s.Handler = handler

	s.watchSession()
	return s, nil
}

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// watchSession drops the conversation and the snapshot whenever the session
// ends or changes hands, so nothing from one user leaks into the next.
func (s *Server) watchSession() {
	updates, cancel := s.store.Subscribe()
	s.unsubscribe = cancel
	last := s.store.Current()

	go func() {
		defer close(s.watchDone)
		for current := range updates {
			if !current.Authenticated || (last.Authenticated && current.Identifier != last.Identifier) {
				s.chat.Reset()
				s.loader.Clear()
				s.logger.Debug("Client state reset", "authenticated", current.Authenticated)
			}
			last = current
		}
	}()
}

// Shutdown stops the session watcher and the rate limiter, then the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.unsubscribe()
		<-s.watchDone
		s.limiter.Stop()
	})
	return s.Server.Shutdown(ctx)
}

// requireSession re-evaluates the route gate on every request.
func (s *Server) requireSession(view gate.View, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := gate.Admit(view, s.store.Current())
		if d.Redirect {
			http.Redirect(w, r, string(d.View), http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

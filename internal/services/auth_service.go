package services

import (
	"context"
	"log/slog"
	"strings"

	"spendyze/internal/backend"
	"spendyze/internal/session"
)

// Messages shown by the entry view.
const (
	MsgNetworkError   = "Network or server error."
	MsgAccountCreated = "Account created! You can now log in."
	MsgMissingFields  = "Please enter a username and password."
	MsgLoginFailed    = "Login failed."
	MsgSignupFailed   = "Account creation failed."
)

// Outcome is the result of a user-facing operation: whether it succeeded
// and the message to show.
type Outcome struct {
	OK      bool
	Message string
}

// AuthService signs the user in and out against the backend and keeps
// the session store in step.
type AuthService struct {
	client backend.Client
	store  *session.Store
	logger *slog.Logger
}

func NewAuthService(client backend.Client, store *session.Store, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{client: client, store: store, logger: logger}
}

// Login succeeds when the backend answers 2xx with a body containing
// "successful". The session identifier is the submitted username.
func (s *AuthService) Login(ctx context.Context, username, password string) Outcome {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Outcome{Message: MsgMissingFields}
	}

	reply, err := s.client.Login(ctx, username, password)
	if err != nil {
		s.logger.WarnContext(ctx, "Login request failed", "error", err)
		return Outcome{Message: MsgNetworkError}
	}
	if !reply.OK() || !strings.Contains(reply.Body, "successful") {
		s.logger.InfoContext(ctx, "Login rejected", "status_code", reply.Status)
		return Outcome{Message: replyMessage(reply, MsgLoginFailed)}
	}

	if err := s.store.Login(username); err != nil {
		return Outcome{Message: MsgLoginFailed}
	}
	s.logger.InfoContext(ctx, "User logged in")
	return Outcome{OK: true, Message: strings.TrimSpace(reply.Body)}
}

// CreateAccount succeeds when the backend answers 2xx with a body
// containing "successfully". It does not log the user in.
func (s *AuthService) CreateAccount(ctx context.Context, username, password string) Outcome {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Outcome{Message: MsgMissingFields}
	}

	reply, err := s.client.CreateAccount(ctx, username, password)
	if err != nil {
		s.logger.WarnContext(ctx, "Create account request failed", "error", err)
		return Outcome{Message: MsgNetworkError}
	}
	if !reply.OK() || !strings.Contains(reply.Body, "successfully") {
		return Outcome{Message: replyMessage(reply, MsgSignupFailed)}
	}
	s.logger.InfoContext(ctx, "Account created")
	return Outcome{OK: true, Message: MsgAccountCreated}
}

// Logout clears the session.
func (s *AuthService) Logout(ctx context.Context) {
	s.store.Logout()
	s.logger.InfoContext(ctx, "User logged out")
}

func replyMessage(r backend.Reply, fallback string) string {
	if msg := strings.TrimSpace(r.Body); msg != "" {
		return msg
	}
	return fallback
}

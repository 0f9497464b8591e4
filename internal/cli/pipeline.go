package cli

import (
	"context"
	"fmt"

	"spendyze/internal/backend"
	"spendyze/internal/chat"
	"spendyze/internal/config"
	applog "spendyze/internal/log"
	"spendyze/internal/model"
	"spendyze/internal/services"
	"spendyze/internal/session"
	"spendyze/internal/snapshot"
)

// Pipeline is the client core shared by the web server and the terminal
// client: one session store, the snapshot it feeds and the conversation.
type Pipeline struct {
	Backend      backend.Client
	Store        *session.Store
	Auth         *services.AuthService
	Transactions *services.TransactionService
	Snapshot     *snapshot.Loader
	Chat         *chat.Controller

	cleanup backend.CleanupFunc
}

// NewPipeline builds the client core from configuration.
func NewPipeline(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Pipeline, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).Create(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	store := session.NewStore()
	loader := snapshot.NewLoader(res.Client, cfg.SnapshotTimeout, logger.WithComponent(applog.ComponentSnapshot).Logger)
	responder := model.NewClient(cfg.ModelEndpoint, cfg.ModelAPIKey,
		model.WithLogger(logger.WithComponent(applog.ComponentModel).Logger))

	return &Pipeline{
		Backend:      res.Client,
		Store:        store,
		Auth:         services.NewAuthService(res.Client, store, logger.WithComponent(applog.ComponentSession).Logger),
		Transactions: services.NewTransactionService(res.Client, logger.WithComponent(applog.ComponentTransaction).Logger),
		Snapshot:     loader,
		Chat: chat.NewController(chat.Config{
			Responder: responder,
			Snapshot:  loader,
			Timeout:   cfg.ChatTimeout,
			Logger:    logger.WithComponent(applog.ComponentChat).Logger,
		}),
		cleanup: res.Cleanup,
	}, nil
}

// Close releases backend resources.
func (p *Pipeline) Close() error {
	if p.cleanup == nil {
		return nil
	}
	return p.cleanup()
}

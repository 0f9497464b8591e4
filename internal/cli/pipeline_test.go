package cli

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendyze/internal/chat"
	"spendyze/internal/config"
	applog "spendyze/internal/log"
	"spendyze/internal/services"
)

func TestPipelineMemoryBackend(t *testing.T) {
	var promptSeen string
	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		promptSeen = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"You spent **12.50** on Food."}]}}]}`)
	}))
	defer model.Close()

	cfg := config.Defaults()
	cfg.Backend = config.BackendMemory
	cfg.ModelEndpoint = model.URL
	cfg.ChatTimeout = 5 * time.Second

	logger := applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	p, err := NewPipeline(context.Background(), &cfg, logger)
	require.NoError(t, err)
	defer func() { assert.NoError(t, p.Close()) }()

	ctx := context.Background()
	assert.False(t, p.Store.IsAuthenticated())

	require.True(t, p.Auth.CreateAccount(ctx, "erin", "pw").OK)
	require.True(t, p.Auth.Login(ctx, "erin", "pw").OK)
	assert.True(t, p.Store.IsAuthenticated())

	out := p.Transactions.Add(ctx, services.TransactionForm{
		Type: "expense", Amount: "12,50", Date: "2025-03-04", Category: "Food",
	})
	require.True(t, out.OK, out.Message)

	records, err := p.Snapshot.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "12.50", records[0].Amount.StringFixed(2))

	require.True(t, p.Chat.Submit(ctx, "How much on food?"))
	assert.True(t, strings.Contains(promptSeen, "How much on food?"))
	assert.True(t, strings.Contains(promptSeen, "Food"))

	st := p.Chat.State()
	require.Len(t, st.Messages, 2)
	assert.Equal(t, chat.OutcomeSuccess, st.LastOutcome)
	assert.Equal(t, "You spent **12.50** on Food.", st.Messages[1].RawText)
}

func TestNewPipelineRejectsUnknownBackend(t *testing.T) {
	cfg := config.Defaults()
	cfg.Backend = "carrier-pigeon"
	_, err := NewPipeline(context.Background(), &cfg, applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)}))
	assert.Error(t, err)
}

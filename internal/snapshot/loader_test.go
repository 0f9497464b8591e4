package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendyze/internal/backend"
	"spendyze/internal/core"
)

type fakeSource struct {
	tx    backend.Transactions
	err   error
	block bool
}

func (f *fakeSource) Transactions(ctx context.Context) (backend.Transactions, error) {
	if f.block {
		<-ctx.Done()
		return backend.Transactions{}, ctx.Err()
	}
	return f.tx, f.err
}

func records(n int) []core.TransactionRecord {
	out := make([]core.TransactionRecord, n)
	for i := range out {
		out[i] = core.TransactionRecord{
			ID:       int64(i + 1),
			Type:     core.Expense,
			Amount:   decimal.NewFromInt(int64(i + 1)),
			Date:     core.NewDate(2025, 1, i+1),
			Category: "Food",
		}
	}
	return out
}

func TestLoader_StartsEmpty(t *testing.T) {
	l := NewLoader(&fakeSource{}, 0, nil)
	assert.Empty(t, l.Snapshot())
	assert.Nil(t, l.Chart())
}

func TestLoader_LoadReplacesWholesale(t *testing.T) {
	src := &fakeSource{tx: backend.Transactions{Records: records(3), Chart: json.RawMessage(`{"a":1}`)}}
	l := NewLoader(src, time.Second, nil)

	got, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, records(3), l.Snapshot())
	assert.JSONEq(t, `{"a":1}`, string(l.Chart()))

	src.tx = backend.Transactions{Records: records(1)}
	_, err = l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, records(1), l.Snapshot())
	assert.Nil(t, l.Chart())
}

func TestLoader_NilRecordsBecomeEmpty(t *testing.T) {
	l := NewLoader(&fakeSource{}, time.Second, nil)
	got, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.NotNil(t, l.Snapshot())
}

func TestLoader_FailureClears(t *testing.T) {
	src := &fakeSource{tx: backend.Transactions{Records: records(2), Chart: json.RawMessage(`{}`)}}
	l := NewLoader(src, time.Second, nil)
	_, err := l.Load(context.Background())
	require.NoError(t, err)

	src.err = errors.New("unreachable")
	got, err := l.Load(context.Background())
	assert.EqualError(t, err, "unreachable")
	assert.Nil(t, got)
	assert.Empty(t, l.Snapshot())
	assert.Nil(t, l.Chart())
}

func TestLoader_Timeout(t *testing.T) {
	l := NewLoader(&fakeSource{block: true}, 20*time.Millisecond, nil)
	_, err := l.Load(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, l.Snapshot())
}

func TestLoader_Clear(t *testing.T) {
	l := NewLoader(&fakeSource{tx: backend.Transactions{Records: records(1)}}, time.Second, nil)
	_, _ = l.Load(context.Background())
	l.Clear()
	assert.Empty(t, l.Snapshot())
}

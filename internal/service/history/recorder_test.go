package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jdreioe/Wingmate-sub001/internal/storage"
)

type fakeAppender struct {
	mu   sync.Mutex
	recs []storage.SaidText
	err  error
}

func (f *fakeAppender) AppendSaidText(_ context.Context, rec storage.SaidText) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.recs = append(f.recs, rec)
	return nil
}

func (f *fakeAppender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recs)
}

func TestAppend_WritesInBackground(t *testing.T) {
	fa := &fakeAppender{}
	r := New(fa, nil)

	r.Append(storage.SaidText{Text: "hello", VoiceName: "v"})
	r.Append(storage.SaidText{Text: "world", VoiceName: "v"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Close(ctx))
	assert.Equal(t, 2, fa.count())

	// ID и временные метки проставляются автоматически
	fa.mu.Lock()
	defer fa.mu.Unlock()
	assert.NotEmpty(t, fa.recs[0].ID)
	assert.NotZero(t, fa.recs[0].CreatedAt)
}

func TestAppend_PersistenceErrorIsSwallowed(t *testing.T) {
	fa := &fakeAppender{err: errors.New("disk full")}
	r := New(fa, nil)

	// Не должно ни паниковать, ни блокировать
	r.Append(storage.SaidText{Text: "x"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Close(ctx))
}

func TestAppend_AfterCloseDropsWithoutPanic(t *testing.T) {
	fa := &fakeAppender{}
	r := New(fa, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Close(ctx))

	assert.NotPanics(t, func() {
		r.Append(storage.SaidText{Text: "too late"})
	})
	assert.Equal(t, 0, fa.count())
}

func TestClose_AbandonsOnExpiredContext(t *testing.T) {
	block := make(chan struct{})
	fa := &blockingAppender{block: block}
	r := New(fa, nil)
	r.Append(storage.SaidText{Text: "slow"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := r.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(block)
}

type blockingAppender struct{ block chan struct{} }

func (b *blockingAppender) AppendSaidText(context.Context, storage.SaidText) error {
	<-b.block
	return nil
}

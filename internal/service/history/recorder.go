// Package history — журналирование «что было сказано» в лучшем случае
// (best effort): запись никогда не блокирует и не роняет путь синтеза.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jdreioe/Wingmate-sub001/internal/storage"
)

// Appender — приёмник записей журнала (в рабочем коде — storage.Store).
type Appender interface {
	AppendSaidText(ctx context.Context, rec storage.SaidText) error
}

// Recorder пишет записи журнала в фоне. Это явно принадлежащая движку фоновая
// задача, а не «отвязанная» горутина: Close детерминированно дожидается хвоста
// либо бросает его по контексту при завершении приложения.
type Recorder struct {
	store  Appender
	logger *zap.SugaredLogger

	ch        chan storage.SaidText
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex // защищает closed и отправку в ch от гонки с close(ch)
	closed bool
}

func New(store Appender, logger *zap.SugaredLogger) *Recorder {
	r := &Recorder{
		store:  store,
		logger: logger,
		ch:     make(chan storage.SaidText, 64),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Append ставит запись в очередь и возвращается немедленно. При переполнении
// очереди запись отбрасывается с предупреждением: журнал — не причина тормозить
// или ронять воспроизведение.
func (r *Recorder) Append(rec storage.SaidText) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UnixMilli()
	if rec.Date == 0 {
		rec.Date = now
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = now
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		// Append после Close — не повод для паники: запись просто отбрасывается
		if r.logger != nil {
			r.logger.Warnw("History recorder closed, record dropped", "text", rec.Text)
		}
		return
	}
	select {
	case r.ch <- rec:
	default:
		if r.logger != nil {
			r.logger.Warnw("History queue full, record dropped", "text", rec.Text)
		}
	}
}

// Close прекращает приём и ждёт дозаписи хвоста очереди, пока жив ctx.
func (r *Recorder) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.ch)
		r.mu.Unlock()
	})
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := r.store.AppendSaidText(ctx, rec)
		cancel()
		if err != nil && r.logger != nil {
			// Ошибка журнала проглатывается: логируем и идём дальше
			r.logger.Warnw("Failed to append history record", "error", err)
		}
	}
}

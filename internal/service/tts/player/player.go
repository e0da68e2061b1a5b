package player

import (
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"go.uber.org/zap"
)

// Прослойка над speaker для тестов: подменяется в _test.go, в рабочем коде —
// реальные функции beep/speaker.
var (
	initFn   = func(sr beep.SampleRate, bufSize int) error { return speaker.Init(sr, bufSize) }
	playFn   = speaker.Play
	lockFn   = speaker.Lock
	unlockFn = speaker.Unlock
)

// Status — состояние контроллера воспроизведения.
type Status int

const (
	StatusIdle Status = iota
	StatusPlaying
	StatusPaused
)

// session — одна сессия воспроизведения. Живёт от старта до естественного
// завершения, явного stop или вытеснения новой сессией.
type session struct {
	ctrl   *beep.Ctrl
	done   chan struct{}
	once   sync.Once
	paused atomic.Bool
}

// finish помечает сессию завершённой ровно один раз, кто бы ни успел первым —
// колбэк микшера или вытеснение.
func (s *session) finish() { s.once.Do(func() { close(s.done) }) }

// Controller владеет единственным каналом аудио-вывода. Инвариант: в любой момент
// жива не более одной сессии; Play при активной сессии сначала принудительно
// останавливает и освобождает предыдущую (ресурс чистится безусловно).
//
// Колбэк завершения сверяет идентичность сессии атомарно и не берёт мьютекс
// контроллера: микшер beep зовёт его под собственной блокировкой speaker,
// и встречный захват привёл бы к дедлоку.
type Controller struct {
	mu     sync.Mutex // сериализует Play/Stop/Pause/Resume
	active atomic.Pointer[session]

	volumeDB   float64
	sampleRate beep.SampleRate
	ready      bool
	logger     *zap.SugaredLogger
}

// New создаёт контроллер без изменения громкости (0 dB).
func New(logger *zap.SugaredLogger) *Controller { return &Controller{logger: logger} }

// NewWithVolume создаёт контроллер с предустановленной громкостью в dB
// (отрицательные — тише).
func NewWithVolume(db float64, logger *zap.SugaredLogger) *Controller {
	return &Controller{volumeDB: db, logger: logger}
}

// Play декодирует поток (mp3|wav), вытесняет текущую сессию и блокируется до
// завершения новой: естественного конца, Stop или вытеснения следующим Play.
// Вытеснение — не ошибка.
func (c *Controller) Play(format string, r io.ReadCloser) error {
	streamer, f, err := decode(format, r)
	if err != nil {
		_ = r.Close()
		if c.logger != nil {
			c.logger.Warnw("Failed to decode audio stream", "format", format, "error", err)
		}
		return err
	}
	defer streamer.Close()

	s := &session{done: make(chan struct{})}

	c.mu.Lock()
	c.stopActiveLocked()
	if !c.ready || c.sampleRate != f.SampleRate {
		if err := initFn(f.SampleRate, f.SampleRate.N(time.Second/10)); err != nil {
			c.mu.Unlock()
			return err
		}
		c.ready = true
		c.sampleRate = f.SampleRate
	}
	vol := &effects.Volume{
		Streamer: streamer,
		Base:     2,
		Volume:   c.volumeDB,
		Silent:   false,
	}
	s.ctrl = &beep.Ctrl{Streamer: vol}
	c.active.Store(s)
	c.mu.Unlock()

	playFn(beep.Seq(s.ctrl, beep.Callback(func() {
		// Поздний колбэк вытесненной сессии не должен трогать текущую
		c.active.CompareAndSwap(s, nil)
		s.finish()
	})))

	<-s.done
	return nil
}

// Stop останавливает и освобождает активную сессию, если она есть.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopActiveLocked()
	c.mu.Unlock()
}

// Pause приостанавливает активную сессию. Best effort: для источников без
// поддержки паузы (процессный локальный синтез) движок вместо этого зовёт Stop.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.active.Load()
	if s == nil {
		return
	}
	lockFn()
	s.ctrl.Paused = true
	unlockFn()
	s.paused.Store(true)
}

// Resume возобновляет приостановленную сессию.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.active.Load()
	if s == nil {
		return
	}
	lockFn()
	s.ctrl.Paused = false
	unlockFn()
	s.paused.Store(false)
}

// IsPlaying сообщает, идёт ли сейчас воспроизведение (пауза — не воспроизведение).
func (c *Controller) IsPlaying() bool {
	s := c.active.Load()
	return s != nil && !s.paused.Load()
}

// Status возвращает текущее состояние: Idle, Playing или Paused.
func (c *Controller) Status() Status {
	s := c.active.Load()
	switch {
	case s == nil:
		return StatusIdle
	case s.paused.Load():
		return StatusPaused
	default:
		return StatusPlaying
	}
}

// stopActiveLocked вытесняет активную сессию: глушит её в микшере и помечает
// завершённой. Вызывается под c.mu.
func (c *Controller) stopActiveLocked() {
	s := c.active.Swap(nil)
	if s == nil {
		return
	}
	if c.logger != nil {
		c.logger.Debugw("Displacing active playback session")
	}
	lockFn()
	s.ctrl.Streamer = nil
	s.ctrl.Paused = false
	unlockFn()
	s.finish()
}

func decode(format string, r io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(format) {
	case "wav":
		return wav.Decode(r)
	case "mp3":
		return mp3.Decode(r)
	default:
		return nil, beep.Format{}, errors.New("unsupported format for direct playback; use mp3 or wav")
	}
}

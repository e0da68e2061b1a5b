// Package speech — движок разрешения и кэширования синтеза речи.
//
// Три уровня, строго по порядку, с коротким замыканием на первом успехе:
// кэш → облачный синтез → локальный (оффлайн) синтезатор. Вся дисциплина
// деградации живёт здесь: уровни ниже верхнего обязаны иногда падать
// (оффлайн, отозванный ключ, неподдержанный язык), и наружу выходит только
// полное исчерпание всех трёх.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Jdreioe/Wingmate-sub001/internal/config"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/segment"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/ssml"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/tts"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/tts/local"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/voice"
	"github.com/Jdreioe/Wingmate-sub001/internal/storage"
)

// ErrFallbackUnavailable — резервный уровень тоже недоступен; откатываться
// больше некуда, единственная ошибка, которая доходит до вызывающего.
var ErrFallbackUnavailable = local.ErrUnavailable

// CloudSynthesizer — облачный уровень (см. internal/service/tts).
type CloudSynthesizer interface {
	Synthesize(ctx context.Context, req tts.Request, cfg any) ([]byte, string, error)
}

// LocalSynthesizer — резервный локальный уровень.
type LocalSynthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, string, error)
}

// Player — контроллер единственного канала аудио-вывода.
// Play блокируется до завершения сессии; новый Play вытесняет предыдущую.
type Player interface {
	Play(format string, r io.ReadCloser) error
	Stop()
	Pause()
	Resume()
	IsPlaying() bool
}

// Cache — контент-адресуемый индекс синтезированного аудио.
type Cache interface {
	LookupCache(ctx context.Context, hash string) (string, bool, error)
	StoreCache(ctx context.Context, e storage.CacheEntry) error
}

// Recorder — журнал сказанного, best effort.
type Recorder interface {
	Append(rec storage.SaidText)
	Close(ctx context.Context) error
}

// Options — необязательные перекрытия одного вызова Speak.
type Options struct {
	Voice *voice.Profile
	Pitch *float64
	Rate  *float64
}

// Engine — оркестратор трёхуровневого синтеза. Все коллабораторы внедряются
// через конструктор; глобального состояния нет.
type Engine struct {
	cfg      *config.Config
	logger   *zap.SugaredLogger
	cloud    CloudSynthesizer
	localTTS LocalSynthesizer
	player   Player
	cache    Cache
	history  Recorder
	recent   *Recent

	// Схлопывает конкурентные промахи кэша с одинаковым хэшем в один облачный вызов
	sf singleflight.Group

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewEngine создаёт движок. cloud и localTTS могут быть nil: отсутствующий
// уровень просто пропускается (для localTTS это ErrFallbackUnavailable при
// исчерпании остальных).
func NewEngine(
	cfg *config.Config,
	logger *zap.SugaredLogger,
	cloud CloudSynthesizer,
	localTTS LocalSynthesizer,
	player Player,
	cache Cache,
	history Recorder,
) *Engine {
	return &Engine{
		cfg:      cfg,
		logger:   logger,
		cloud:    cloud,
		localTTS: localTTS,
		player:   player,
		cache:    cache,
		history:  history,
		recent:   NewRecent(cfg.RecentMax),
	}
}

// Speak запускает озвучивание текста и возвращается немедленно (fire-and-forget
// с точки зрения UI-потока). Новый вызов отменяет предыдущий незавершённый:
// сериализацию воспроизведения даёт правило «последний играет» контроллера.
func (e *Engine) Speak(text string, opts Options) {
	segs := segment.Segment(text)
	if len(segs) == 0 {
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer cancel()
		if err := e.speak(ctx, text, segs, opts); err != nil && !errors.Is(err, context.Canceled) {
			if e.logger != nil {
				e.logger.Errorw("Speak failed on all tiers", "error", err)
			}
		}
	}()
}

// SpeakSync озвучивает текст и блокируется до конца воспроизведения.
// Удобен для одноразовых утилит; интерактивные потребители берут Speak.
func (e *Engine) SpeakSync(ctx context.Context, text string, opts Options) error {
	segs := segment.Segment(text)
	if len(segs) == 0 {
		return nil
	}
	return e.speak(ctx, text, segs, opts)
}

// Stop отменяет незавершённый синтез и останавливает воспроизведение.
// Поздний результат отменённого облачного вызова воспроизведение не начнёт.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.mu.Unlock()
	e.player.Stop()
}

// Pause приостанавливает текущее воспроизведение (best effort).
func (e *Engine) Pause() { e.player.Pause() }

// Resume возобновляет приостановленное воспроизведение.
func (e *Engine) Resume() { e.player.Resume() }

// IsPlaying сообщает, звучит ли сейчас речь.
func (e *Engine) IsPlaying() bool { return e.player.IsPlaying() }

// WasRecentlySaid сообщает, произносилась ли фраза недавно (поиск дублей).
// Сравнение идёт по тексту, очищенному от тегов паузы.
func (e *Engine) WasRecentlySaid(text string) bool { return e.recent.Contains(text) }

// Recent возвращает буфер недавно сказанного.
func (e *Engine) Recent() *Recent { return e.recent }

// Close останавливает воспроизведение, отменяет незавершённую работу и
// детерминированно завершает фоновый журнал в пределах ctx.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.mu.Unlock()

	e.player.Stop()

	waited := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-ctx.Done():
		return ctx.Err()
	}

	if e.history != nil {
		return e.history.Close(ctx)
	}
	return nil
}

// speak — один проход по уровням. Внутри одного вызова уровни идут строго
// последовательно и никогда не гоняются друг с другом.
func (e *Engine) speak(ctx context.Context, text string, segs []segment.SpeechSegment, opts Options) error {
	res := voice.Resolve(opts.Voice, opts.Pitch, opts.Rate, e.cfg.PrimaryLanguage)
	plain := joinSegments(segs)

	if !e.cfg.PreferOffline {
		normalized := strings.TrimSpace(segment.MergeLines(text))
		hash := storage.CacheKey(normalized, res.Voice.Name, res.Language, res.Pitch, res.Rate)

		// Уровень 1: кэш (артефакт обязан существовать в хранилище, не только в индексе)
		if path, ok := e.cachedArtifact(ctx, hash); ok {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := e.playFile(path); err == nil {
				e.record(plain, res, path)
				return nil
			} else if e.logger != nil {
				e.logger.Warnw("Cached audio failed to play, re-synthesizing", "path", path)
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Уровень 2: облако. Любая ошибка здесь гасится и ведёт на уровень 3.
		if e.cloud != nil && e.cfg.CloudConfigured() {
			path, err := e.synthesizeCloud(ctx, segs, plain, res, hash)
			if err == nil {
				// Поздний результат после Stop не должен начинать воспроизведение
				if ctx.Err() != nil {
					return ctx.Err()
				}
				perr := e.playFile(path)
				if perr == nil {
					e.record(plain, res, path)
					return nil
				}
				err = perr
			}
			if ctx.Err() != nil {
				// Отмена вызывающим — не повод будить локальный синтезатор
				return ctx.Err()
			}
			if e.logger != nil {
				e.logger.Warnw("Cloud tier failed, falling back to local synthesis", "error", err)
			}
		} else if e.logger != nil {
			e.logger.Debugw("Cloud tier not configured, using local synthesis")
		}
	}

	// Уровень 3: локальный синтез. Паузы best effort — уходит чистый текст.
	if e.localTTS == nil {
		return ErrFallbackUnavailable
	}
	data, format, err := e.localTTS.Synthesize(ctx, plain, res.Language)
	if err != nil {
		return fmt.Errorf("fallback synthesis: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := e.player.Play(format, io.NopCloser(bytes.NewReader(data))); err != nil {
		return fmt.Errorf("fallback playback: %w", err)
	}
	e.record(plain, res, "")
	return nil
}

// cachedArtifact ищет хэш в индексе и проверяет, что файл всё ещё на месте.
func (e *Engine) cachedArtifact(ctx context.Context, hash string) (string, bool) {
	path, ok, err := e.cache.LookupCache(ctx, hash)
	if err != nil {
		if e.logger != nil {
			e.logger.Warnw("Cache lookup failed", "error", err)
		}
		return "", false
	}
	if !ok {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// synthesizeCloud — облачный вызов с таймаутом, записью аудио в кэш-каталог и
// обновлением индекса. Конкурентные одинаковые промахи схлопываются в один вызов.
func (e *Engine) synthesizeCloud(ctx context.Context, segs []segment.SpeechSegment, plain string, res voice.Resolved, hash string) (string, error) {
	fn := func() (any, error) {
		timeout := time.Duration(e.cfg.CloudTimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		req := tts.Request{
			Text:     plain,
			SSML:     ssml.Compose(segs, res),
			Language: res.Language,
			Voice:    res.Voice.Name,
			Pitch:    res.Pitch,
			Rate:     res.Rate,
		}
		data, format, err := e.cloud.Synthesize(cctx, req, e.cloudConfig())
		if err != nil {
			return nil, err
		}

		path, err := storage.WriteAudioFile(e.cfg.CacheDir, hash, format, data)
		if err != nil {
			return nil, err
		}
		if err := e.cache.StoreCache(ctx, storage.CacheEntry{
			Hash:        hash,
			StoragePath: path,
			VoiceParams: fmt.Sprintf("%s|%s|%.2f|%.2f", res.Voice.Name, res.Language, res.Pitch, res.Rate),
			CreatedAt:   time.Now().UnixMilli(),
		}); err != nil && e.logger != nil {
			// Файл уже опубликован и играбелен; несохранившийся индекс —
			// лишь будущий промах кэша
			e.logger.Warnw("Cache index write failed", "error", err)
		}
		return path, nil
	}
	for {
		v, err, _ := e.sf.Do(hash, fn)
		if err == nil {
			return v.(string), nil
		}
		// Полёт выполняется с контекстом лидера. Отмена лидера (вытеснение его
		// Speak) не должна ронять чужой живой запрос: повторяем полёт сами.
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			continue
		}
		return "", err
	}
}

// cloudConfig выбирает провайдер-специфичную конфигурацию по переключателю.
func (e *Engine) cloudConfig() any {
	switch strings.ToLower(e.cfg.TTSService) {
	case "google":
		return e.cfg.GoogleTTS
	case "openai":
		return e.cfg.OpenAITTS
	default:
		return e.cfg.AzureTTS
	}
}

func (e *Engine) playFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return e.player.Play(formatFromPath(path), f)
}

func (e *Engine) record(plain string, res voice.Resolved, audioPath string) {
	e.recent.Add(plain)
	if e.history == nil {
		return
	}
	e.history.Append(storage.SaidText{
		Text:            plain,
		VoiceName:       res.Voice.Name,
		Pitch:           res.Pitch,
		Speed:           res.Rate,
		AudioFilePath:   audioPath,
		PrimaryLanguage: res.Language,
	})
}

func joinSegments(segs []segment.SpeechSegment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}

func formatFromPath(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "wav":
		return "wav"
	default:
		return "mp3"
	}
}

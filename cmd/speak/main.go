package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"

	"github.com/Jdreioe/Wingmate-sub001/internal/config"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/history"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/speech"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/tts/azure"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/tts/google"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/tts/local/espeak"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/tts/local/piper"
	openaitts "github.com/Jdreioe/Wingmate-sub001/internal/service/tts/openai"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/tts/player"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/voice"
	"github.com/Jdreioe/Wingmate-sub001/internal/storage"
)

// Консольный фронтенд движка синтеза: текст из аргументов озвучивается
// одним разом, без аргументов — интерактивный режим построчно из stdin.
// Поддерживаются теги паузы: "Привет. <pause duration="2s"/> Пока." или "<2s>".
func main() {
	// Свои флаги регистрируем до NewConfig: он вызывает flag.Parse
	var (
		voiceName string
		language  string
		pitch     float64
		rate      float64
	)
	flag.StringVar(&voiceName, "voice", "", "Имя голоса (пусто — дефолт провайдера)")
	flag.StringVar(&language, "lang", "", "Язык BCP-47, например da-DK (пусто — из конфигурации)")
	flag.Float64Var(&pitch, "pitch", 1.0, "Высота тона, 1.0 — базовая")
	flag.Float64Var(&rate, "rate", 1.0, "Скорость речи, 1.0 — базовая")

	cfg := config.NewConfig()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	if language != "" {
		cfg.PrimaryLanguage = language
	}

	sugar.Infow("Starting speak",
		"TTSService", cfg.TTSService,
		"PreferOffline", cfg.PreferOffline,
		"CacheDir", cfg.CacheDir,
	)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		sugar.Fatalw("Failed to create data directory", "error", err)
	}
	store, err := storage.Open(cfg.DatabasePath, sugar)
	if err != nil {
		sugar.Fatalw("Failed to open database", "path", cfg.DatabasePath, "error", err)
	}
	defer store.Close()

	var cloud speech.CloudSynthesizer
	switch strings.ToLower(cfg.TTSService) {
	case "google":
		cloud = google.New(sugar)
	case "openai":
		api := openai.NewClient()
		cloud = openaitts.New(&api)
	default:
		cloud = azure.New()
	}

	var localTTS speech.LocalSynthesizer
	switch strings.ToLower(cfg.LocalTTS.Backend) {
	case "piper":
		localTTS = piper.New(cfg.LocalTTS.PiperEndpoint, cfg.LocalTTS.PiperVoice, sugar)
	default:
		localTTS = espeak.New(cfg.LocalTTS.EspeakBinary, sugar)
	}

	eng := speech.NewEngine(
		cfg,
		sugar,
		cloud,
		localTTS,
		player.NewWithVolume(cfg.PlaybackVolumeDb, sugar),
		store,
		history.New(store, sugar),
	)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := eng.Close(ctx); err != nil {
			sugar.Warnw("Engine shutdown incomplete", "error", err)
		}
	}()

	opts := speech.Options{}
	if voiceName != "" {
		opts.Voice = &voice.Profile{Name: voiceName}
	}
	if pitch != 1.0 {
		opts.Pitch = &pitch
	}
	if rate != 1.0 {
		opts.Rate = &rate
	}

	if args := flag.Args(); len(args) > 0 {
		text := strings.Join(args, " ")
		if err := eng.SpeakSync(context.Background(), text, opts); err != nil {
			sugar.Fatalw("Synthesis failed", "error", err)
		}
		return
	}

	// Интерактивный режим: строка — фраза, Ctrl+C — выход
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	fmt.Println("Вводите текст построчно, пустая строка останавливает речь:")
	for {
		select {
		case <-sigCh:
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				eng.Stop()
				continue
			}
			if eng.WasRecentlySaid(line) {
				sugar.Debugw("Phrase repeated from recent buffer", "text", line)
			}
			eng.Speak(line, opts)
		}
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Jdreioe/Wingmate-sub001/internal/config"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/segment"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/ssml"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/tts"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/tts/azure"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/tts/player"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/voice"
)

// Утилита прямого синтеза через Azure Cognitive Services TTS, минуя кэш и
// резервные уровни. Полезна для проверки ключа, голоса и тегов паузы.
// Результат сохраняется в файл и по желанию сразу проигрывается.
func main() {
	var (
		text      string
		voiceName string
		language  string
		pitch     float64
		rate      float64
		out       string
		play      bool
	)

	// Свои флаги регистрируем до NewConfig: он вызывает flag.Parse
	flag.StringVar(&text, "text", `Hello. <pause duration="1s"/> This is a synthesis check.`, "Текст для синтеза, теги паузы поддерживаются")
	flag.StringVar(&voiceName, "voice", voice.DefaultVoiceName, "Имя голоса Azure, например da-DK-ChristelNeural")
	flag.StringVar(&language, "lang", "", "Язык BCP-47 (пусто — язык голоса по умолчанию)")
	flag.Float64Var(&pitch, "pitch", 1.0, "Высота тона, 1.0 — базовая")
	flag.Float64Var(&rate, "rate", 1.0, "Скорость речи, 1.0 — базовая")
	flag.StringVar(&out, "out", "speech.mp3", "Имя выходного файла (в текущем каталоге)")
	flag.BoolVar(&play, "play", true, "Сразу воспроизвести результат")

	cfg := config.NewConfig()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	if env := os.Getenv("AZURE_TTS_SUBSCRIPTION_KEY"); env != "" {
		cfg.AzureTTS.SubscriptionKey = env
	}
	if !cfg.CloudConfigured() {
		fmt.Println("Ошибка: не заданы AZURE_TTS_ENDPOINT / AZURE_TTS_SUBSCRIPTION_KEY.")
		os.Exit(1)
	}

	profile := &voice.Profile{Name: voiceName}
	if language != "" {
		profile.SelectedLanguage = language
	}
	res := voice.Resolve(profile, &pitch, &rate, cfg.PrimaryLanguage)
	segs := segment.Segment(text)
	if len(segs) == 0 {
		fmt.Println("Ошибка: пустой текст.")
		os.Exit(1)
	}

	req := tts.Request{
		Text:     segment.StripPauseTags(text),
		SSML:     ssml.Compose(segs, res),
		Language: res.Language,
		Voice:    res.Voice.Name,
		Pitch:    res.Pitch,
		Rate:     res.Rate,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, format, err := azure.New().Synthesize(ctx, req, cfg.AzureTTS)
	if err != nil {
		sugar.Fatalw("Synthesis failed", "error", err)
	}
	sugar.Infow("Synthesized", "bytes", len(data), "format", format, "voice", res.Voice.Name, "lang", res.Language)

	if ext := "." + format; filepath.Ext(out) != ext {
		out = out[:len(out)-len(filepath.Ext(out))] + ext
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		sugar.Fatalw("Failed to write output file", "path", out, "error", err)
	}
	fmt.Println("Сохранено в", out)

	if play {
		f, err := os.Open(out)
		if err != nil {
			sugar.Fatalw("Failed to open saved audio", "error", err)
		}
		if err := player.New(sugar).Play(format, f); err != nil {
			sugar.Fatalw("Playback failed", "error", err)
		}
	}
}

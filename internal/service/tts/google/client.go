package google

import (
	"context"
	"errors"
	"time"

	gctts "cloud.google.com/go/texttospeech/apiv1"
	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"go.uber.org/zap"

	"github.com/Jdreioe/Wingmate-sub001/internal/config"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/tts"
)

// Client реализует синтез речи через Google Cloud Text-to-Speech.
// На вход уходит SSML; выбор голоса и языка — из разрешённых параметров запроса.
type Client struct {
	logger *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) *Client {
	return &Client{logger: logger}
}

// Synthesize выполняет запрос к Google TTS и возвращает аудио (MP3).
// cfg должен быть config.GoogleTTSConfig.
func (c *Client) Synthesize(ctx context.Context, req tts.Request, cfg any) ([]byte, string, error) {
	gc, ok := cfg.(config.GoogleTTSConfig)
	if !ok {
		return nil, "", errors.New("google tts: unexpected config type")
	}

	// Создаём клиента SDK (ключ — из ENV GOOGLE_APPLICATION_CREDENTIALS)
	ttsClient, err := gctts.NewClient(ctx)
	if err != nil {
		return nil, "", err
	}
	defer ttsClient.Close()

	input := &ttspb.SynthesisInput{InputSource: &ttspb.SynthesisInput_Ssml{Ssml: req.SSML}}

	voice := &ttspb.VoiceSelectionParams{
		LanguageCode: req.Language,
		Name:         req.Voice,
	}

	// Rate/pitch уже заложены в SSML <prosody>; глобальные настройки провайдера
	// (усиление, скорость поверх prosody) применяем из конфигурации.
	audio := &ttspb.AudioConfig{
		AudioEncoding: ttspb.AudioEncoding_MP3,
		SpeakingRate:  gc.SpeakingRate,
		VolumeGainDb:  gc.VolumeGainDb,
	}

	started := time.Now()
	resp, err := ttsClient.SynthesizeSpeech(ctx, &ttspb.SynthesizeSpeechRequest{
		Input: input, Voice: voice, AudioConfig: audio,
	})
	if err != nil {
		return nil, "", err
	}
	if c.logger != nil {
		c.logger.Infow("Google TTS synthesize completed", "took", time.Since(started).String())
	}

	return resp.GetAudioContent(), "mp3", nil
}

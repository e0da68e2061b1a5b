package openaitts

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/openai/openai-go/v3"

	"github.com/Jdreioe/Wingmate-sub001/internal/config"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/tts"
)

// Client реализует синтез речи через OpenAI (audio/speech).
// OpenAI не принимает SSML: уходит чистый текст, паузы внутри фразы теряются,
// скорость передаётся параметром speed.
type Client struct {
	api *openai.Client
}

func New(api *openai.Client) *Client {
	return &Client{api: api}
}

// Synthesize выполняет запрос к OpenAI TTS и возвращает аудио (MP3).
// cfg должен быть config.OpenAITTSConfig.
func (c *Client) Synthesize(ctx context.Context, req tts.Request, cfg any) ([]byte, string, error) {
	oc, ok := cfg.(config.OpenAITTSConfig)
	if !ok {
		return nil, "", errors.New("openai tts: unexpected config type")
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, "", errors.New("openai tts: пустой текст")
	}

	model := oc.Model
	if model == "" {
		model = "tts-1"
	}
	voiceName := oc.Voice
	if voiceName == "" {
		voiceName = "nova"
	}

	resp, err := c.api.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(model),
		Input:          req.Text,
		Voice:          openai.AudioSpeechNewParamsVoice(voiceName),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		Speed:          openai.Float(req.Rate),
	})
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, "mp3", nil
}

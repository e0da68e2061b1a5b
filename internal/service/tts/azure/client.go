package azure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Jdreioe/Wingmate-sub001/internal/config"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/tts"
)

// Client реализует синтез речи через Azure Speech REST API (SSML на входе,
// аудио-байты на выходе). Таймаут задаётся контекстом вызывающего.
type Client struct {
	http *http.Client
}

func New() *Client {
	return &Client{http: http.DefaultClient}
}

// NewWithHTTPClient создаёт клиента с пользовательским http.Client (для тестов).
func NewWithHTTPClient(h *http.Client) *Client {
	return &Client{http: h}
}

// Synthesize выполняет запрос к Azure Speech и возвращает аудио.
// cfg должен быть config.AzureTTSConfig.
func (c *Client) Synthesize(ctx context.Context, req tts.Request, cfg any) ([]byte, string, error) {
	ac, ok := cfg.(config.AzureTTSConfig)
	if !ok {
		return nil, "", errors.New("azure tts: unexpected config type")
	}
	if strings.TrimSpace(ac.Endpoint) == "" || strings.TrimSpace(ac.SubscriptionKey) == "" {
		return nil, "", errors.New("azure tts: endpoint или ключ подписки не заданы (AZURE_TTS_ENDPOINT / AZURE_TTS_SUBSCRIPTION_KEY)")
	}
	if strings.TrimSpace(req.SSML) == "" {
		return nil, "", errors.New("azure tts: пустой SSML")
	}

	outputFormat := ac.OutputFormat
	if outputFormat == "" {
		outputFormat = "audio-24khz-96kbitrate-mono-mp3"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, ac.Endpoint, strings.NewReader(req.SSML))
	if err != nil {
		return nil, "", err
	}
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", outputFormat)
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", ac.SubscriptionKey)
	httpReq.Header.Set("User-Agent", "wingmate-speech")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if len(b) == 0 {
			b = []byte(resp.Status)
		}
		return nil, "", fmt.Errorf("azure tts error: status=%d, body=%s", resp.StatusCode, bytes.TrimSpace(b))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, formatFromOutput(outputFormat), nil
}

// formatFromOutput выводит контейнер ("mp3"|"wav") из имени формата Azure.
func formatFromOutput(output string) string {
	if strings.Contains(output, "mp3") {
		return "mp3"
	}
	return "wav"
}

// Пакет piper — клиент локального нейросетевого синтезатора Piper за
// Wyoming-протоколом (TCP). Формат события протокола:
//
//	<json_length> <payload_length>\n
//	<json_bytes>\n
//	<payload_bytes>   (если payload_length > 0)
package piper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Jdreioe/Wingmate-sub001/internal/service/tts/local"
)

// Голоса по умолчанию для основных языковых тегов.
var defaultVoices = map[string]string{
	"en": "en_US-lessac-medium",
	"da": "da_DK-talesyntese-medium",
	"de": "de_DE-thorsten-medium",
	"fr": "fr_FR-siwis-medium",
	"es": "es_ES-mls_10246-low",
	"sv": "sv_SE-nst-medium",
	"nl": "nl_NL-mls-medium",
}

// Client реализует local.Synthesizer через Piper Wyoming-сервер.
type Client struct {
	endpoint string // host:port
	voice    string // явный голос; пусто — выбор по языку
	logger   *zap.SugaredLogger
}

func New(endpoint, voice string, logger *zap.SugaredLogger) *Client {
	endpoint = strings.TrimPrefix(endpoint, "tcp://")
	return &Client{endpoint: endpoint, voice: voice, logger: logger}
}

// Synthesize отправляет текст Piper-серверу и возвращает собранный WAV.
func (c *Client) Synthesize(ctx context.Context, text, language string) ([]byte, string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, "", fmt.Errorf("piper: пустой текст")
	}
	if c.endpoint == "" {
		return nil, "", fmt.Errorf("%w: piper endpoint не задан", local.ErrUnavailable)
	}

	voiceName := c.voice
	if voiceName == "" {
		voiceName = defaultVoices[primarySubtag(language)]
	}
	if voiceName == "" {
		voiceName = defaultVoices["en"]
	}

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", c.endpoint)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", local.ErrUnavailable, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	synth := event{
		Type: "synthesize",
		Data: map[string]any{
			"text":  text,
			"voice": map[string]any{"name": voiceName},
		},
	}
	if err := writeEvent(conn, synth, nil); err != nil {
		return nil, "", fmt.Errorf("piper: отправка synthesize: %w", err)
	}

	// Ответ: audio-start → audio-chunk* → audio-stop
	var (
		pcm        bytes.Buffer
		sampleRate = 22050
		channels   = 1
		width      = 2
	)
	r := bufio.NewReader(conn)
	for {
		evt, payload, err := readEvent(r)
		if err != nil {
			return nil, "", fmt.Errorf("piper: чтение события: %w", err)
		}
		switch evt.Type {
		case "audio-start":
			if v, ok := evt.Data["rate"].(float64); ok {
				sampleRate = int(v)
			}
			if v, ok := evt.Data["channels"].(float64); ok {
				channels = int(v)
			}
			if v, ok := evt.Data["width"].(float64); ok {
				width = int(v)
			}
		case "audio-chunk":
			pcm.Write(payload)
		case "audio-stop":
			if c.logger != nil {
				c.logger.Infow("Piper synthesize completed", "voice", voiceName, "pcm_bytes", pcm.Len())
			}
			return pcmToWAV(pcm.Bytes(), sampleRate, channels, width), "wav", nil
		case "error":
			msg := "unknown error"
			if v, ok := evt.Data["text"].(string); ok {
				msg = v
			}
			return nil, "", fmt.Errorf("piper error: %s", msg)
		}
	}
}

type event struct {
	Type          string         `json:"type"`
	Data          map[string]any `json:"data,omitempty"`
	PayloadLength int            `json:"payload_length,omitempty"`
}

func writeEvent(w io.Writer, evt event, payload []byte) error {
	evt.PayloadLength = 0 // длина идёт в строке заголовка
	js, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%d %d\n", len(js), len(payload)); err != nil {
		return err
	}
	if _, err := w.Write(js); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

func readEvent(r *bufio.Reader) (event, []byte, error) {
	var evt event
	header, err := r.ReadString('\n')
	if err != nil {
		return evt, nil, err
	}
	var jsonLen, payloadLen int
	if _, err := fmt.Sscanf(strings.TrimSpace(header), "%d %d", &jsonLen, &payloadLen); err != nil {
		return evt, nil, fmt.Errorf("bad header %q: %w", header, err)
	}
	js := make([]byte, jsonLen)
	if _, err := io.ReadFull(r, js); err != nil {
		return evt, nil, err
	}
	if err := json.Unmarshal(js, &evt); err != nil {
		return evt, nil, err
	}
	// завершающий \n после JSON
	if _, err := r.ReadByte(); err != nil && err != io.EOF {
		return evt, nil, err
	}
	var payload []byte
	if payloadLen > 0 {
		payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return evt, nil, err
		}
	}
	return evt, payload, nil
}

// pcmToWAV упаковывает сырой PCM в контейнер WAV (RIFF, PCM LE).
func pcmToWAV(pcm []byte, sampleRate, channels, width int) []byte {
	var buf bytes.Buffer
	dataLen := len(pcm)
	byteRate := sampleRate * channels * width

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels*width))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(width*8))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(pcm)
	return buf.Bytes()
}

// primarySubtag выделяет первичный подтег языка: "da-DK" → "da".
func primarySubtag(lang string) string {
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		return strings.ToLower(lang[:i])
	}
	return strings.ToLower(lang)
}

package espeak

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/Jdreioe/Wingmate-sub001/internal/service/tts/local"
)

// Client реализует local.Synthesizer через системный процессный синтезатор:
// espeak-ng (Linux/Windows) или say (macOS). WAV пишется в stdout, чтобы
// воспроизведение шло через общий контроллер, а не мимо него.
//
// Паузу/возобновление процессный синтез не поддерживает — на этом уровне
// pause() вырождается в stop() (см. контроллер воспроизведения).
type Client struct {
	binary string
	logger *zap.SugaredLogger
}

// New создаёт клиента. Пустой binary — espeak-ng (на macOS — say).
func New(binary string, logger *zap.SugaredLogger) *Client {
	if strings.TrimSpace(binary) == "" {
		if runtime.GOOS == "darwin" {
			binary = "say"
		} else {
			binary = "espeak-ng"
		}
	}
	return &Client{binary: binary, logger: logger}
}

// Synthesize запускает процесс и возвращает WAV из stdout.
func (c *Client) Synthesize(ctx context.Context, text, language string) ([]byte, string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, "", fmt.Errorf("espeak: пустой текст")
	}
	if _, err := exec.LookPath(c.binary); err != nil {
		return nil, "", fmt.Errorf("%w: %s не найден в PATH", local.ErrUnavailable, c.binary)
	}

	var args []string
	if c.binary == "say" {
		// say не умеет wav в stdout без --data-format; используем AIFF-совместимый вывод
		args = []string{"-o", "/dev/stdout", "--data-format=LEI16@22050", "--file-format=WAVE"}
		if language != "" {
			// say выбирает голос, а не язык; оставляем системный голос по умолчанию
			_ = language
		}
		args = append(args, text)
	} else {
		args = []string{"--stdout"}
		if language != "" {
			args = append(args, "-v", espeakVoice(language))
		}
		args = append(args, text)
	}

	cmd := exec.CommandContext(ctx, c.binary, args...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", fmt.Errorf("espeak: %w: %s", err, strings.TrimSpace(errBuf.String()))
	}
	if c.logger != nil {
		c.logger.Infow("Local synthesize completed", "binary", c.binary, "bytes", out.Len())
	}
	return out.Bytes(), "wav", nil
}

// espeakVoice переводит языковой тег в имя голоса espeak-ng: "da-DK" → "da".
func espeakVoice(lang string) string {
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		return strings.ToLower(lang[:i])
	}
	return strings.ToLower(lang)
}

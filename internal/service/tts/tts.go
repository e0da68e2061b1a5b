package tts

import "context"

// Request — один запрос облачного синтеза. SSML — собранная разметка (см. пакет
// ssml); Text — тот же контент без разметки для провайдеров без поддержки SSML.
type Request struct {
	Text     string
	SSML     string
	Language string
	Voice    string
	Pitch    float64
	Rate     float64
}

// Synthesizer — абстракция облачного TTS. Возвращает аудио-байты и их формат
// ("mp3"|"wav"); воспроизведение и кэширование — забота вызывающего.
// cfg — провайдер-специфичная конфигурация (например, config.AzureTTSConfig).
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request, cfg any) (data []byte, format string, err error)
}

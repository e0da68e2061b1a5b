package config

import (
	"flag"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	DebugMode bool `env:"DEBUG_MODE"` // Режим дебага

	// Общий переключатель облачного сервиса TTS и предпочтение оффлайна
	TTSService    string `env:"TTS_SERVICE"`        // azure|google|openai, по умолчанию azure
	PreferOffline bool   `env:"TTS_PREFER_OFFLINE"` // Сразу использовать локальный синтез, минуя кэш и облако

	// Язык интерфейса: участвует в разрешении эффективного языка голоса
	PrimaryLanguage string `env:"PRIMARY_LANGUAGE"`

	// Кэш синтезированного аудио и база журнала/индекса
	CacheDir     string `env:"TTS_CACHE_DIR"`  // Каталог файлов {hash}.{ext}
	DatabasePath string `env:"SPEECH_DB_PATH"` // SQLite: индекс кэша + журнал сказанного
	RecentMax    int    `env:"TTS_RECENT_MAX"` // Ёмкость буфера недавно сказанного (поиск дублей)

	// Таймаут облачного вызова; по истечении — как любая другая ошибка уровня 2
	CloudTimeoutSeconds int `env:"TTS_CLOUD_TIMEOUT_SECONDS"`

	// Громкость воспроизведения в dB (отрицательные — тише, 0 — без изменения)
	PlaybackVolumeDb float64 `env:"TTS_PLAYBACK_VOLUME_DB"`

	AzureTTS  AzureTTSConfig
	GoogleTTS GoogleTTSConfig
	OpenAITTS OpenAITTSConfig

	// Локальный (оффлайн) синтез — резервный уровень
	LocalTTS LocalTTSConfig
}

// AzureTTSConfig — облачный синтез через Azure Speech (REST, SSML).
// Пустой Endpoint или SubscriptionKey означает «облачный уровень недоступен» —
// это не ошибка, а сигнал маршрутизации мимо уровня 2.
type AzureTTSConfig struct {
	Endpoint        string `env:"AZURE_TTS_ENDPOINT"`         // Напр. https://westeurope.tts.speech.microsoft.com/cognitiveservices/v1
	SubscriptionKey string `env:"AZURE_TTS_SUBSCRIPTION_KEY"` // Ключ берём из .env/ENV
	OutputFormat    string `env:"AZURE_TTS_OUTPUT_FORMAT"`    // Формат аудио на выходе (заголовок X-Microsoft-OutputFormat)
}

// GoogleTTSConfig — облачный синтез через Google Cloud Text-to-Speech.
// Ключ сервисного аккаунта читается SDK из ENV GOOGLE_APPLICATION_CREDENTIALS.
type GoogleTTSConfig struct {
	CredentialsPath string  `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	SpeakingRate    float64 `env:"GOOGLE_TTS_SPEAKING_RATE"`
	VolumeGainDb    float64 `env:"GOOGLE_TTS_VOLUME_DB"`
}

// OpenAITTSConfig — облачный синтез через OpenAI (модели tts-1/tts-1-hd).
// SSML не поддерживается: провайдеру уходит чистый текст, паузы — best effort.
type OpenAITTSConfig struct {
	APIKey string `env:"OPENAI_API_KEY"` // Используется SDK напрямую
	Model  string `env:"OPENAI_TTS_MODEL"`
	Voice  string `env:"OPENAI_TTS_VOICE"`
}

// LocalTTSConfig — настройки резервного локального синтезатора.
type LocalTTSConfig struct {
	Backend string `env:"LOCAL_TTS_BACKEND"` // piper|espeak, по умолчанию espeak

	// Piper за Wyoming-протоколом (TCP)
	PiperEndpoint string `env:"PIPER_ENDPOINT"` // host:port, напр. localhost:10200
	PiperVoice    string `env:"PIPER_VOICE"`    // Имя модели голоса; пусто — по языку

	// Процессный синтез (espeak-ng / say)
	EspeakBinary string `env:"ESPEAK_BINARY"` // Путь к бинарю, по умолчанию espeak-ng
}

// Defaults возвращает конфигурацию с предустановленными значениями по умолчанию.
// Эти значения перекрываются .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	return &Config{
		DebugMode:           false,
		TTSService:          "azure",
		PreferOffline:       false,
		PrimaryLanguage:     "", // пусто — язык определяет профиль голоса / дефолт en-US
		CacheDir:            filepath.FromSlash("cache/tts"),
		DatabasePath:        filepath.FromSlash("cache/speech.db"),
		RecentMax:           20,
		CloudTimeoutSeconds: 15,
		PlaybackVolumeDb:    0,
		AzureTTS: AzureTTSConfig{
			Endpoint:        "",
			SubscriptionKey: "", // ключ берём из .env/ENV, если пусто — облачный уровень пропускается
			OutputFormat:    "audio-24khz-96kbitrate-mono-mp3",
		},
		GoogleTTS: GoogleTTSConfig{
			CredentialsPath: "service-account.json",
			SpeakingRate:    1.0,
			VolumeGainDb:    0.0,
		},
		OpenAITTS: OpenAITTSConfig{
			Model: "tts-1",
			Voice: "nova",
		},
		LocalTTS: LocalTTSConfig{
			Backend:       "espeak",
			PiperEndpoint: "localhost:10200",
			EspeakBinary:  "espeak-ng",
		},
	}
}

// NewConfig загружает конфигурацию приложения: дефолты, затем .env/окружение,
// затем флаги CLI. Библиотечные потребители обходятся Defaults() + env.Parse,
// чтобы не трогать глобальный flag.CommandLine.
func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := Defaults()
	_ = env.Parse(cfg)

	flag.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага")
	flag.StringVar(&cfg.TTSService, "tts-service", cfg.TTSService, "выбор облачного сервиса TTS: azure|google|openai")
	flag.BoolVar(&cfg.PreferOffline, "tts-prefer-offline", cfg.PreferOffline, "использовать локальный синтез сразу, минуя кэш и облако")
	flag.StringVar(&cfg.PrimaryLanguage, "primary-language", cfg.PrimaryLanguage, "язык интерфейса для разрешения голоса, напр. da-DK")
	flag.StringVar(&cfg.CacheDir, "tts-cache-dir", cfg.CacheDir, "каталог кэша синтезированного аудио")
	flag.StringVar(&cfg.DatabasePath, "speech-db-path", cfg.DatabasePath, "путь к SQLite-базе (индекс кэша + журнал)")
	flag.IntVar(&cfg.RecentMax, "tts-recent-max", cfg.RecentMax, "ёмкость буфера недавно сказанного")
	flag.IntVar(&cfg.CloudTimeoutSeconds, "tts-cloud-timeout-seconds", cfg.CloudTimeoutSeconds, "таймаут облачного вызова TTS в секундах")
	flag.Float64Var(&cfg.PlaybackVolumeDb, "tts-playback-volume-db", cfg.PlaybackVolumeDb, "громкость воспроизведения в dB")
	// Параметры Azure TTS
	flag.StringVar(&cfg.AzureTTS.Endpoint, "azure-tts-endpoint", cfg.AzureTTS.Endpoint, "endpoint Azure Speech (cognitiveservices/v1)")
	flag.StringVar(&cfg.AzureTTS.SubscriptionKey, "azure-tts-subscription-key", cfg.AzureTTS.SubscriptionKey, "ключ подписки Azure Speech (перекрывает ENV)")
	flag.StringVar(&cfg.AzureTTS.OutputFormat, "azure-tts-output-format", cfg.AzureTTS.OutputFormat, "формат аудио Azure (X-Microsoft-OutputFormat)")
	// Параметры Google TTS
	flag.StringVar(&cfg.GoogleTTS.CredentialsPath, "google-tts-credentials", cfg.GoogleTTS.CredentialsPath, "путь к service-account.json (также читается из ENV GOOGLE_APPLICATION_CREDENTIALS)")
	flag.Float64Var(&cfg.GoogleTTS.SpeakingRate, "google-tts-speaking-rate", cfg.GoogleTTS.SpeakingRate, "скорость речи (1.0 по умолчанию)")
	flag.Float64Var(&cfg.GoogleTTS.VolumeGainDb, "google-tts-volume-db", cfg.GoogleTTS.VolumeGainDb, "усиление громкости (дБ)")
	// Параметры OpenAI TTS
	flag.StringVar(&cfg.OpenAITTS.Model, "openai-tts-model", cfg.OpenAITTS.Model, "модель OpenAI TTS (tts-1|tts-1-hd)")
	flag.StringVar(&cfg.OpenAITTS.Voice, "openai-tts-voice", cfg.OpenAITTS.Voice, "голос OpenAI TTS (alloy, nova, ...)")
	// Локальный синтез
	flag.StringVar(&cfg.LocalTTS.Backend, "local-tts-backend", cfg.LocalTTS.Backend, "резервный локальный синтезатор: piper|espeak")
	flag.StringVar(&cfg.LocalTTS.PiperEndpoint, "piper-endpoint", cfg.LocalTTS.PiperEndpoint, "адрес Piper Wyoming-сервера (host:port)")
	flag.StringVar(&cfg.LocalTTS.PiperVoice, "piper-voice", cfg.LocalTTS.PiperVoice, "имя модели голоса Piper (пусто — выбор по языку)")
	flag.StringVar(&cfg.LocalTTS.EspeakBinary, "espeak-binary", cfg.LocalTTS.EspeakBinary, "путь к бинарю espeak-ng")
	flag.Parse()

	return cfg
}

// CloudConfigured сообщает, настроен ли выбранный облачный сервис.
// Для Azure это непустые endpoint и ключ (см. AzureTTSConfig).
func (c *Config) CloudConfigured() bool {
	switch strings.ToLower(c.TTSService) {
	case "azure":
		return strings.TrimSpace(c.AzureTTS.Endpoint) != "" && strings.TrimSpace(c.AzureTTS.SubscriptionKey) != ""
	case "google":
		return strings.TrimSpace(c.GoogleTTS.CredentialsPath) != ""
	case "openai":
		return true // SDK сам читает OPENAI_API_KEY; пустой ключ даст ошибку уровня 2 и откат
	default:
		return false
	}
}

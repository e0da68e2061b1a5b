// Package storage — встраиваемое хранилище движка речи: контент-адресуемый индекс
// синтезированного аудио и журнал произнесённых фраз (SQLite через sqlx).
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	hash         TEXT PRIMARY KEY,
	storage_path TEXT NOT NULL,
	voice_params TEXT NOT NULL,
	created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS said_texts (
	id               TEXT PRIMARY KEY,
	date             INTEGER NOT NULL,
	said_text        TEXT NOT NULL,
	voice_name       TEXT NOT NULL,
	pitch            REAL NOT NULL,
	speed            REAL NOT NULL,
	audio_file_path  TEXT NOT NULL,
	created_at       INTEGER NOT NULL,
	position         INTEGER NOT NULL,
	primary_language TEXT NOT NULL
);
`

// CacheEntry — запись контент-адресуемого кэша. Hash — чистая функция от
// (нормализованный текст, голос, язык, pitch, rate); коллизия трактуется как
// «то же аудио» — осознанный компромисс, см. CacheKey.
type CacheEntry struct {
	Hash        string `db:"hash"`
	StoragePath string `db:"storage_path"`
	VoiceParams string `db:"voice_params"`
	CreatedAt   int64  `db:"created_at"`
}

// SaidText — запись журнала «что было сказано». Схема стабильна наружу:
// её читают история и экспорт в остальной части приложения.
type SaidText struct {
	ID              string  `db:"id"`
	Date            int64   `db:"date"`
	Text            string  `db:"said_text"`
	VoiceName       string  `db:"voice_name"`
	Pitch           float64 `db:"pitch"`
	Speed           float64 `db:"speed"`
	AudioFilePath   string  `db:"audio_file_path"`
	CreatedAt       int64   `db:"created_at"`
	Position        int     `db:"position"`
	PrimaryLanguage string  `db:"primary_language"`
}

// Store — обёртка над SQLite-базой движка. Чтения безопасны для конкурентного
// использования; записи атомарны на уровне запроса.
type Store struct {
	db     *sqlx.DB
	logger *zap.SugaredLogger
}

// Open открывает (и при необходимости инициализирует) базу по указанному пути.
// ":memory:" допустим для тестов.
func Open(path string, logger *zap.SugaredLogger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: открытие базы: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: инициализация схемы: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// LookupCache возвращает путь к ранее синтезированному аудио по хэшу.
// Отсутствие записи — не ошибка.
func (s *Store) LookupCache(ctx context.Context, hash string) (string, bool, error) {
	var path string
	err := s.db.GetContext(ctx, &path, `SELECT storage_path FROM cache_entries WHERE hash = ?`, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: поиск в кэше: %w", err)
	}
	return path, true, nil
}

// StoreCache сохраняет запись кэша. Идемпотентно: повторная запись того же хэша
// перезаписывает существующую (последняя побеждает), без дублей.
func (s *Store) StoreCache(ctx context.Context, e CacheEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries (hash, storage_path, voice_params, created_at)
		 VALUES (?, ?, ?, ?)`,
		e.Hash, e.StoragePath, e.VoiceParams, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("storage: запись в кэш: %w", err)
	}
	return nil
}

// AppendSaidText добавляет запись журнала. Журнал только пополняется.
func (s *Store) AppendSaidText(ctx context.Context, rec SaidText) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO said_texts (id, date, said_text, voice_name, pitch, speed,
		                         audio_file_path, created_at, position, primary_language)
		 VALUES (:id, :date, :said_text, :voice_name, :pitch, :speed,
		         :audio_file_path, :created_at, :position, :primary_language)`,
		rec)
	if err != nil {
		return fmt.Errorf("storage: запись журнала: %w", err)
	}
	return nil
}

// RecentSaidTexts возвращает последние записи журнала, новые первыми.
func (s *Store) RecentSaidTexts(ctx context.Context, limit int) ([]SaidText, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []SaidText
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM said_texts ORDER BY created_at DESC, position DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: чтение журнала: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error { return s.db.Close() }

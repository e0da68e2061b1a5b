package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCacheKey_Deterministic(t *testing.T) {
	a := CacheKey("hello", "en-US-JennyNeural", "en-US", 1.0, 1.0)
	b := CacheKey("hello", "en-US-JennyNeural", "en-US", 1.0, 1.0)
	assert.Equal(t, a, b)

	// Любое изменение входа меняет ключ
	assert.NotEqual(t, a, CacheKey("hello!", "en-US-JennyNeural", "en-US", 1.0, 1.0))
	assert.NotEqual(t, a, CacheKey("hello", "en-US-JennyNeural", "da-DK", 1.0, 1.0))
	assert.NotEqual(t, a, CacheKey("hello", "en-US-JennyNeural", "en-US", 1.1, 1.0))
}

func TestStoreCache_LastWriteWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	h := CacheKey("text", "voice", "en-US", 1.0, 1.0)
	require.NoError(t, s.StoreCache(ctx, CacheEntry{Hash: h, StoragePath: "p1", VoiceParams: "v", CreatedAt: 1}))
	require.NoError(t, s.StoreCache(ctx, CacheEntry{Hash: h, StoragePath: "p2", VoiceParams: "v", CreatedAt: 2}))

	path, ok, err := s.LookupCache(ctx, h)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "p2", path)

	// Дублей нет
	var n int
	require.NoError(t, s.db.Get(&n, `SELECT COUNT(*) FROM cache_entries WHERE hash = ?`, h))
	assert.Equal(t, 1, n)
}

func TestLookupCache_MissIsNotAnError(t *testing.T) {
	s := openTestStore(t)
	path, ok, err := s.LookupCache(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, path)
}

func TestSaidTexts_AppendAndReadBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UnixMilli()

	for i, text := range []string{"first", "second", "third"} {
		require.NoError(t, s.AppendSaidText(ctx, SaidText{
			ID:              string(rune('a' + i)),
			Date:            now,
			Text:            text,
			VoiceName:       "en-US-JennyNeural",
			Pitch:           1.0,
			Speed:           1.0,
			AudioFilePath:   "",
			CreatedAt:       now + int64(i),
			Position:        i,
			PrimaryLanguage: "en-US",
		}))
	}

	recs, err := s.RecentSaidTexts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "third", recs[0].Text)
	assert.Equal(t, "second", recs[1].Text)
}

func TestWriteAudioFile_AtomicPublish(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteAudioFile(dir, "cafebabe", "mp3", []byte("audio-bytes"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cafebabe.mp3"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), data)

	// Повторная запись перезаписывает без остатков временных файлов
	_, err = WriteAudioFile(dir, "cafebabe", "mp3", []byte("other"))
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

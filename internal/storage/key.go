package storage

import (
	"fmt"
	"hash/fnv"
)

// CacheKey — детерминированный ключ кэша от нормализованного текста и параметров
// голоса. Не зависит от порядка вызовов и идентичности процесса.
//
// Хэш некриптографический (FNV-1a, 64 бита): коллизия разных входов осознанно
// трактуется как «то же аудио». Замена на более стойкий хэш сломала бы
// совместимость ключей существующего кэша, поэтому здесь не делается.
func CacheKey(normalizedText, voiceName, language string, pitch, rate float64) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%.4f|%.4f", normalizedText, voiceName, language, pitch, rate)
	return fmt.Sprintf("%016x", h.Sum64())
}

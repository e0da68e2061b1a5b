package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteAudioFile сохраняет аудио-байты в каталоге кэша под именем {hash}.{ext}
// и возвращает итоговый путь. Публикация атомарна: запись во временный файл,
// затем os.Rename — конкурентный читатель видит либо старый файл, либо новый,
// но не усечённый.
func WriteAudioFile(dir, hash, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: каталог кэша: %w", err)
	}

	tmp, err := os.CreateTemp(dir, hash+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("storage: временный файл: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("storage: запись аудио: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("storage: закрытие временного файла: %w", err)
	}

	final := filepath.Join(dir, hash+"."+ext)
	if err := os.Rename(tmpName, final); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("storage: публикация аудио: %w", err)
	}
	return final, nil
}

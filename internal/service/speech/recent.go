package speech

import (
	"strings"
	"sync"

	"github.com/Jdreioe/Wingmate-sub001/internal/service/segment"
)

// Recent — потокобезопасный буфер фиксированной ёмкости недавно сказанных
// фраз. Используется для подсказок повтора и поиска дублей перед синтезом.
type Recent struct {
	cap     int
	phrases []string
	mu      sync.Mutex
}

func NewRecent(capacity int) *Recent {
	if capacity <= 0 {
		capacity = 20
	}
	return &Recent{cap: capacity, phrases: make([]string, 0, capacity)}
}

// Add добавляет фразу, при переполнении удаляет самую старую. Теги паузы
// отбрасываются: буфер хранит то, что реально прозвучало.
func (r *Recent) Add(text string) {
	phrase := strings.TrimSpace(segment.StripPauseTags(text))
	if phrase == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.phrases {
		if strings.EqualFold(p, phrase) {
			// уже есть — поднять наверх как самую свежую
			copy(r.phrases[i:], r.phrases[i+1:])
			r.phrases[len(r.phrases)-1] = phrase
			return
		}
	}
	if len(r.phrases) == r.cap {
		copy(r.phrases, r.phrases[1:])
		r.phrases = r.phrases[:r.cap-1]
	}
	r.phrases = append(r.phrases, phrase)
}

// Contains сообщает, есть ли фраза в буфере (без учёта регистра и тегов паузы).
func (r *Recent) Contains(text string) bool {
	phrase := strings.TrimSpace(segment.StripPauseTags(text))
	if phrase == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.phrases {
		if strings.EqualFold(p, phrase) {
			return true
		}
	}
	return false
}

// Items возвращает срез фраз от старой к новой.
func (r *Recent) Items() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.phrases))
	copy(out, r.phrases)
	return out
}

func (r *Recent) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.phrases)
}

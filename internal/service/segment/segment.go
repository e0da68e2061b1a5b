package segment

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Пауза по умолчанию для тега без длительности (или с нечитаемой длительностью).
const DefaultPauseMs = 500

// SpeechSegment — непрерывный фрагмент текста для озвучивания.
// PauseMs — пауза ПОСЛЕ фрагмента в миллисекундах. Language — необязательный
// языковой тег (напр. "fr-FR"), перекрывающий язык голоса только для этого фрагмента.
// Порядок сегментов значим: произносятся последовательно.
type SpeechSegment struct {
	Text     string
	PauseMs  int
	Language string
}

// Теги паузы: <pause duration="1s"/>, <break time="500ms"/> (регистронезависимо,
// атрибут необязателен) и краткая форма <2s>, <500ms>, <500>.
// Грамматика длительности: число с необязательным суффиксом ms|s, без суффикса — миллисекунды.
var pauseTagRe = regexp.MustCompile(`(?i)<\s*(?:pause|break)(?:\s+(?:duration|time)\s*=\s*"([^"]*)")?\s*/\s*>|<\s*(\d+(?:[.,]\d+)?)\s*(ms|s)?\s*/?\s*>`)

// Языковые вставки: <lang xml:lang="fr-FR">...</lang> (допускаем также атрибут tag=).
var langSpanRe = regexp.MustCompile(`(?is)<\s*lang\s+(?:xml:lang|tag)\s*=\s*"([^"]+)"\s*>(.*?)<\s*/\s*lang\s*>`)

var spaceRe = regexp.MustCompile(`\s+`)

// MergeLines склеивает соседние строки, не заканчивающиеся завершающей пунктуацией
// (. ! ? : ;) — против произвольных переносов из вставленного текста (например, PDF).
// Пустые строки сохраняются как явные границы абзацев и склейку не пропускают.
func MergeLines(text string) string {
	var paras []string
	cur := ""
	flush := func() {
		if cur != "" {
			paras = append(paras, cur)
			cur = ""
		}
	}
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			flush()
			continue
		}
		switch {
		case cur == "":
			cur = line
		case endsSentence(cur):
			cur += "\n" + line
		default:
			cur += " " + line
		}
	}
	flush()
	return strings.Join(paras, "\n\n")
}

// Segment разбирает входной текст в упорядоченную последовательность сегментов.
// Сначала склейка строк (MergeLines), затем проход по тегам паузы: текст перед тегом
// становится сегментом с длительностью тега; тег без предшествующего текста добавляет
// свою длительность к предыдущему сегменту; ведущая пауза (сегментов ещё нет)
// переносится в паузу первого созданного сегмента. Хвост после последнего тега —
// сегмент с нулевой паузой.
//
// Незнакомые или сломанные теги намеренно остаются в тексте как есть: молчаливое
// выедание пользовательского контента хуже, чем лишние угловые скобки в озвучке.
func Segment(text string) []SpeechSegment {
	merged := strings.TrimSpace(MergeLines(text))
	if merged == "" {
		return nil
	}

	locs := pauseTagRe.FindAllStringSubmatchIndex(merged, -1)
	if len(locs) == 0 {
		return splitLangSpans(SpeechSegment{Text: merged})
	}

	var segs []SpeechSegment
	leadMs := 0 // накопленная пауза до появления первого сегмента
	prev := 0
	appendChunk := func(chunk string, pauseMs int) {
		parts := splitLangSpans(SpeechSegment{Text: chunk, PauseMs: pauseMs + leadMs})
		leadMs = 0
		segs = append(segs, parts...)
	}
	for _, m := range locs {
		chunk := strings.TrimSpace(merged[prev:m[0]])
		dur := tagDuration(merged, m)
		prev = m[1]
		if chunk == "" {
			if len(segs) > 0 {
				segs[len(segs)-1].PauseMs += dur
			} else {
				leadMs += dur
			}
			continue
		}
		appendChunk(chunk, dur)
	}
	if tail := strings.TrimSpace(merged[prev:]); tail != "" {
		appendChunk(tail, 0)
	}
	return segs
}

// StripPauseTags удаляет все распознаваемые теги паузы и схлопывает образовавшиеся
// пробелы. Для потребителей, которым нужен «чистый» текст (например, поиск дублей)
// без полной сегментации. Языковые вставки разворачиваются до их содержимого.
func StripPauseTags(text string) string {
	out := pauseTagRe.ReplaceAllString(text, " ")
	out = langSpanRe.ReplaceAllString(out, " $2 ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(out, " "))
}

// splitLangSpans выделяет языковые вставки сегмента в отдельные сегменты.
// Пауза исходного сегмента остаётся на последнем получившемся куске.
func splitLangSpans(seg SpeechSegment) []SpeechSegment {
	locs := langSpanRe.FindAllStringSubmatchIndex(seg.Text, -1)
	if len(locs) == 0 {
		return []SpeechSegment{seg}
	}
	var out []SpeechSegment
	prev := 0
	for _, m := range locs {
		if before := strings.TrimSpace(seg.Text[prev:m[0]]); before != "" {
			out = append(out, SpeechSegment{Text: before})
		}
		lang := seg.Text[m[2]:m[3]]
		inner := strings.TrimSpace(seg.Text[m[4]:m[5]])
		if inner != "" {
			out = append(out, SpeechSegment{Text: inner, Language: lang})
		}
		prev = m[1]
	}
	if tail := strings.TrimSpace(seg.Text[prev:]); tail != "" {
		out = append(out, SpeechSegment{Text: tail})
	}
	if len(out) == 0 {
		return nil
	}
	out[len(out)-1].PauseMs = seg.PauseMs
	return out
}

// tagDuration извлекает длительность паузы из совпадения pauseTagRe.
func tagDuration(s string, m []int) int {
	// Краткая форма <2s>/<500ms>/<500>: группы 2 (число) и 3 (единица)
	if m[4] >= 0 {
		val := s[m[4]:m[5]]
		if m[6] >= 0 {
			val += s[m[6]:m[7]]
		}
		return parsePauseDuration(val)
	}
	// Полная форма с атрибутом duration=/time= — группа 1
	if m[2] >= 0 {
		return parsePauseDuration(s[m[2]:m[3]])
	}
	return DefaultPauseMs
}

// parsePauseDuration разбирает строку длительности: "750", "750ms", "1.5s".
// Без единицы — миллисекунды; пустая или нечитаемая строка — DefaultPauseMs.
func parsePauseDuration(v string) int {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.ReplaceAll(v, ",", ".")
	if v == "" {
		return DefaultPauseMs
	}
	mult := 1.0
	switch {
	case strings.HasSuffix(v, "ms"):
		v = strings.TrimSpace(strings.TrimSuffix(v, "ms"))
	case strings.HasSuffix(v, "s"):
		v = strings.TrimSpace(strings.TrimSuffix(v, "s"))
		mult = 1000.0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return DefaultPauseMs
	}
	return int(math.Round(f * mult))
}

// endsSentence сообщает, заканчивается ли строка завершающей пунктуацией.
func endsSentence(s string) bool {
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case '.', '!', '?', ':', ';':
		return true
	}
	return false
}

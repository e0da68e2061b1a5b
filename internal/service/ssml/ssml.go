// Package ssml собирает SSML-разметку для облачного синтеза из последовательности
// сегментов и разрешённых параметров голоса.
//
// Схема выходного документа (диалект Azure Speech, но без провайдер-специфичных
// расширений — композер можно подменить для другого провайдера):
//
//	<speak version="1.0" xmlns="..." xml:lang="{effective language}">
//	  <voice name="{voice}">
//	    <prosody pitch="{±N%}" rate="{±N%}">
//	      text<break time="500ms"/>
//	      <lang xml:lang="fr-FR">texte</lang>
//	    </prosody>
//	  </voice>
//	</speak>
//
// Пауза сегмента рендерится явным <break/> после его текста и опускается при нуле.
// Pitch/rate — проценты отклонения от базовой 1.0 (1.2 → "+20%").
package ssml

import (
	"fmt"
	"strings"

	"github.com/Jdreioe/Wingmate-sub001/internal/service/segment"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/voice"
)

const speakNS = "http://www.w3.org/2001/10/synthesis"

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Compose рендерит сегменты и параметры голоса в SSML-документ.
func Compose(segs []segment.SpeechSegment, v voice.Resolved) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<speak version="1.0" xmlns="%s" xml:lang="%s">`, speakNS, xmlEscaper.Replace(v.Language))
	fmt.Fprintf(&b, `<voice name="%s">`, xmlEscaper.Replace(v.Voice.Name))
	fmt.Fprintf(&b, `<prosody pitch="%s" rate="%s">`, percent(v.Pitch), percent(v.Rate))

	for _, s := range segs {
		text := xmlEscaper.Replace(s.Text)
		if s.Language != "" && s.Language != v.Language {
			fmt.Fprintf(&b, `<lang xml:lang="%s">%s</lang>`, xmlEscaper.Replace(s.Language), text)
		} else {
			b.WriteString(text)
		}
		if s.PauseMs > 0 {
			fmt.Fprintf(&b, `<break time="%s"/>`, FormatDuration(s.PauseMs))
		}
	}

	b.WriteString(`</prosody></voice></speak>`)
	return b.String()
}

// FormatDuration переводит миллисекунды в строку длительности той же грамматики,
// что принимают теги паузы: целые секунды — "2s", иначе — "750ms".
func FormatDuration(ms int) string {
	if ms >= 1000 && ms%1000 == 0 {
		return fmt.Sprintf("%ds", ms/1000)
	}
	return fmt.Sprintf("%dms", ms)
}

// percent форматирует коэффициент (базовая 1.0) как подписанный процент: 1.2 → "+20%".
func percent(v float64) string {
	return fmt.Sprintf("%+.0f%%", (v-1.0)*100)
}

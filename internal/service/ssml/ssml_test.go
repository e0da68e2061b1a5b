package ssml

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Jdreioe/Wingmate-sub001/internal/service/segment"
	"github.com/Jdreioe/Wingmate-sub001/internal/service/voice"
)

func resolved(lang string) voice.Resolved {
	return voice.Resolved{
		Voice:    voice.Profile{Name: "en-US-JennyNeural"},
		Language: lang,
		Pitch:    1.0,
		Rate:     1.0,
	}
}

func TestCompose_RootCarriesLanguageAndVoice(t *testing.T) {
	out := Compose([]segment.SpeechSegment{{Text: "Hi"}}, resolved("da-DK"))
	assert.Contains(t, out, `xml:lang="da-DK"`)
	assert.Contains(t, out, `<voice name="en-US-JennyNeural">`)
	assert.Contains(t, out, `<prosody pitch="+0%" rate="+0%">`)
}

func TestCompose_BreakBetweenSegments(t *testing.T) {
	segs := []segment.SpeechSegment{
		{Text: "Hello.", PauseMs: 2000},
		{Text: "World"},
	}
	out := Compose(segs, resolved("en-US"))
	assert.Contains(t, out, `Hello.<break time="2s"/>World`)
	// Нулевая пауза не рендерится
	assert.NotContains(t, out, `time="0`)
}

func TestCompose_LanguageOverrideWrapsSegment(t *testing.T) {
	segs := []segment.SpeechSegment{
		{Text: "Goddag."},
		{Text: "Bonjour.", Language: "fr-FR"},
	}
	out := Compose(segs, resolved("da-DK"))
	assert.Contains(t, out, `<lang xml:lang="fr-FR">Bonjour.</lang>`)
	assert.NotContains(t, out, `<lang xml:lang="da-DK">`)
}

func TestCompose_ProsodyPercentages(t *testing.T) {
	v := resolved("en-US")
	v.Pitch = 1.2
	v.Rate = 0.85
	out := Compose([]segment.SpeechSegment{{Text: "x"}}, v)
	assert.Contains(t, out, `pitch="+20%"`)
	assert.Contains(t, out, `rate="-15%"`)
}

func TestCompose_EscapesText(t *testing.T) {
	out := Compose([]segment.SpeechSegment{{Text: `salt & <pepper>`}}, resolved("en-US"))
	assert.Contains(t, out, "salt &amp; &lt;pepper&gt;")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "750ms", FormatDuration(750))
	assert.Equal(t, "2s", FormatDuration(2000))
	assert.Equal(t, "2500ms", FormatDuration(2500))
}

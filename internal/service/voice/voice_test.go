package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestResolve_NilVoiceUsesDefaults(t *testing.T) {
	got := Resolve(nil, nil, nil, "")
	assert.Equal(t, DefaultVoiceName, got.Voice.Name)
	assert.Equal(t, DefaultLanguage, got.Language)
	assert.Equal(t, 1.0, got.Pitch)
	assert.Equal(t, 1.0, got.Rate)
}

func TestResolve_UILanguageBeatsVoicePrimary(t *testing.T) {
	// Дефолтный голос без SelectedLanguage — выигрывает язык из настроек UI
	got := Resolve(nil, nil, nil, "da-DK")
	assert.Equal(t, "da-DK", got.Language)
}

func TestResolve_SelectedLanguageWins(t *testing.T) {
	v := &Profile{Name: "x", SelectedLanguage: "fr-FR", PrimaryLanguage: "en-US"}
	got := Resolve(v, nil, nil, "da-DK")
	assert.Equal(t, "fr-FR", got.Language)
}

func TestResolve_FallsBackToVoicePrimary(t *testing.T) {
	v := &Profile{Name: "x", PrimaryLanguage: "sv-SE"}
	got := Resolve(v, nil, nil, "")
	assert.Equal(t, "sv-SE", got.Language)
}

func TestResolve_ExplicitPitchRateOverrideVoice(t *testing.T) {
	v := &Profile{Name: "x", Pitch: f(0.8), Rate: f(1.2)}

	got := Resolve(v, nil, nil, "")
	assert.Equal(t, 0.8, got.Pitch)
	assert.Equal(t, 1.2, got.Rate)

	got = Resolve(v, f(1.1), f(0.9), "")
	assert.Equal(t, 1.1, got.Pitch)
	assert.Equal(t, 0.9, got.Rate)
}

package voice

import "strings"

// Голос по умолчанию, если явный профиль не передан.
const (
	DefaultVoiceName = "en-US-JennyNeural"
	DefaultLanguage  = "en-US"
)

// Profile — озвучиваемая голосовая идентичность провайдера.
// SelectedLanguage перекрывает PrimaryLanguage, если непустой.
type Profile struct {
	ID                 string
	Name               string
	DisplayName        string
	PrimaryLanguage    string
	SelectedLanguage   string
	SupportedLanguages []string
	Pitch              *float64
	Rate               *float64
}

// Resolved — эффективные параметры голоса для одного запроса синтеза.
// Производная величина: никогда не сохраняется, вычисляется заново на каждый вызов.
type Resolved struct {
	Voice    Profile
	Language string
	Pitch    float64
	Rate     float64
}

// Resolve вычисляет эффективные параметры голоса. Чистая функция без скрытого
// состояния — тестируется изолированно.
//
// Приоритет эффективного языка (первый непустой): SelectedLanguage голоса,
// uiPrimaryLanguage, PrimaryLanguage голоса, захардкоженный "en-US".
// Pitch/rate: явный аргумент перекрывает значение из профиля; по умолчанию 1.0.
// Если explicit == nil, подставляется профиль по умолчанию (en-US-JennyNeural).
func Resolve(explicit *Profile, pitch, rate *float64, uiPrimaryLanguage string) Resolved {
	v := Profile{Name: DefaultVoiceName, PrimaryLanguage: DefaultLanguage}
	if explicit != nil {
		v = *explicit
	}

	lang := firstNonBlank(v.SelectedLanguage, uiPrimaryLanguage, v.PrimaryLanguage, DefaultLanguage)

	p := 1.0
	if v.Pitch != nil {
		p = *v.Pitch
	}
	if pitch != nil {
		p = *pitch
	}

	r := 1.0
	if v.Rate != nil {
		r = *v.Rate
	}
	if rate != nil {
		r = *rate
	}

	return Resolved{Voice: v, Language: lang, Pitch: p, Rate: r}
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

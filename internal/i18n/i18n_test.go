package i18n

import (
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		lang Language
		key  string
		want string
	}{
		{name: "default language", lang: Spanish, key: "home.signin", want: "Iniciar sesión"},
		{name: "english", lang: English, key: "home.signin", want: "Sign in"},
		{name: "falls back to default language", lang: English, key: "app.title", want: "Coach 21K"},
		{name: "unsupported language", lang: Language("fi"), key: "home.register", want: "Registrarse"},
		{name: "unknown key", lang: English, key: "no.such.key", want: "no.such.key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Translate(tt.lang, tt.key); got != tt.want {
				t.Errorf("Translate(%q, %q) = %q, want %q", tt.lang, tt.key, got, tt.want)
			}
		})
	}
}

var verb = regexp.MustCompile(`%[a-z]`)

// Translations are formatted with the same arguments in every language.
func TestTranslations_consistent(t *testing.T) {
	for _, lang := range SupportedLanguages() {
		for key, value := range translations[lang] {
			fallback, ok := translations[DefaultLanguage][key]
			if !ok {
				t.Errorf("%s: key %q missing from %s", lang, key, DefaultLanguage)
				continue
			}
			if diff := cmp.Diff(verb.FindAllString(fallback, -1), verb.FindAllString(value, -1)); diff != "" {
				t.Errorf("%s: verbs of %q differ (-%s +%s):\n%s", lang, key, DefaultLanguage, lang, diff)
			}
		}
	}
}

func TestIsSupported(t *testing.T) {
	if !IsSupported(Spanish) || !IsSupported(English) {
		t.Error("expected es and en to be supported")
	}
	if IsSupported(Language("fi")) {
		t.Error("expected fi to be unsupported")
	}
}

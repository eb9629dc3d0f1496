package listing

import "strings"

// Language is an output language code for generated listings.
type Language string

const (
	French     Language = "fr"
	English    Language = "en"
	German     Language = "de"
	Spanish    Language = "es"
	Italian    Language = "it"
	Dutch      Language = "nl"
	Polish     Language = "pl"
	Portuguese Language = "pt"

	DefaultLanguage = French
)

var languageNames = map[Language]string{
	French:     "Français",
	English:    "English",
	German:     "Deutsch",
	Spanish:    "Español",
	Italian:    "Italiano",
	Dutch:      "Nederlands",
	Polish:     "Polski",
	Portuguese: "Português",
}

// SupportedLanguages returns all language codes in a stable order.
func SupportedLanguages() []Language {
	return []Language{French, English, German, Spanish, Italian, Dutch, Polish, Portuguese}
}

// SupportedLanguageCodes returns the codes as plain strings.
func SupportedLanguageCodes() []string {
	langs := SupportedLanguages()
	codes := make([]string, len(langs))
	for i, l := range langs {
		codes[i] = string(l)
	}
	return codes
}

// ParseLanguage returns the language for a code. Empty input yields the
// default language.
func ParseLanguage(code string) (Language, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return DefaultLanguage, true
	}
	l := Language(code)
	_, ok := languageNames[l]
	return l, ok
}

// DisplayName returns the language name used in prompts.
func (l Language) DisplayName() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return languageNames[DefaultLanguage]
}

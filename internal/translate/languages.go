package translate

import (
	"sort"
	"strings"
)

// English is the source language of all homework and tutor text.
const English = "english"

// languageNames maps the language keys clients send to the names used in
// prompts.
var languageNames = map[string]string{
	"spanish":    "Spanish (Español)",
	"creole":     "Haitian Creole (Kreyòl)",
	"portuguese": "Portuguese (Português)",
	"vietnamese": "Vietnamese (Tiếng Việt)",
	"mandarin":   "Mandarin Chinese (中文)",
	"arabic":     "Arabic (العربية)",
	"tagalog":    "Tagalog",
	"french":     "French (Français)",
	"korean":     "Korean (한국어)",
	"russian":    "Russian (Русский)",
	"english":    "English",
}

// DisplayName returns the prompt name for a language key. Unknown keys are
// returned unchanged.
func DisplayName(language string) string {
	if name, ok := languageNames[strings.ToLower(strings.TrimSpace(language))]; ok {
		return name
	}
	return language
}

// IsEnglish reports whether language names English.
func IsEnglish(language string) bool {
	return strings.EqualFold(strings.TrimSpace(language), English)
}

// Language is a supported target language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SupportedLanguages lists the languages with curated display names,
// sorted by code.
func SupportedLanguages() []Language {
	out := make([]Language, 0, len(languageNames))
	for code, name := range languageNames {
		out = append(out, Language{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

package services

import (
	"golang.org/x/text/language"
)

// Languages the prompt and keyword tables are maintained in. Anything the
// matcher cannot confidently resolve falls back to English.
var supportedLanguages = []language.Tag{
	language.English, // en: default
	language.Polish,  // pl
	language.German,  // de
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// ResolveLanguage normalizes a caller-supplied language code to one of the
// supported table keys ("en", "pl", "de"). Unknown or empty codes resolve
// to "en".
func ResolveLanguage(code string) string {
	if code == "" {
		return "en"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "en"
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf == language.No {
		return "en"
	}
	switch supportedLanguages[idx] {
	case language.Polish:
		return "pl"
	case language.German:
		return "de"
	default:
		return "en"
	}
}

// promptFor picks the prompt for a language table, defaulting to English.
func promptFor(table map[string]string, lang string) string {
	if p, ok := table[ResolveLanguage(lang)]; ok {
		return p
	}
	return table["en"]
}

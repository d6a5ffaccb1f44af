package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLanguage(t *testing.T) {
	tests := map[string]string{
		"":      "en",
		"en":    "en",
		"en-US": "en",
		"pl":    "pl",
		"pl-PL": "pl",
		"de":    "de",
		"de-AT": "de",
		"fr":    "en",
		"zz":    "en",
		"???":   "en",
	}
	for code, expected := range tests {
		assert.Equal(t, expected, ResolveLanguage(code), "code=%q", code)
	}
}

func TestPromptForFallsBackToEnglish(t *testing.T) {
	table := map[string]string{"en": "english", "de": "german"}

	assert.Equal(t, "german", promptFor(table, "de"))
	assert.Equal(t, "english", promptFor(table, "pl"))
	assert.Equal(t, "english", promptFor(table, "nope"))
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsSuccessKeyword(t *testing.T) {
	sc := NewSubmissionChecker()

	positives := []string{
		"https://jobs.example.com/apply/success",
		"https://jobs.example.com/thank-you",
		"Application complete - Example Corp",
		"Vielen Dank - Bewerbung erfolgreich",
		"https://example.de/bewerbung/danke",
	}
	for _, s := range positives {
		assert.True(t, sc.containsSuccessKeyword(s), "expected success keyword in %q", s)
	}

	negatives := []string{
		"https://jobs.example.com/apply",
		"Software Engineer - Example Corp",
		"",
	}
	for _, s := range negatives {
		assert.False(t, sc.containsSuccessKeyword(s), "unexpected success keyword in %q", s)
	}
}

func TestSuccessKeywordListStable(t *testing.T) {
	kw := NewSubmissionChecker().SuccessKeywordList()
	assert.Contains(t, kw, "success")
	assert.Contains(t, kw, "confirmation")
	assert.Contains(t, kw, "erfolgreich")
	assert.Contains(t, kw, "dziekujemy")
}

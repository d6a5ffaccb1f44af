package services

import (
	"log"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// SubmissionChecker verifies whether an application actually went
// through after a submit attempt, by scanning the URL, the title and the
// page for confirmation signals in the supported languages.
type SubmissionChecker struct{}

func NewSubmissionChecker() *SubmissionChecker {
	return &SubmissionChecker{}
}

var successIndicators = []string{
	"text=Thank you for your application",
	"text=Application submitted successfully",
	"text=Your application has been submitted",
	"text=Application received",
	"text=Thank you for applying",
	"text=We have received your application",
	"text=Successfully submitted",
	"text=Vielen Dank für Ihre Bewerbung",
	"text=Bewerbung erfolgreich",
	"text=Ihre Bewerbung wurde",
	"text=Dziękujemy za aplikację",
	"text=Aplikacja została wysłana",
	"[class*='success']",
	"[class*='confirmation']",
	"[class*='submitted']",
	"[data-testid*='success']",
	"[data-testid*='confirmation']",
	"h1:has-text('Thank you')",
	"h2:has-text('Thank you')",
	"h1:has-text('Submitted')",
	"h1:has-text('Vielen Dank')",
	"h1:has-text('Dziękujemy')",
}

var successKeywords = []string{
	"success", "thank", "thank-you", "confirmation", "complete",
	"submitted", "received", "danke", "erfolgreich", "dziekujemy",
}

// CheckForSuccess reports whether the page shows submission confirmation.
// A false result means unverified, not failed: many boards confirm by
// email without changing the page.
func (sc *SubmissionChecker) CheckForSuccess(page playwright.Page) bool {
	pageTitle, _ := page.Title()
	pageURL := page.URL()

	if sc.containsSuccessKeyword(pageURL) {
		log.Printf("✓ Success keyword in URL: %s", pageURL)
		return true
	}
	if sc.containsSuccessKeyword(pageTitle) {
		log.Printf("✓ Success keyword in title: %s", pageTitle)
		return true
	}

	for _, indicator := range successIndicators {
		element := page.Locator(indicator).First()
		if visible, _ := element.IsVisible(); visible {
			text, _ := element.TextContent()
			log.Printf("✓ Success indicator matched: %s (text: %s)", indicator, strings.TrimSpace(text))
			return true
		}
	}

	log.Printf("No submission confirmation found on %s", pageURL)
	return false
}

func (sc *SubmissionChecker) containsSuccessKeyword(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range successKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// SuccessKeywordList exposes the keyword table for callers that scan
// strings outside a live page (tests, reporting).
func (sc *SubmissionChecker) SuccessKeywordList() []string {
	return successKeywords
}

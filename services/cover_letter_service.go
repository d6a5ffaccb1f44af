package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"applyflow/models"
	"applyflow/utils"
)

// CoverLetterService drafts a cover letter from the CV when the
// attachments directory has none and an application page asks for one.
type CoverLetterService struct {
	llm *LLMClient
}

func NewCoverLetterService(llm *LLMClient) *CoverLetterService {
	return &CoverLetterService{llm: llm}
}

var coverLetterPrompts = map[string]string{
	"en": `Write a concise, professional cover letter (3 short paragraphs, no placeholders) for the candidate below. Plain text only, no markdown.

Candidate:
Name: %s
Summary: %s
Recent role: %s
Key skills: %s`,
	"pl": `Napisz zwięzły, profesjonalny list motywacyjny (3 krótkie akapity, bez placeholderów) dla poniższego kandydata. Sam tekst, bez markdown.

Kandydat:
Imię i nazwisko: %s
Podsumowanie: %s
Ostatnia rola: %s
Kluczowe umiejętności: %s`,
	"de": `Schreibe ein prägnantes, professionelles Anschreiben (3 kurze Absätze, keine Platzhalter) für den folgenden Kandidaten. Nur Text, kein Markdown.

Kandidat:
Name: %s
Zusammenfassung: %s
Letzte Rolle: %s
Kernkompetenzen: %s`,
}

// Generate drafts the letter text. When the model backend is down it
// falls back to a minimal template so the upload path still has a file.
func (cs *CoverLetterService) Generate(ctx context.Context, cv *models.CVDocument, lang string) string {
	name, _ := cv.Lookup("personal_info.name")
	summary, _ := cv.Lookup("professional_summary")
	role, _ := cv.Lookup("work_experience.0.position")
	skills, _ := cv.Lookup("skills.technical")

	prompt := fmt.Sprintf(promptFor(coverLetterPrompts, lang), name, summary, role, skills)
	text, err := cs.llm.Generate(ctx, prompt, GenerateParams{Temperature: 0.7, MaxTokens: 1024})
	if err != nil || strings.TrimSpace(text) == "" {
		log.Printf("⚠ Cover letter generation fell back to template: %v", err)
		return fmt.Sprintf("Dear Hiring Manager,\n\nI am writing to apply for this position. %s\n\nKind regards,\n%s", summary, name)
	}
	return strings.TrimSpace(text)
}

// WriteDocx saves the letter as a Word document at the given path.
func (cs *CoverLetterService) WriteDocx(ctx context.Context, cv *models.CVDocument, lang, path string) error {
	text := cs.Generate(ctx, cv, lang)
	name, _ := cv.Lookup("personal_info.name")
	return utils.GenerateCoverLetterDocx(name, strings.Split(text, "\n"), path)
}

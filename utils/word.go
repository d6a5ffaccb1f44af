package utils

import (
	"strings"

	"baliance.com/gooxml/document"
)

// GenerateCoverLetterDocx writes a cover letter as a Word document: the
// author name as a bold heading, then one paragraph per non-empty line.
func GenerateCoverLetterDocx(author string, lines []string, filepath string) error {
	doc := document.New()

	if author != "" {
		heading := doc.AddParagraph().AddRun()
		heading.Properties().SetBold(true)
		heading.AddText(author)
		doc.AddParagraph()
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			doc.AddParagraph()
			continue
		}
		doc.AddParagraph().AddRun().AddText(line)
	}

	return doc.SaveToFile(filepath)
}

// GenerateWordFile writes plain text into a single-paragraph document.
func GenerateWordFile(content string, filepath string) error {
	doc := document.New()
	doc.AddParagraph().AddRun().AddText(content)
	return doc.SaveToFile(filepath)
}

package services

import (
	"regexp"
	"strings"

	"applyflow/models"
)

// purposeRule maps a label/attribute regex to a CV document path. The
// table is ordered: the first matching rule wins, so specific patterns
// (first name) come before generic ones (name).
type purposeRule struct {
	pattern        *regexp.Regexp
	cvPath         string
	transformation string
}

var purposeRules = []purposeRule{
	// Personal information
	{regexp.MustCompile(`(?i)(first.?name|given.?name|fname|vorname|imi[eę])`), "personal_info.name", "name_first"},
	{regexp.MustCompile(`(?i)(last.?name|family.?name|surname|lname|nachname|nazwisko)`), "personal_info.name", "name_last"},
	{regexp.MustCompile(`(?i)(full.?name|complete.?name|name)`), "personal_info.name", ""},
	{regexp.MustCompile(`(?i)(email|e-?mail|mail)`), "personal_info.email", ""},
	{regexp.MustCompile(`(?i)(phone|telephone|mobile|cell|telefon)`), "personal_info.phone", ""},
	{regexp.MustCompile(`(?i)(street|stra(ss|ß)e|ulica)`), "personal_info.location", "street_only"},
	{regexp.MustCompile(`(?i)(address|location|city|adresse|stadt|miasto)`), "personal_info.location", ""},
	{regexp.MustCompile(`(?i)(linkedin|linked\.in)`), "personal_info.linkedin", ""},
	{regexp.MustCompile(`(?i)(website|portfolio|homepage|url)`), "personal_info.website", ""},

	// Professional information
	{regexp.MustCompile(`(?i)(current.?position|job.?title|role|position)`), "work_experience.0.position", ""},
	{regexp.MustCompile(`(?i)(current.?company|employer|organi[sz]ation|arbeitgeber)`), "work_experience.0.company", ""},
	{regexp.MustCompile(`(?i)(summary|objective|profile|about|motivation)`), "professional_summary", ""},
	{regexp.MustCompile(`(?i)(experience|work.?history|berufserfahrung)`), "work_experience", ""},
	{regexp.MustCompile(`(?i)(education|degree|university|school|ausbildung|wykszta[lł]cenie)`), "education", ""},
	{regexp.MustCompile(`(?i)(skills|competencies|abilities|f[aä]higkeiten)`), "skills.technical", ""},
	{regexp.MustCompile(`(?i)(languages|language.?skills|sprachen|j[eę]zyki)`), "skills.languages", ""},
	{regexp.MustCompile(`(?i)(certifications?|certificates?|certs|zertifikate?)`), "certifications", ""},
}

// FieldClassifier infers widget types and semantic purposes for raw
// elements using the pattern tables above. Purely deterministic; the
// LLM-assisted refinement happens later in the evidence combiner.
type FieldClassifier struct{}

func NewFieldClassifier() *FieldClassifier {
	return &FieldClassifier{}
}

// ClassifyType resolves the widget type for a tag + type attribute pair,
// refining bare text inputs through label keywords. A text input labelled
// "E-Mail-Adresse" is an email field even without type="email".
func (c *FieldClassifier) ClassifyType(tag, inputType, describeText string) models.FieldType {
	ft := models.FieldTypeFromInput(tag, inputType)
	if ft != models.FieldTypeText {
		return ft
	}

	text := strings.ToLower(describeText)
	switch {
	case containsAny(text, "email", "e-mail", "mail"):
		return models.FieldTypeEmail
	case containsAny(text, "phone", "telefon", "mobile", "tel."):
		return models.FieldTypePhone
	case containsAny(text, "date", "datum", "data urodzenia"):
		return models.FieldTypeDate
	case containsAny(text, "website", "linkedin", "portfolio", "homepage", "http"):
		return models.FieldTypeURL
	}
	return models.FieldTypeText
}

// InferPurpose returns the CV path and transformation rule for the first
// matching purpose pattern, or empty strings when nothing matches.
func (c *FieldClassifier) InferPurpose(describeText string) (cvPath, transformation string) {
	for _, rule := range purposeRules {
		if rule.pattern.MatchString(describeText) {
			return rule.cvPath, rule.transformation
		}
	}
	return "", ""
}

// Upload-affordance keywords, per language. Matching any keyword in an
// element's visible text or class/id marks it as a clickable upload
// candidate.
var uploadKeywords = map[string][]string{
	"en": {"upload", "browse", "attach", "choose file", "drop file", "drag", "dropzone", "add file"},
	"de": {"hochladen", "datei ausw", "anh", "durchsuchen", "hier ablegen"},
	"pl": {"prześlij", "załącz", "wybierz plik", "upuść"},
}

// UploadKeywordList flattens the per-language upload keywords in a
// stable order, for callers that need the raw list (the DOM scan script
// filters clickables with it in-page).
func (c *FieldClassifier) UploadKeywordList() []string {
	var all []string
	for _, lang := range []string{"en", "de", "pl"} {
		all = append(all, uploadKeywords[lang]...)
	}
	return all
}

// IsUploadAffordance reports whether an element's text marks it as a
// styled upload control (button, dropzone, styled label).
func (c *FieldClassifier) IsUploadAffordance(describeText string) bool {
	text := strings.ToLower(describeText)
	for _, words := range uploadKeywords {
		for _, w := range words {
			if strings.Contains(text, w) {
				return true
			}
		}
	}
	return false
}

// Document-type keywords per language. Checked against the label text of
// an upload affordance; the scan covers all languages at once so a German
// page with an English widget still classifies.
var documentKeywords = map[models.DocumentType][]string{
	models.DocumentCoverLetter: {"cover letter", "cover-letter", "coverletter", "motivation", "anschreiben", "motivationsschreiben", "list motywacyjny"},
	models.DocumentCertificate: {"certificate", "certificates", "zeugnis", "zeugnisse", "zertifikat", "certyfikat", "świadectwo"},
	models.DocumentPhoto:       {"photo", "picture", "foto", "bild", "zdjęcie"},
	models.DocumentResume:      {"resume", "cv", "curriculum", "lebenslauf", "życiorys"},
}

// Checked in this order so that "cover letter" wins over the bare "letter"
// in a resume alias, and resume stays the default.
var documentKeywordOrder = []models.DocumentType{
	models.DocumentCoverLetter,
	models.DocumentCertificate,
	models.DocumentPhoto,
	models.DocumentResume,
}

// ClassifyDocumentType resolves which attachment an upload control asks
// for from its label text. Defaults to resume when nothing matches.
func (c *FieldClassifier) ClassifyDocumentType(labelText string) models.DocumentType {
	text := strings.ToLower(labelText)
	for _, dt := range documentKeywordOrder {
		for _, w := range documentKeywords[dt] {
			if strings.Contains(text, w) {
				return dt
			}
		}
	}
	return models.DocumentResume
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

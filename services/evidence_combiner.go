package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"applyflow/models"
)

// DetectionReport is the combined, ranked view of every form element the
// detection pipeline found on a page, plus page-level hints contributed
// by the enrichment pass.
type DetectionReport struct {
	Fields            []*models.FormField `json:"fields"`
	SubmitSelectors   []string            `json:"submit_selectors"`
	CaptchaDetected   bool                `json:"captcha_detected"`
	EnrichmentApplied bool                `json:"enrichment_applied"`
}

// EvidenceCombiner merges DOM, visual and focus-order evidence into a
// single deduplicated field list ordered by confidence. DOM evidence is
// authoritative for element type and requiredness; the other sources
// adjust confidence and fill gaps.
type EvidenceCombiner struct {
	llm        *LLMClient
	classifier *FieldClassifier
}

func NewEvidenceCombiner(llm *LLMClient, classifier *FieldClassifier) *EvidenceCombiner {
	return &EvidenceCombiner{llm: llm, classifier: classifier}
}

// Combine merges the three evidence streams. The result is sorted by
// descending confidence; ties keep DOM document order. Combining the
// same inputs twice yields the same report.
func (ec *EvidenceCombiner) Combine(domFields []*models.FormField, visual []VisualElement, focusFields []*models.FormField) *DetectionReport {
	byKey := make(map[string]*models.FormField)
	var order []string

	for _, f := range domFields {
		f.Confidence = ec.baseDOMConfidence(f)
		key := f.IdentityKey()
		if existing, ok := byKey[key]; ok {
			mergeDuplicate(existing, f)
			continue
		}
		byKey[key] = f
		order = append(order, key)
	}

	// Focus-order evidence corroborates DOM entries; elements only the
	// keyboard walk saw join the list at low confidence with no type
	// or purpose guessed.
	for _, f := range focusFields {
		key := f.IdentityKey()
		if existing, ok := byKey[key]; ok {
			existing.Confidence = capConfidence(existing.Confidence + 0.1)
			continue
		}
		byKey[key] = f
		order = append(order, key)
	}

	// Visual evidence has no selectors, so matching is positional with a
	// text fallback. Matched elements corroborate; unmatched high and
	// medium sightings become standalone fields, low is discarded.
	for i := range visual {
		ve := &visual[i]
		if ve.Confidence == VisionLow {
			continue
		}
		if matched := ec.matchVisual(ve, byKey, order); matched != nil {
			matched.Confidence = capConfidence(matched.Confidence + 0.05)
			if matched.Label == "" {
				matched.Label = ve.NearbyText
			}
			continue
		}
		f := ec.visualToField(ve)
		// Visual sightings carry no DOM identity, so key them by what
		// the model saw instead.
		key := fmt.Sprintf("visual|%s|%.0f,%.0f", strings.ToLower(f.Label), f.Position.X, f.Position.Y)
		if _, ok := byKey[key]; ok {
			continue
		}
		byKey[key] = f
		order = append(order, key)
	}

	fields := make([]*models.FormField, 0, len(order))
	for _, key := range order {
		fields = append(fields, byKey[key])
	}
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Confidence > fields[j].Confidence
	})

	log.Printf("✓ Combined evidence: %d DOM + %d visual + %d focus-order -> %d fields",
		len(domFields), len(visual), len(focusFields), len(fields))
	return &DetectionReport{Fields: fields}
}

// baseDOMConfidence assigns the per-element starting confidence. Native
// file inputs are unambiguous; upload-looking clickables are strong but
// may open dialogs instead of choosers; everything else sits in between.
func (ec *EvidenceCombiner) baseDOMConfidence(f *models.FormField) float64 {
	if f.FieldType == models.FieldTypeFile {
		return 1.0
	}
	if ec.classifier.IsUploadAffordance(f.DescribeText()) && f.Tag != "input" && f.Tag != "select" && f.Tag != "textarea" {
		return 0.8
	}
	return 0.85
}

// mergeDuplicate folds a later sighting of the same element into the
// first one, keeping the higher confidence. A purpose disagreement is
// preserved as an alternate rather than silently dropped.
func mergeDuplicate(existing, dup *models.FormField) {
	if dup.Confidence > existing.Confidence {
		existing.Confidence = dup.Confidence
	}
	if dup.Purpose != "" && dup.Purpose != existing.Purpose {
		if existing.Purpose == "" {
			existing.Purpose = dup.Purpose
		} else {
			existing.Alternates = append(existing.Alternates, dup)
		}
	}
	if existing.Label == "" {
		existing.Label = dup.Label
	}
}

func (ec *EvidenceCombiner) matchVisual(ve *VisualElement, byKey map[string]*models.FormField, order []string) *models.FormField {
	for _, key := range order {
		f := byKey[key]
		if ve.Position.Width > 0 && f.Position.Overlaps(ve.Position) {
			return f
		}
	}
	if ve.NearbyText == "" {
		return nil
	}
	needle := strings.ToLower(ve.NearbyText)
	for _, key := range order {
		f := byKey[key]
		label := strings.ToLower(f.Label)
		if label != "" && (strings.Contains(needle, label) || strings.Contains(label, needle)) {
			return f
		}
	}
	return nil
}

func (ec *EvidenceCombiner) visualToField(ve *VisualElement) *models.FormField {
	confidence := 0.9
	if ve.Confidence == VisionMedium {
		confidence = 0.6
	}
	fieldType := models.FieldTypeUnknown
	if ve.Upload {
		fieldType = models.FieldTypeFile
	}
	purpose, _ := ec.classifier.InferPurpose(ve.NearbyText + " " + ve.Description)
	return &models.FormField{
		Selector:   "", // no selector: only reachable by coordinates
		Tag:        "visual",
		FieldType:  fieldType,
		Label:      ve.NearbyText,
		Purpose:    purpose,
		Confidence: confidence,
		Source:     models.SourceVisual,
		Position:   ve.Position,
	}
}

func capConfidence(c float64) float64 {
	if c > 1.0 {
		return 1.0
	}
	return c
}

var enrichPrompts = map[string]string{
	"en": `You are reviewing a list of form fields detected on a job application page.
For each field you may suggest a better purpose as a CV path (one of: personal_info.name, personal_info.email, personal_info.phone, personal_info.location, personal_info.linkedin, personal_info.website, work_experience.0.position, work_experience.0.company, professional_summary, work_experience, education, skills.technical, skills.languages, certifications).
Also report any CSS selectors that look like submit buttons and whether the page appears to contain a CAPTCHA.
Respond as JSON: {"fields": {"<selector>": {"purpose": "..."}}, "submit_selectors": ["..."], "captcha_detected": false}

Detected fields:
%s`,
	"pl": `Przeglądasz listę pól formularza wykrytych na stronie aplikacji o pracę.
Dla każdego pola możesz zaproponować lepsze przeznaczenie. Zgłoś też selektory CSS przycisków wysyłania oraz czy strona zawiera CAPTCHA.
Odpowiedz jako JSON: {"fields": {"<selector>": {"purpose": "..."}}, "submit_selectors": ["..."], "captcha_detected": false}

Wykryte pola:
%s`,
	"de": `Du prüfst eine Liste von Formularfeldern, die auf einer Bewerbungsseite erkannt wurden.
Für jedes Feld kannst du einen besseren Zweck vorschlagen. Melde außerdem CSS-Selektoren von Submit-Buttons und ob die Seite ein CAPTCHA enthält.
Antworte als JSON: {"fields": {"<selector>": {"purpose": "..."}}, "submit_selectors": ["..."], "captcha_detected": false}

Erkannte Felder:
%s`,
}

type enrichmentReply struct {
	Fields map[string]struct {
		Purpose string `json:"purpose"`
	} `json:"fields"`
	SubmitSelectors []string `json:"submit_selectors"`
	CaptchaDetected bool     `json:"captcha_detected"`
}

// Enrich asks the language model to refine the combined report. The model
// may adjust purposes, contribute submit-button selectors and flag a
// CAPTCHA, but it can never add fields or override the deterministic
// element type and requiredness. Failures leave the report untouched.
func (ec *EvidenceCombiner) Enrich(ctx context.Context, report *DetectionReport, lang string) {
	if len(report.Fields) == 0 {
		return
	}

	var sb strings.Builder
	for _, f := range report.Fields {
		fmt.Fprintf(&sb, "- selector=%q type=%s label=%q purpose=%q required=%t\n",
			f.Selector, f.FieldType, f.Label, f.Purpose, f.Required)
	}
	prompt := fmt.Sprintf(promptFor(enrichPrompts, lang), sb.String())

	raw, err := ec.llm.GenerateJSON(ctx, prompt, GenerateParams{Temperature: 0.1, MaxTokens: 1024})
	if err != nil {
		log.Printf("⚠ Detection enrichment skipped: %v", err)
		return
	}
	var reply enrichmentReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		log.Printf("⚠ Detection enrichment reply not usable: %v", err)
		return
	}

	bySelector := make(map[string]*models.FormField, len(report.Fields))
	for _, f := range report.Fields {
		if f.Selector != "" {
			bySelector[f.Selector] = f
		}
	}
	for selector, hint := range reply.Fields {
		f, ok := bySelector[selector]
		if !ok || hint.Purpose == "" {
			continue
		}
		if f.Purpose != hint.Purpose {
			if f.Purpose == "" {
				f.Purpose = hint.Purpose
			} else {
				alt := *f
				alt.Purpose = hint.Purpose
				f.Alternates = append(f.Alternates, &alt)
			}
		}
	}
	report.SubmitSelectors = reply.SubmitSelectors
	report.CaptchaDetected = reply.CaptchaDetected
	report.EnrichmentApplied = true
	log.Printf("✓ Detection enrichment applied (%d hints, %d submit selectors)",
		len(reply.Fields), len(reply.SubmitSelectors))
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"applyflow/models"
)

const (
	patternStrategyWeight    = 0.9
	enrichmentStrategyWeight = 0.7
	typeStrategyWeight       = 0.5
)

// FieldMapper decides which CV value belongs in each detected form
// field. Three strategies run per page: deterministic pattern matching,
// one AI call covering every field at once, and a widget-type fallback.
// A pattern match always wins its field; for the rest the best-scoring
// proposal wins, with ties kept by strategy order.
type FieldMapper struct {
	llm        *LLMClient
	classifier *FieldClassifier
}

// MappingResult is the outcome of mapping one page's fields: the chosen
// value per mappable field plus the fields nothing could serve.
type MappingResult struct {
	Mappings []*models.FieldMapping
	Unmapped []*models.FormField
}

func NewFieldMapper(llm *LLMClient, classifier *FieldClassifier) *FieldMapper {
	return &FieldMapper{llm: llm, classifier: classifier}
}

// MapFields proposes a CV value for every fillable field. File fields are
// excluded here; attachments are resolved by the upload path. The AI
// strategy degrades silently when the model backend is unreachable.
func (fm *FieldMapper) MapFields(ctx context.Context, fields []*models.FormField, cv *models.CVDocument, lang string) *MappingResult {
	fillable := make([]*models.FormField, 0, len(fields))
	for _, f := range fields {
		if f.FieldType == models.FieldTypeFile || f.Selector == "" {
			continue
		}
		fillable = append(fillable, f)
	}

	best := make(map[string]*models.FieldMapping, len(fillable))

	for _, f := range fillable {
		if m := fm.patternMapping(f, cv); m != nil {
			best[f.Selector] = m
		}
	}
	for _, m := range fm.aiMappings(ctx, fillable, cv, lang) {
		merge(best, m)
	}
	for _, f := range fillable {
		if m := fm.typeMapping(f, cv); m != nil {
			merge(best, m)
		}
	}

	result := &MappingResult{}
	for _, f := range fillable {
		if m, ok := best[f.Selector]; ok {
			result.Mappings = append(result.Mappings, m)
		} else {
			result.Unmapped = append(result.Unmapped, f)
		}
	}
	log.Printf("✓ Mapped %d/%d fields (%d unmapped)", len(result.Mappings), len(fillable), len(result.Unmapped))
	return result
}

// merge keeps the higher-confidence proposal, except that a pattern
// mapping is never displaced: the regex table is hand-curated and the
// model grades its own confidence, so no self-reported score may
// override it. Equal confidence keeps the incumbent, so running
// strategies in pattern, AI, type order encodes the tie-break.
func merge(best map[string]*models.FieldMapping, m *models.FieldMapping) {
	existing, ok := best[m.FormField.Selector]
	if !ok {
		best[m.FormField.Selector] = m
		return
	}
	if existing.Strategy == models.StrategyPattern {
		return
	}
	if m.MappingConfidence > existing.MappingConfidence {
		best[m.FormField.Selector] = m
	}
}

// patternMapping applies the ordered regex table against everything we
// know about the field; first match wins at the fixed pattern weight.
// When the table has no answer but the enrichment pass assigned a
// purpose, that purpose is used too, tagged with its model provenance
// and a lower weight so it competes with the AI strategy instead of
// impersonating a hand-curated match.
func (fm *FieldMapper) patternMapping(f *models.FormField, cv *models.CVDocument) *models.FieldMapping {
	path, transformation := fm.classifier.InferPurpose(f.DescribeText())
	strategy, weight := models.StrategyPattern, patternStrategyWeight
	if path == "" && f.Purpose != "" {
		path, strategy, weight = f.Purpose, models.StrategyEnrichment, enrichmentStrategyWeight
	}
	if path == "" {
		return nil
	}
	value, ok := cv.Lookup(path)
	if !ok {
		return nil
	}
	return &models.FieldMapping{
		FormField:            f,
		CVValue:              ApplyTransformation(value, transformation),
		CVSourcePath:         path,
		MappingConfidence:    weight,
		TransformationNeeded: transformation != "",
		TransformationRule:   transformation,
		Strategy:             strategy,
	}
}

// typeMapping is the last-resort guess from the widget type alone.
func (fm *FieldMapper) typeMapping(f *models.FormField, cv *models.CVDocument) *models.FieldMapping {
	var path string
	switch f.FieldType {
	case models.FieldTypeEmail:
		path = "personal_info.email"
	case models.FieldTypePhone:
		path = "personal_info.phone"
	case models.FieldTypeURL:
		path = "personal_info.website"
	case models.FieldTypeTextarea:
		path = "professional_summary"
	default:
		return nil
	}
	value, ok := cv.Lookup(path)
	if !ok {
		return nil
	}
	return &models.FieldMapping{
		FormField:         f,
		CVValue:           value,
		CVSourcePath:      path,
		MappingConfidence: typeStrategyWeight,
		Strategy:          models.StrategyTypeInference,
	}
}

var mappingPrompts = map[string]string{
	"en": `You are filling a job application form from a candidate's CV.

CV data:
%s

Form fields:
%s

For each form field, pick the CV value that belongs in it. Skip fields the CV cannot answer.
Respond as JSON:
{"field_mappings": {"<selector>": {"value": "...", "source": "<cv path like personal_info.email>", "confidence": 0.8, "notes": ""}}}`,
	"pl": `Wypełniasz formularz aplikacji o pracę na podstawie CV kandydata.

Dane CV:
%s

Pola formularza:
%s

Dla każdego pola wybierz pasującą wartość z CV. Pomiń pola, na które CV nie odpowiada.
Odpowiedz jako JSON:
{"field_mappings": {"<selector>": {"value": "...", "source": "...", "confidence": 0.8, "notes": ""}}}`,
	"de": `Du füllst ein Bewerbungsformular anhand des Lebenslaufs eines Kandidaten aus.

Lebenslauf-Daten:
%s

Formularfelder:
%s

Wähle für jedes Feld den passenden Wert aus dem Lebenslauf. Überspringe Felder, die der Lebenslauf nicht beantworten kann.
Antworte als JSON:
{"field_mappings": {"<selector>": {"value": "...", "source": "...", "confidence": 0.8, "notes": ""}}}`,
}

type aiMappingReply struct {
	FieldMappings map[string]struct {
		Value      string  `json:"value"`
		Source     string  `json:"source"`
		Confidence float64 `json:"confidence"`
		Notes      string  `json:"notes"`
	} `json:"field_mappings"`
}

// aiMappings makes one model call for the whole page. Any failure (HTTP,
// timeout, unparseable reply) returns nothing and the deterministic
// strategies carry the page.
func (fm *FieldMapper) aiMappings(ctx context.Context, fields []*models.FormField, cv *models.CVDocument, lang string) []*models.FieldMapping {
	if len(fields) == 0 {
		return nil
	}

	cvJSON, err := json.MarshalIndent(cv, "", "  ")
	if err != nil {
		return nil
	}
	var sb strings.Builder
	bySelector := make(map[string]*models.FormField, len(fields))
	for _, f := range fields {
		fmt.Fprintf(&sb, "- selector=%q type=%s label=%q required=%t\n", f.Selector, f.FieldType, f.Label, f.Required)
		bySelector[f.Selector] = f
	}

	prompt := fmt.Sprintf(promptFor(mappingPrompts, lang), string(cvJSON), sb.String())
	block, err := fm.llm.GenerateJSON(ctx, prompt, GenerateParams{Temperature: 0.2, MaxTokens: 2048})
	if err != nil {
		log.Printf("⚠ AI mapping skipped: %v", err)
		return nil
	}
	var reply aiMappingReply
	if err := json.Unmarshal([]byte(block), &reply); err != nil {
		log.Printf("⚠ AI mapping reply not usable: %v", err)
		return nil
	}

	var mappings []*models.FieldMapping
	for selector, proposal := range reply.FieldMappings {
		f, ok := bySelector[selector]
		if !ok || proposal.Value == "" {
			continue
		}
		confidence := proposal.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = 0.5
		}
		mappings = append(mappings, &models.FieldMapping{
			FormField:         f,
			CVValue:           proposal.Value,
			CVSourcePath:      proposal.Source,
			MappingConfidence: confidence,
			Strategy:          models.StrategyAI,
		})
	}
	log.Printf("AI mapping proposed values for %d fields", len(mappings))
	return mappings
}

// ApplyTransformation adjusts a raw CV value for fields that want only a
// part of it.
func ApplyTransformation(value, rule string) string {
	switch rule {
	case "name_first":
		parts := strings.Fields(value)
		if len(parts) > 0 {
			return parts[0]
		}
	case "name_last":
		parts := strings.Fields(value)
		if len(parts) > 1 {
			return strings.Join(parts[1:], " ")
		}
	case "street_only":
		if idx := strings.Index(value, ","); idx >= 0 {
			return strings.TrimSpace(value[:idx])
		}
	}
	return value
}

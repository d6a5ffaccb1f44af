package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"applyflow/models"
)

// VisionConfidence is the coarse certainty label the vision model assigns
// to an element it reports.
type VisionConfidence string

const (
	VisionHigh   VisionConfidence = "high"
	VisionMedium VisionConfidence = "medium"
	VisionLow    VisionConfidence = "low"
)

// VisualElement is one form element the vision model described in a
// screenshot. Purely advisory: it never manipulates the page and may
// carry only an approximate position.
type VisualElement struct {
	Description string           `json:"description"`
	Kind        string           `json:"kind"`
	NearbyText  string           `json:"nearby_text"`
	Position    models.Rect      `json:"position"`
	Confidence  VisionConfidence `json:"confidence"`
	Upload      bool             `json:"upload"`
}

// VisualAnalyzer sends full-page screenshots to the vision model and
// parses its description of form elements. Any backend failure degrades
// to an empty result set; the detection pipeline then runs on DOM and
// focus-order evidence alone.
type VisualAnalyzer struct {
	llm        *LLMClient
	model      string
	classifier *FieldClassifier
}

func NewVisualAnalyzer(llm *LLMClient, visionModel string, classifier *FieldClassifier) *VisualAnalyzer {
	return &VisualAnalyzer{llm: llm, model: visionModel, classifier: classifier}
}

var visionPrompts = map[string]string{
	"en": `Analyze this webpage screenshot and identify all form elements. Focus on:
1. Input fields (text, email, phone, password)
2. File upload buttons and drop zones
3. Dropdown menus, checkboxes, radio buttons
4. Text areas and submit buttons
5. Required field indicators (*, red text)

For each element report: type of field, label or nearby text, approximate position (x, y, width, height in pixels if possible), and a confidence of high, medium or low.
Respond as a JSON object: {"elements": [{"kind": "...", "description": "...", "nearby_text": "...", "position": {"x":0,"y":0,"width":0,"height":0}, "confidence": "high"}]}`,
	"pl": `Przeanalizuj ten zrzut ekranu strony internetowej i zidentyfikuj wszystkie elementy formularza. Skup się na:
1. Polach wejściowych (tekst, email, telefon, hasło)
2. Przyciskach wgrywania plików i strefach upuszczania
3. Menu rozwijanych, polach wyboru, przyciskach opcji
4. Obszarach tekstowych i przyciskach wysyłania
5. Wskaźnikach pól wymaganych (*, czerwony tekst)

Dla każdego elementu podaj: typ pola, etykietę lub pobliski tekst, przybliżoną pozycję oraz pewność high, medium lub low.
Odpowiedz jako obiekt JSON: {"elements": [...]}`,
	"de": `Analysiere diesen Webseiten-Screenshot und identifiziere alle Formularelemente. Konzentriere dich auf:
1. Eingabefelder (Text, E-Mail, Telefon, Passwort)
2. Datei-Upload-Buttons und Ablagezonen
3. Dropdown-Menüs, Checkboxen, Radiobuttons
4. Textbereiche und Submit-Buttons
5. Pflichtfeld-Indikatoren (*, roter Text)

Gib für jedes Element an: Feldtyp, Label oder nahen Text, ungefähre Position und eine Konfidenz von high, medium oder low.
Antworte als JSON-Objekt: {"elements": [...]}`,
}

// AnalyzePage describes the form elements visible in a screenshot. The
// language parameter selects the instruction prompt; unknown codes fall
// back to English. Errors never propagate: decode failures, timeouts and
// non-2xx responses all return an empty slice.
func (va *VisualAnalyzer) AnalyzePage(ctx context.Context, screenshot []byte, lang string) []VisualElement {
	if len(screenshot) == 0 {
		return nil
	}

	prompt := promptFor(visionPrompts, lang)
	reply, err := va.llm.Generate(ctx, prompt, GenerateParams{
		Model:       va.model,
		Temperature: 0.1,
		MaxTokens:   2048,
		Images:      [][]byte{screenshot},
	})
	if err != nil {
		log.Printf("Visual analysis unavailable, continuing without it: %v", err)
		return nil
	}

	elements := va.parseReply(reply)
	log.Printf("Visual analysis reported %d elements", len(elements))
	return elements
}

// parseReply accepts either the requested JSON shape or free text. Free
// text is scanned line by line for form-element keywords, mirroring how
// unstructured model output actually looks in practice.
func (va *VisualAnalyzer) parseReply(reply string) []VisualElement {
	if block, ok := ExtractJSONBlock(reply); ok {
		var parsed struct {
			Elements []VisualElement `json:"elements"`
		}
		if err := json.Unmarshal([]byte(block), &parsed); err == nil && len(parsed.Elements) > 0 {
			for i := range parsed.Elements {
				va.finalize(&parsed.Elements[i])
			}
			return parsed.Elements
		}
	}
	return va.parseFreeText(reply)
}

var freeTextKeywords = []string{
	"input", "field", "textbox", "dropdown", "button", "checkbox", "upload", "file",
	"pole", "przycisk", "plik",
	"feld", "eingabe", "datei",
}

func (va *VisualAnalyzer) parseFreeText(reply string) []VisualElement {
	var elements []VisualElement
	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)

		matched := false
		for _, kw := range freeTextKeywords {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		el := VisualElement{
			Description: trimmed,
			NearbyText:  trimmed,
			Confidence:  VisionMedium,
		}
		if strings.Contains(lower, "high confidence") || strings.Contains(lower, "confidence: high") {
			el.Confidence = VisionHigh
		} else if strings.Contains(lower, "low confidence") || strings.Contains(lower, "confidence: low") {
			el.Confidence = VisionLow
		}
		va.finalize(&el)
		elements = append(elements, el)
	}
	return elements
}

func (va *VisualAnalyzer) finalize(el *VisualElement) {
	switch el.Confidence {
	case VisionHigh, VisionMedium, VisionLow:
	default:
		el.Confidence = VisionMedium
	}
	text := el.Description + " " + el.NearbyText + " " + el.Kind
	el.Upload = va.classifier.IsUploadAffordance(text) ||
		strings.Contains(strings.ToLower(el.Kind), "file")
}

package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applyflow/models"
)

func newTestCombiner(llm *LLMClient) *EvidenceCombiner {
	if llm == nil {
		llm = NewLLMClient("http://127.0.0.1:1", "test-model", 0)
	}
	return NewEvidenceCombiner(llm, NewFieldClassifier())
}

func domField(id string, ft models.FieldType) *models.FormField {
	return &models.FormField{
		Selector:  "#" + id,
		FrameURL:  "https://jobs.example.com",
		Tag:       "input",
		ID:        id,
		FieldType: ft,
		Source:    models.SourceDOM,
	}
}

func TestCombineBaseConfidences(t *testing.T) {
	ec := newTestCombiner(nil)

	report := ec.Combine([]*models.FormField{
		domField("email", models.FieldTypeEmail),
		domField("cv", models.FieldTypeFile),
	}, nil, nil)

	require.Len(t, report.Fields, 2)
	// File inputs rank first at full confidence.
	assert.Equal(t, "#cv", report.Fields[0].Selector)
	assert.Equal(t, 1.0, report.Fields[0].Confidence)
	assert.Equal(t, 0.85, report.Fields[1].Confidence)
}

func TestCombineScoresUploadClickables(t *testing.T) {
	ec := newTestCombiner(nil)
	button := &models.FormField{
		Selector: "button:nth-of-type(1)", FrameURL: "https://jobs.example.com",
		Tag: "button", Label: "Upload your resume", ClassName: "btn-upload",
		FieldType: models.FieldTypeUnknown, Source: models.SourceDOM,
	}

	report := ec.Combine([]*models.FormField{button}, nil, nil)

	require.Len(t, report.Fields, 1)
	assert.Equal(t, 0.8, report.Fields[0].Confidence)
}

func TestCombineFocusBoostsMatchingDOMField(t *testing.T) {
	ec := newTestCombiner(nil)
	dom := domField("email", models.FieldTypeEmail)
	focus := &models.FormField{
		Selector:  "#email",
		FrameURL:  "https://jobs.example.com",
		Tag:       "input",
		ID:        "email",
		FieldType: models.FieldTypeUnknown,
		Source:    models.SourceFocusOrder,
	}

	report := ec.Combine([]*models.FormField{dom}, nil, []*models.FormField{focus})

	require.Len(t, report.Fields, 1)
	assert.InDelta(t, 0.95, report.Fields[0].Confidence, 1e-9)
	// The DOM classification survives the merge.
	assert.Equal(t, models.FieldTypeEmail, report.Fields[0].FieldType)
}

func TestCombineFocusBoostCapsAtOne(t *testing.T) {
	ec := newTestCombiner(nil)
	dom := domField("cv", models.FieldTypeFile)
	focus := &models.FormField{
		Selector: "#cv", FrameURL: "https://jobs.example.com",
		Tag: "input", ID: "cv", FieldType: models.FieldTypeUnknown,
		Source: models.SourceFocusOrder,
	}

	report := ec.Combine([]*models.FormField{dom}, nil, []*models.FormField{focus})

	require.Len(t, report.Fields, 1)
	assert.Equal(t, 1.0, report.Fields[0].Confidence)
}

func TestCombineFocusOnlyFieldIsLowConfidenceUnknown(t *testing.T) {
	ec := newTestCombiner(nil)
	focus := &models.FormField{
		Selector: "div[tabindex]", Tag: "div", FieldType: models.FieldTypeUnknown,
		Confidence: 0.5, Source: models.SourceFocusOrder,
	}

	report := ec.Combine(nil, nil, []*models.FormField{focus})

	require.Len(t, report.Fields, 1)
	assert.Equal(t, 0.5, report.Fields[0].Confidence)
	assert.Equal(t, models.FieldTypeUnknown, report.Fields[0].FieldType)
}

func TestCombineVisualStandaloneConfidence(t *testing.T) {
	ec := newTestCombiner(nil)

	report := ec.Combine(nil, []VisualElement{
		{Description: "upload area", NearbyText: "Upload resume", Confidence: VisionHigh, Upload: true},
		{Description: "maybe a field", NearbyText: "Middle initial", Confidence: VisionMedium},
		{Description: "noise", NearbyText: "something", Confidence: VisionLow},
	}, nil)

	require.Len(t, report.Fields, 2)
	assert.Equal(t, 0.9, report.Fields[0].Confidence)
	assert.Equal(t, models.FieldTypeFile, report.Fields[0].FieldType)
	assert.Equal(t, 0.6, report.Fields[1].Confidence)
}

func TestCombineVisualMatchesByPosition(t *testing.T) {
	ec := newTestCombiner(nil)
	dom := domField("email", models.FieldTypeEmail)
	dom.Position = models.Rect{X: 100, Y: 100, Width: 200, Height: 30}

	report := ec.Combine([]*models.FormField{dom}, []VisualElement{
		{NearbyText: "Email address", Confidence: VisionHigh,
			Position: models.Rect{X: 110, Y: 105, Width: 180, Height: 25}},
	}, nil)

	// Corroboration, not a second field.
	require.Len(t, report.Fields, 1)
	assert.InDelta(t, 0.9, report.Fields[0].Confidence, 1e-9)
}

func TestCombineIsIdempotent(t *testing.T) {
	ec := newTestCombiner(nil)
	build := func() []*models.FormField {
		return []*models.FormField{
			domField("email", models.FieldTypeEmail),
			domField("name", models.FieldTypeText),
			domField("cv", models.FieldTypeFile),
		}
	}

	a := ec.Combine(build(), nil, nil)
	b := ec.Combine(build(), nil, nil)

	require.Equal(t, len(a.Fields), len(b.Fields))
	for i := range a.Fields {
		assert.Equal(t, a.Fields[i].Selector, b.Fields[i].Selector)
		assert.Equal(t, a.Fields[i].Confidence, b.Fields[i].Confidence)
	}
}

func TestCombineDuplicateDOMSightingsCollapse(t *testing.T) {
	ec := newTestCombiner(nil)

	report := ec.Combine([]*models.FormField{
		domField("email", models.FieldTypeEmail),
		domField("email", models.FieldTypeEmail),
	}, nil, nil)

	assert.Len(t, report.Fields, 1)
}

func TestCombineKeepsBareInputsWithDistinctTypeAttributes(t *testing.T) {
	ec := newTestCombiner(nil)

	// Two inputs with no id, name or class differ only in their type
	// attribute; both must survive the merge.
	bare := func(selector, inputType string, ft models.FieldType) *models.FormField {
		return &models.FormField{
			Selector: selector, FrameURL: "https://jobs.example.com",
			Tag: "input", InputType: inputType, FieldType: ft,
			Source: models.SourceDOM,
		}
	}
	report := ec.Combine([]*models.FormField{
		bare("input:nth-of-type(1)", "email", models.FieldTypeEmail),
		bare("input:nth-of-type(2)", "text", models.FieldTypeText),
	}, nil, nil)

	assert.Len(t, report.Fields, 2)
}

func TestEnrichAppliesHintsWithoutAddingFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response": "{\"fields\": {\"#mystery\": {\"purpose\": \"personal_info.phone\"}, \"#ghost\": {\"purpose\": \"personal_info.email\"}}, \"submit_selectors\": [\"#apply-btn\"], \"captcha_detected\": true}"}`)
	}))
	defer server.Close()

	ec := newTestCombiner(NewLLMClient(server.URL, "test-model", 0))
	mystery := domField("mystery", models.FieldTypeText)
	report := ec.Combine([]*models.FormField{mystery}, nil, nil)

	ec.Enrich(context.Background(), report, "en")

	assert.True(t, report.EnrichmentApplied)
	assert.True(t, report.CaptchaDetected)
	assert.Equal(t, []string{"#apply-btn"}, report.SubmitSelectors)
	// The hint for a known field lands; the unknown selector adds nothing.
	require.Len(t, report.Fields, 1)
	assert.Equal(t, "personal_info.phone", report.Fields[0].Purpose)
	// Deterministic classification is untouched.
	assert.Equal(t, models.FieldTypeText, report.Fields[0].FieldType)
}

func TestEnrichBackendFailureLeavesReportUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model offline", http.StatusInternalServerError)
	}))
	defer server.Close()

	ec := newTestCombiner(NewLLMClient(server.URL, "test-model", 0))
	report := ec.Combine([]*models.FormField{domField("email", models.FieldTypeEmail)}, nil, nil)

	ec.Enrich(context.Background(), report, "en")

	assert.False(t, report.EnrichmentApplied)
	assert.Empty(t, report.SubmitSelectors)
}

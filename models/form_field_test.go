package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldTypeFromInput(t *testing.T) {
	tests := []struct {
		tag       string
		inputType string
		expected  FieldType
	}{
		{"select", "", FieldTypeSelect},
		{"textarea", "", FieldTypeTextarea},
		{"input", "email", FieldTypeEmail},
		{"input", "tel", FieldTypePhone},
		{"input", "file", FieldTypeFile},
		{"input", "checkbox", FieldTypeCheckbox},
		{"input", "radio", FieldTypeRadio},
		{"input", "password", FieldTypePassword},
		{"input", "number", FieldTypeNumber},
		{"input", "url", FieldTypeURL},
		{"input", "date", FieldTypeDate},
		{"input", "text", FieldTypeText},
		{"input", "", FieldTypeText},
		{"INPUT", "EMAIL", FieldTypeEmail},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FieldTypeFromInput(tt.tag, tt.inputType),
			"tag=%s type=%s", tt.tag, tt.inputType)
	}
}

func TestIdentityKeyNormalization(t *testing.T) {
	a := &FormField{Tag: "input", ID: "Email", ClassName: "form  control", FrameURL: "https://jobs.example.com"}
	b := &FormField{Tag: "INPUT", ID: "email", ClassName: "form control", FrameURL: "https://jobs.example.com"}

	assert.Equal(t, a.IdentityKey(), b.IdentityKey())
}

func TestIdentityKeyIgnoresFieldType(t *testing.T) {
	// The same element seen by the DOM scanner (classified) and the focus
	// prober (unknown type) must collapse to one entry.
	dom := &FormField{Tag: "input", ID: "email", FieldType: FieldTypeEmail, Source: SourceDOM}
	focus := &FormField{Tag: "input", ID: "email", FieldType: FieldTypeUnknown, Source: SourceFocusOrder}

	assert.Equal(t, dom.IdentityKey(), focus.IdentityKey())
}

func TestIdentityKeySeparatesTypeAttributes(t *testing.T) {
	// Two bare inputs differing only in their type attribute are distinct
	// elements and must not collapse into one.
	email := &FormField{Tag: "input", InputType: "email", FrameURL: "https://jobs.example.com"}
	text := &FormField{Tag: "input", InputType: "text", FrameURL: "https://jobs.example.com"}

	assert.NotEqual(t, email.IdentityKey(), text.IdentityKey())
}

func TestIdentityKeySeparatesFrames(t *testing.T) {
	main := &FormField{Tag: "input", ID: "email", FrameURL: "https://jobs.example.com"}
	framed := &FormField{Tag: "input", ID: "email", FrameURL: "https://ats.example.com/embed"}

	assert.NotEqual(t, main.IdentityKey(), framed.IdentityKey())
}

func TestRectOverlaps(t *testing.T) {
	base := Rect{X: 100, Y: 100, Width: 200, Height: 40}

	assert.True(t, base.Overlaps(Rect{X: 150, Y: 110, Width: 100, Height: 20}))
	assert.False(t, base.Overlaps(Rect{X: 500, Y: 500, Width: 50, Height: 50}))
}

func TestRectCenter(t *testing.T) {
	x, y := Rect{X: 100, Y: 200, Width: 50, Height: 30}.Center()
	assert.Equal(t, 125.0, x)
	assert.Equal(t, 215.0, y)
}

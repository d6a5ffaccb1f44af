package models

import (
	"fmt"
	"strings"
)

// EvidenceSource tags how a form field candidate was discovered.
type EvidenceSource string

const (
	SourceDOM        EvidenceSource = "dom"
	SourceVisual     EvidenceSource = "visual"
	SourceFocusOrder EvidenceSource = "focus_order"
)

// FieldType is the widget type of a form control. Semantic roles (email
// field, name field, ...) are carried separately in FormField.Purpose.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypePhone    FieldType = "phone"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeFile     FieldType = "file"
	FieldTypePassword FieldType = "password"
	FieldTypeNumber   FieldType = "number"
	FieldTypeURL      FieldType = "url"
	FieldTypeUnknown  FieldType = "unknown"
)

// FieldTypeFromInput maps an HTML tag plus type attribute to a FieldType.
func FieldTypeFromInput(tag, inputType string) FieldType {
	switch strings.ToLower(tag) {
	case "select":
		return FieldTypeSelect
	case "textarea":
		return FieldTypeTextarea
	}

	switch strings.ToLower(inputType) {
	case "email":
		return FieldTypeEmail
	case "tel", "phone":
		return FieldTypePhone
	case "date", "datetime-local", "month":
		return FieldTypeDate
	case "checkbox":
		return FieldTypeCheckbox
	case "radio":
		return FieldTypeRadio
	case "file":
		return FieldTypeFile
	case "password":
		return FieldTypePassword
	case "number":
		return FieldTypeNumber
	case "url":
		return FieldTypeURL
	case "text", "search", "":
		return FieldTypeText
	default:
		return FieldTypeUnknown
	}
}

// Rect is an element bounding box in page coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Overlaps reports whether two rectangles intersect.
func (r Rect) Overlaps(other Rect) bool {
	if r.Width == 0 || r.Height == 0 || other.Width == 0 || other.Height == 0 {
		return false
	}
	return r.X < other.X+other.Width && other.X < r.X+r.Width &&
		r.Y < other.Y+other.Height && other.Y < r.Y+r.Height
}

// FormField is one detected candidate form element. Instances live for a
// single page-analysis pass and are discarded once the form driver has
// consumed them.
type FormField struct {
	Selector    string         `json:"selector"`
	FrameURL    string         `json:"frame_url"`
	Tag         string         `json:"tag"`
	InputType   string         `json:"input_type,omitempty"`
	FieldType   FieldType      `json:"field_type"`
	Label       string         `json:"label"`
	Placeholder string         `json:"placeholder"`
	Name        string         `json:"name"`
	ID          string         `json:"id"`
	ClassName   string         `json:"class_name"`
	Role        string         `json:"role"`
	AriaLabel   string         `json:"aria_label"`
	Required    bool           `json:"required"`
	Options     []string       `json:"options,omitempty"`
	Purpose     string         `json:"purpose,omitempty"`
	Confidence  float64        `json:"confidence"`
	Source      EvidenceSource `json:"source"`
	Position    Rect           `json:"position"`

	// Alternates holds same-identity candidates whose purpose disagreed
	// with this entry. They are kept, not silently dropped.
	Alternates []*FormField `json:"alternates,omitempty"`
}

// IdentityKey derives the deduplication key for a field: the owning frame
// plus a normalized tag+type+id+name+class+role+aria-label tuple.
// InputType is the raw type attribute, which every evidence source can
// read, so two otherwise bare inputs differing only in type stay
// distinct. The classified FieldType is deliberately excluded so
// sightings from sources that cannot classify (focus order) still
// collapse onto the DOM entry.
func (f *FormField) IdentityKey() string {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%s",
		norm(f.FrameURL), norm(f.Tag), norm(f.InputType), norm(f.ID), norm(f.Name),
		norm(f.ClassName), norm(f.Role), norm(f.AriaLabel))
}

// DescribeText is the concatenated text used for keyword and pattern
// matching against this field.
func (f *FormField) DescribeText() string {
	return strings.ToLower(strings.Join([]string{
		f.Label, f.Placeholder, f.Name, f.ID, f.AriaLabel, f.ClassName,
	}, " "))
}

// FieldMapping binds a detected form field to a value resolved from the
// CV document. Created by the field mapper, consumed immediately by the
// form driver.
type FieldMapping struct {
	FormField            *FormField `json:"form_field"`
	CVValue              string     `json:"cv_value"`
	CVSourcePath         string     `json:"cv_source_path"`
	MappingConfidence    float64    `json:"mapping_confidence"`
	TransformationNeeded bool       `json:"transformation_needed"`
	TransformationRule   string     `json:"transformation_rule,omitempty"`
	Strategy             string     `json:"strategy"`
}

// Mapping strategy names, in precedence order for confidence ties.
// StrategyEnrichment marks mappings whose purpose came from the model's
// enrichment pass rather than the regex table.
const (
	StrategyPattern       = "pattern"
	StrategyEnrichment    = "enrichment"
	StrategyAI            = "ai"
	StrategyTypeInference = "type_inference"
)

// DocumentType classifies which attachment an upload affordance expects.
type DocumentType string

const (
	DocumentResume      DocumentType = "resume"
	DocumentCoverLetter DocumentType = "cover_letter"
	DocumentCertificate DocumentType = "certificate"
	DocumentPhoto       DocumentType = "photo"
)

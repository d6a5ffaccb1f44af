package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/playwright-community/playwright-go"

	"applyflow/models"
)

// maxTabPresses bounds the keyboard walk so pages with focus traps
// cannot stall a run.
const maxTabPresses = 50

// FocusProber discovers interactive elements by walking the page's tab
// order. It presses Tab repeatedly and records whatever receives focus,
// which surfaces custom widgets that render no recognizable form markup.
type FocusProber struct{}

func NewFocusProber() *FocusProber {
	return &FocusProber{}
}

const activeElementScript = `() => {
	const el = document.activeElement;
	if (!el || el === document.body) {
		return JSON.stringify({ terminal: true });
	}
	let selector = el.tagName.toLowerCase();
	if (el.id) {
		selector = '#' + CSS.escape(el.id);
	} else if (el.getAttribute('name')) {
		selector = selector + '[name="' + el.getAttribute('name') + '"]';
	}
	const rect = el.getBoundingClientRect();
	return JSON.stringify({
		terminal: false,
		selector: selector,
		tag: el.tagName.toLowerCase(),
		id: el.id || '',
		name: el.getAttribute('name') || '',
		className: (typeof el.className === 'string') ? el.className : '',
		role: el.getAttribute('role') || '',
		ariaLabel: el.getAttribute('aria-label') || '',
		inputType: el.getAttribute('type') || '',
		text: (el.textContent || '').trim().slice(0, 120),
		x: rect.x, y: rect.y, width: rect.width, height: rect.height,
	});
}`

type focusedElement struct {
	Terminal  bool    `json:"terminal"`
	Selector  string  `json:"selector"`
	Tag       string  `json:"tag"`
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ClassName string  `json:"className"`
	Role      string  `json:"role"`
	AriaLabel string  `json:"ariaLabel"`
	InputType string  `json:"inputType"`
	Text      string  `json:"text"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

// Probe walks the tab order of the main frame and returns every element
// that took focus, in encounter order. It stops at the press budget, when
// focus returns to the body, or when the same element keeps focus twice
// in a row. Probing is non-destructive: it only presses Tab.
func (fp *FocusProber) Probe(ctx context.Context, page playwright.Page) ([]*models.FormField, error) {
	// Reset focus so the walk starts from the top of the document.
	if _, err := page.Evaluate(`() => { if (document.activeElement) document.activeElement.blur(); }`); err != nil {
		return nil, fmt.Errorf("resetting focus: %w", err)
	}

	var fields []*models.FormField
	seen := make(map[string]bool)
	lastKey := ""
	// Matches the frame URL the DOM scanner records for main-frame
	// fields, so dedup keys line up across sources.
	frameURL := page.MainFrame().URL()

	for i := 0; i < maxTabPresses; i++ {
		if err := ctx.Err(); err != nil {
			return fields, err
		}
		if err := page.Keyboard().Press("Tab"); err != nil {
			return fields, fmt.Errorf("pressing Tab: %w", err)
		}

		raw, err := page.Evaluate(activeElementScript)
		if err != nil {
			return fields, fmt.Errorf("reading focused element: %w", err)
		}
		payload, ok := raw.(string)
		if !ok {
			return fields, fmt.Errorf("unexpected focus payload type %T", raw)
		}
		var el focusedElement
		if err := json.Unmarshal([]byte(payload), &el); err != nil {
			return fields, fmt.Errorf("decoding focused element: %w", err)
		}
		if el.Terminal {
			break
		}

		field := &models.FormField{
			Selector:   el.Selector,
			FrameURL:   frameURL,
			Tag:        el.Tag,
			InputType:  el.InputType,
			FieldType:  models.FieldTypeUnknown,
			Label:      el.Text,
			Name:       el.Name,
			ID:         el.ID,
			ClassName:  el.ClassName,
			Role:       el.Role,
			AriaLabel:  el.AriaLabel,
			Confidence: 0.5,
			Source:     models.SourceFocusOrder,
			Position:   models.Rect{X: el.X, Y: el.Y, Width: el.Width, Height: el.Height},
		}
		key := field.IdentityKey()
		if key == lastKey {
			// Focus trap: the same element kept focus across a Tab press.
			break
		}
		lastKey = key
		if seen[key] {
			// Wrapped back around to the start of the tab cycle.
			break
		}
		seen[key] = true
		fields = append(fields, field)
	}

	log.Printf("Focus-order probe found %d interactive elements", len(fields))
	return fields, nil
}

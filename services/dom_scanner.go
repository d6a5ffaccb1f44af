package services

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/playwright-community/playwright-go"

	"applyflow/models"
)

// DOMScanner enumerates visible interactive elements across the main
// document and every nested frame. Each frame is scanned independently;
// a frame that cannot be evaluated (cross-origin, detached mid-scan) is
// logged and skipped without aborting the others.
type DOMScanner struct {
	classifier *FieldClassifier
	scanScript string
}

func NewDOMScanner(classifier *FieldClassifier) *DOMScanner {
	keywords, _ := json.Marshal(classifier.UploadKeywordList())
	return &DOMScanner{
		classifier: classifier,
		scanScript: fmt.Sprintf(domScanScript, keywords),
	}
}

// rawDOMElement mirrors the JSON payload produced by the in-page script.
type rawDOMElement struct {
	Tag         string      `json:"tag"`
	Type        string      `json:"type"`
	Name        string      `json:"name"`
	ID          string      `json:"id"`
	ClassName   string      `json:"className"`
	Role        string      `json:"role"`
	AriaLabel   string      `json:"ariaLabel"`
	Placeholder string      `json:"placeholder"`
	Required    bool        `json:"required"`
	Label       string      `json:"label"`
	Options     []string    `json:"options"`
	Selector    string      `json:"selector"`
	Clickable   bool        `json:"clickable"`
	Position    models.Rect `json:"position"`
}

// The scan script runs inside one frame; the upload keyword list is
// injected at construction. Label resolution order: label[for=id],
// aria-label, placeholder, then the nearest ancestor's visible text
// stripped of the element's own text and truncated. Besides native form
// controls the script collects clickable elements (buttons, role=button,
// links, labels, dropzone-classed containers) whose text or attributes
// match an upload keyword, so styled upload widgets enter the evidence
// even when they are not keyboard-focusable.
const domScanScript = `() => {
	const controls = Array.from(document.querySelectorAll('input, textarea, select'));
	const uploadWords = %s;
	const elements = [];

	const labelFor = (el) => {
		if (el.id) {
			const lbl = document.querySelector('label[for="' + CSS.escape(el.id) + '"]');
			if (lbl && lbl.textContent.trim()) return lbl.textContent.trim();
		}
		if (el.getAttribute('aria-label')) return el.getAttribute('aria-label').trim();
		if (el.placeholder) return el.placeholder.trim();
		let parent = el.parentElement;
		for (let depth = 0; parent && depth < 3; depth++) {
			const text = parent.textContent.replace(el.value || '', '').trim();
			if (text) return text.substring(0, 120);
			parent = parent.parentElement;
		}
		return '';
	};

	const cssSelector = (el) => {
		if (el.id) return el.tagName.toLowerCase() + '#' + CSS.escape(el.id);
		if (el.name) return el.tagName.toLowerCase() + '[name="' + el.name + '"]';
		const sameTag = Array.from(document.querySelectorAll(el.tagName.toLowerCase()));
		return el.tagName.toLowerCase() + ':nth-of-type(' + (sameTag.indexOf(el) + 1) + ')';
	};

	controls.forEach((el) => {
		const rect = el.getBoundingClientRect();
		if (rect.width === 0 || rect.height === 0) return;

		let options = [];
		if (el.tagName.toLowerCase() === 'select') {
			options = Array.from(el.options).map(o => o.textContent.trim());
		}

		elements.push({
			tag: el.tagName.toLowerCase(),
			type: el.getAttribute('type') || '',
			name: el.name || '',
			id: el.id || '',
			className: (typeof el.className === 'string' ? el.className : '') || '',
			role: el.getAttribute('role') || '',
			ariaLabel: el.getAttribute('aria-label') || '',
			placeholder: el.placeholder || '',
			required: el.required || el.getAttribute('aria-required') === 'true',
			label: labelFor(el),
			options: options,
			selector: cssSelector(el),
			clickable: false,
			position: {
				x: Math.round(rect.left),
				y: Math.round(rect.top),
				width: Math.round(rect.width),
				height: Math.round(rect.height)
			}
		});
	});

	const matchesUpload = (el) => {
		const hay = ((el.textContent || '') + ' ' +
			(typeof el.className === 'string' ? el.className : '') + ' ' +
			(el.id || '') + ' ' +
			(el.getAttribute('aria-label') || '')).toLowerCase();
		return uploadWords.some(w => hay.includes(w));
	};

	const clickables = Array.from(document.querySelectorAll(
		'button, [role="button"], a, label, [class*="upload"], [class*="dropzone"], [class*="attach"]'));
	const seenClickable = new Set();
	clickables.forEach((el) => {
		if (el.tagName.toLowerCase() === 'input' || el.tagName.toLowerCase() === 'select' ||
			el.tagName.toLowerCase() === 'textarea') return;
		if (seenClickable.has(el) || !matchesUpload(el)) return;
		seenClickable.add(el);
		const rect = el.getBoundingClientRect();
		if (rect.width === 0 || rect.height === 0) return;

		elements.push({
			tag: el.tagName.toLowerCase(),
			type: '',
			name: el.getAttribute('name') || '',
			id: el.id || '',
			className: (typeof el.className === 'string' ? el.className : '') || '',
			role: el.getAttribute('role') || '',
			ariaLabel: el.getAttribute('aria-label') || '',
			placeholder: '',
			required: false,
			label: (el.textContent || '').trim().substring(0, 120),
			options: [],
			selector: cssSelector(el),
			clickable: true,
			position: {
				x: Math.round(rect.left),
				y: Math.round(rect.top),
				width: Math.round(rect.width),
				height: Math.round(rect.height)
			}
		});
	});

	return JSON.stringify(elements);
}`

// Scan walks every frame of the page and returns candidate fields with
// source=dom, deduplicated per frame identity.
func (s *DOMScanner) Scan(page playwright.Page) []*models.FormField {
	var fields []*models.FormField

	for _, frame := range page.Frames() {
		frameFields, err := s.scanFrame(frame)
		if err != nil {
			log.Printf("DOM scan skipped frame %s: %v", frame.URL(), err)
			continue
		}
		fields = append(fields, frameFields...)
	}

	log.Printf("DOM scan found %d visible form elements across %d frames", len(fields), len(page.Frames()))
	return fields
}

func (s *DOMScanner) scanFrame(frame playwright.Frame) ([]*models.FormField, error) {
	result, err := frame.Evaluate(s.scanScript)
	if err != nil {
		return nil, fmt.Errorf("frame evaluate failed: %w", err)
	}

	payload, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected scan payload type %T", result)
	}

	var raw []rawDOMElement
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode scan payload: %w", err)
	}

	return s.convert(raw, frame.URL()), nil
}

// convert turns raw descriptors into classified FormFields. No field is
// reported twice for the same frame identity.
func (s *DOMScanner) convert(raw []rawDOMElement, frameURL string) []*models.FormField {
	seen := make(map[string]bool)
	var fields []*models.FormField

	for _, el := range raw {
		field := &models.FormField{
			Selector:    el.Selector,
			FrameURL:    frameURL,
			Tag:         el.Tag,
			InputType:   el.Type,
			Label:       el.Label,
			Placeholder: el.Placeholder,
			Name:        el.Name,
			ID:          el.ID,
			ClassName:   el.ClassName,
			Role:        el.Role,
			AriaLabel:   el.AriaLabel,
			Required:    el.Required,
			Options:     el.Options,
			Source:      models.SourceDOM,
			Position:    el.Position,
		}
		if el.Clickable {
			// Upload-looking clickables carry no widget semantics; the
			// form driver must never type into them.
			field.FieldType = models.FieldTypeUnknown
		} else {
			field.FieldType = s.classifier.ClassifyType(el.Tag, el.Type, field.DescribeText())
		}

		if path, _ := s.classifier.InferPurpose(field.DescribeText()); path != "" {
			field.Purpose = path
		}

		key := field.IdentityKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		fields = append(fields, field)
	}
	return fields
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/playwright-community/playwright-go"

	"applyflow/models"
)

// FillState tracks one field attempt through its lifecycle.
type FillState string

const (
	FillPending    FillState = "pending"
	FillAttempting FillState = "attempting"
	FillFilled     FillState = "filled"
	FillSkipped    FillState = "skipped"
	FillFailed     FillState = "failed"
)

// FieldOutcome records what happened to one mapped field. Failures are
// per-field: one stubborn widget never aborts the rest of the form.
type FieldOutcome struct {
	Field *models.FormField `json:"field"`
	Value string            `json:"value"`
	State FillState         `json:"state"`
	Error string            `json:"error,omitempty"`
}

// SubmitResult reports the outcome of the submission cascade.
type SubmitResult struct {
	Attempted bool   `json:"attempted"`
	Strategy  string `json:"strategy,omitempty"`
	Verified  bool   `json:"verified"`
}

// FormDriver types mapped values into a live page with human-like pacing
// and runs the submission cascade afterwards.
type FormDriver struct {
	pacing  *PacingPolicy
	checker *SubmissionChecker
}

func NewFormDriver(pacing *PacingPolicy, checker *SubmissionChecker) *FormDriver {
	return &FormDriver{pacing: pacing, checker: checker}
}

// FillFields applies each mapping in order. File fields are skipped here;
// the upload resolver owns attachments. Outcomes come back in mapping
// order, one per mapping, whatever happened.
func (fd *FormDriver) FillFields(ctx context.Context, page playwright.Page, mappings []*models.FieldMapping) []FieldOutcome {
	outcomes := make([]FieldOutcome, 0, len(mappings))
	for _, m := range mappings {
		outcome := FieldOutcome{Field: m.FormField, Value: m.CVValue, State: FillPending}
		if err := ctx.Err(); err != nil {
			outcome.State = FillSkipped
			outcome.Error = err.Error()
			outcomes = append(outcomes, outcome)
			continue
		}

		outcome.State = FillAttempting
		if err := fd.fillOne(ctx, page, m); errors.Is(err, errValueNotAffirmative) {
			outcome.State = FillSkipped
			outcome.Error = err.Error()
			log.Printf("Left %s untouched: %v", m.FormField.Selector, err)
		} else if err != nil {
			outcome.State = FillFailed
			outcome.Error = err.Error()
			log.Printf("⚠ Could not fill %s (%s): %v", m.FormField.Selector, m.FormField.Label, err)
		} else {
			outcome.State = FillFilled
			log.Printf("✓ Filled %s from %s", m.FormField.Selector, m.CVSourcePath)
		}
		outcomes = append(outcomes, outcome)

		fd.pacing.Sleep(ctx, fd.pacing.ActionPause())
	}
	return outcomes
}

func (fd *FormDriver) fillOne(ctx context.Context, page playwright.Page, m *models.FieldMapping) error {
	field := m.FormField
	if field.FieldType == models.FieldTypeFile {
		return fmt.Errorf("file fields are handled by the upload resolver")
	}
	frame := frameFor(page, field)
	element := frame.Locator(field.Selector).First()

	visible, err := element.IsVisible()
	if err != nil {
		return fmt.Errorf("locating element: %w", err)
	}
	if !visible {
		return fmt.Errorf("element not visible")
	}
	if enabled, _ := element.IsEnabled(); !enabled {
		return fmt.Errorf("element disabled")
	}

	switch field.FieldType {
	case models.FieldTypeSelect:
		return fd.fillSelect(element, field, m.CVValue)
	case models.FieldTypeCheckbox:
		return fd.fillCheckbox(element, m.CVValue)
	case models.FieldTypeRadio:
		return element.Check()
	default:
		return fd.typeText(ctx, page, element, m.CVValue)
	}
}

// typeText clicks, clears and types character by character with random
// per-keystroke delays, then blurs so the page's change handlers run.
func (fd *FormDriver) typeText(ctx context.Context, page playwright.Page, element playwright.Locator, value string) error {
	if err := element.Click(); err != nil {
		return fmt.Errorf("focusing element: %w", err)
	}
	if err := element.Clear(); err != nil {
		return fmt.Errorf("clearing element: %w", err)
	}
	for _, r := range value {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := page.Keyboard().Type(string(r)); err != nil {
			return fmt.Errorf("typing: %w", err)
		}
		fd.pacing.Sleep(ctx, fd.pacing.TypingDelay())
	}
	if err := element.Blur(); err != nil {
		return fmt.Errorf("blurring element: %w", err)
	}
	fd.pacing.Sleep(ctx, fd.pacing.Settle())
	return nil
}

// fillSelect tries an exact value match first, then a case-insensitive
// match against the detected option list, then the label.
func (fd *FormDriver) fillSelect(element playwright.Locator, field *models.FormField, value string) error {
	if _, err := element.SelectOption(playwright.SelectOptionValues{Values: &[]string{value}}); err == nil {
		return nil
	}
	for _, opt := range field.Options {
		if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(value)) {
			if _, err := element.SelectOption(playwright.SelectOptionValues{Values: &[]string{opt}}); err == nil {
				return nil
			}
			if _, err := element.SelectOption(playwright.SelectOptionValues{Labels: &[]string{opt}}); err == nil {
				return nil
			}
		}
	}
	if _, err := element.SelectOption(playwright.SelectOptionValues{Labels: &[]string{value}}); err != nil {
		return fmt.Errorf("no option matches %q: %w", value, err)
	}
	return nil
}

// Affirmative tokens across the supported languages; anything else
// leaves the checkbox untouched.
var truthyTokens = map[string]bool{
	"true": true, "yes": true, "1": true, "on": true, "ja": true, "tak": true,
}

// errValueNotAffirmative marks a checkbox mapping whose value did not
// ask for a check. Nothing was done, so the outcome is a skip, not a
// fill.
var errValueNotAffirmative = errors.New("value is not affirmative, checkbox left untouched")

func (fd *FormDriver) fillCheckbox(element playwright.Locator, value string) error {
	if !truthyTokens[strings.ToLower(strings.TrimSpace(value))] {
		return errValueNotAffirmative
	}
	return element.Check()
}

// frameFor resolves the frame a field was detected in; fields without a
// frame URL (or whose frame has since gone away) fall back to the main
// frame.
func frameFor(page playwright.Page, field *models.FormField) playwright.Frame {
	if field.FrameURL != "" {
		for _, f := range page.Frames() {
			if f.URL() == field.FrameURL {
				return f
			}
		}
	}
	return page.MainFrame()
}

// submitStrategy is one rung of the submission cascade.
type submitStrategy struct {
	name string
	run  func(fd *FormDriver, page playwright.Page, hints submitHints) (bool, error)
}

type submitHints struct {
	extraSelectors []string
	lastField      *models.FormField
}

// The cascade runs in this fixed order; later strategies are blunter.
func submitStrategies() []submitStrategy {
	return []submitStrategy{
		{"frame_form_submit", (*FormDriver).submitFrameForm},
		{"main_form_submit", (*FormDriver).submitMainForm},
		{"submit_button", (*FormDriver).submitButton},
		{"clickable_keyword", (*FormDriver).submitClickableKeyword},
		{"enter_in_last_field", (*FormDriver).submitEnterKey},
		{"js_form_submit", (*FormDriver).submitViaJS},
	}
}

// Submit attempts the cascade until one strategy performs an action, then
// verifies the result. An attempted-but-unverified submission is still
// reported as attempted: many boards never show an on-page confirmation.
func (fd *FormDriver) Submit(ctx context.Context, page playwright.Page, extraSelectors []string, lastField *models.FormField) SubmitResult {
	hints := submitHints{extraSelectors: extraSelectors, lastField: lastField}
	for _, strategy := range submitStrategies() {
		if ctx.Err() != nil {
			return SubmitResult{}
		}
		acted, err := strategy.run(fd, page, hints)
		if err != nil {
			log.Printf("Submit strategy %s errored: %v", strategy.name, err)
			continue
		}
		if !acted {
			continue
		}
		log.Printf("✓ Submit strategy %s performed an action", strategy.name)
		fd.pacing.Sleep(ctx, fd.pacing.Settle())
		page.WaitForTimeout(2000)
		return SubmitResult{
			Attempted: true,
			Strategy:  strategy.name,
			Verified:  fd.checker.CheckForSuccess(page),
		}
	}
	log.Printf("⚠ No submit strategy could act on this page")
	return SubmitResult{}
}

func (fd *FormDriver) submitFrameForm(page playwright.Page, _ submitHints) (bool, error) {
	for _, frame := range page.Frames() {
		if frame == page.MainFrame() {
			continue
		}
		btn := frame.Locator("form button[type='submit'], form input[type='submit']").First()
		if visible, _ := btn.IsVisible(); visible {
			if err := btn.Click(); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

func (fd *FormDriver) submitMainForm(page playwright.Page, _ submitHints) (bool, error) {
	btn := page.Locator("form button[type='submit'], form input[type='submit']").First()
	if visible, _ := btn.IsVisible(); !visible {
		return false, nil
	}
	if err := btn.Click(); err != nil {
		return false, err
	}
	return true, nil
}

// defaultSubmitSelectors covers the button phrasings seen on English,
// German and Polish application pages.
var defaultSubmitSelectors = []string{
	"button[type='submit']",
	"input[type='submit']",
	"button:has-text('Submit')",
	"button:has-text('Apply')",
	"button:has-text('Send application')",
	"button:has-text('Jetzt bewerben')",
	"button:has-text('Bewerben')",
	"button:has-text('Absenden')",
	"button:has-text('Aplikuj')",
	"button:has-text('Wyślij')",
	"[role='button']:has-text('Apply')",
	"a:has-text('Apply now')",
}

func (fd *FormDriver) submitButton(page playwright.Page, hints submitHints) (bool, error) {
	selectors := append(append([]string{}, hints.extraSelectors...), defaultSubmitSelectors...)
	for _, selector := range selectors {
		btn := page.Locator(selector).First()
		visible, _ := btn.IsVisible()
		if !visible {
			continue
		}
		if enabled, _ := btn.IsEnabled(); !enabled {
			continue
		}
		if err := btn.Click(); err != nil {
			continue
		}
		return true, nil
	}
	return false, nil
}

var submitTextKeywords = []string{
	"submit", "apply", "send", "bewerben", "absenden", "senden", "aplikuj", "wyślij",
}

func (fd *FormDriver) submitClickableKeyword(page playwright.Page, _ submitHints) (bool, error) {
	clickables, err := page.Locator("button, a, [role='button']").All()
	if err != nil {
		return false, err
	}
	for _, c := range clickables {
		visible, _ := c.IsVisible()
		if !visible {
			continue
		}
		text, _ := c.TextContent()
		lower := strings.ToLower(text)
		for _, kw := range submitTextKeywords {
			if strings.Contains(lower, kw) {
				if err := c.Click(); err == nil {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

func (fd *FormDriver) submitEnterKey(page playwright.Page, hints submitHints) (bool, error) {
	if hints.lastField == nil || hints.lastField.Selector == "" {
		return false, nil
	}
	element := frameFor(page, hints.lastField).Locator(hints.lastField.Selector).First()
	if visible, _ := element.IsVisible(); !visible {
		return false, nil
	}
	if err := element.Click(); err != nil {
		return false, err
	}
	if err := page.Keyboard().Press("Enter"); err != nil {
		return false, err
	}
	return true, nil
}

func (fd *FormDriver) submitViaJS(page playwright.Page, _ submitHints) (bool, error) {
	result, err := page.Evaluate(`() => {
		const form = document.querySelector('form');
		if (!form) return false;
		form.submit();
		return true;
	}`)
	if err != nil {
		return false, err
	}
	acted, _ := result.(bool)
	return acted, nil
}

package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/playwright-community/playwright-go"

	"applyflow/models"
)

// UploadOutcome records one attachment attempt.
type UploadOutcome struct {
	DocumentType models.DocumentType `json:"document_type"`
	FilePath     string              `json:"file_path,omitempty"`
	Field        *models.FormField   `json:"field,omitempty"`
	Uploaded     bool                `json:"uploaded"`
	Verified     bool                `json:"verified"`
	Skipped      bool                `json:"skipped"`
	Reason       string              `json:"reason,omitempty"`
}

// uploadCandidate pairs a detected upload control with the mechanism we
// would use to feed it a file.
type uploadCandidate struct {
	field      *models.FormField
	docType    models.DocumentType
	mechanism  string // direct, chooser, coordinate
	confidence float64
}

// UploadResolver matches detected upload controls to the documents on
// disk and gets the files into them. Native file inputs take files
// directly; styled widgets go through the file-chooser event; purely
// visual sightings fall back to a coordinate click.
type UploadResolver struct {
	attachments *AttachmentStore
	classifier  *FieldClassifier
	pacing      *PacingPolicy
}

func NewUploadResolver(attachments *AttachmentStore, classifier *FieldClassifier, pacing *PacingPolicy) *UploadResolver {
	return &UploadResolver{attachments: attachments, classifier: classifier, pacing: pacing}
}

// ResolveUploads walks the detected fields for upload controls and
// attaches the matching documents. Each document type is uploaded at
// most once; a missing file on disk is a skip with a warning, never an
// error.
func (ur *UploadResolver) ResolveUploads(ctx context.Context, page playwright.Page, fields []*models.FormField) []UploadOutcome {
	candidates := ur.collectCandidates(fields)
	if len(candidates) == 0 {
		log.Printf("No upload controls detected")
		return nil
	}

	var outcomes []UploadOutcome
	done := make(map[models.DocumentType]bool)

	for _, cand := range candidates {
		if ctx.Err() != nil {
			break
		}
		if done[cand.docType] {
			continue
		}

		outcome := UploadOutcome{DocumentType: cand.docType, Field: cand.field}
		path, ok := ur.attachments.Resolve(cand.docType)
		if !ok {
			outcome.Skipped = true
			outcome.Reason = "no matching file in the attachments directory"
			log.Printf("⚠ Upload control asks for %s but no file is available, skipping", cand.docType)
			outcomes = append(outcomes, outcome)
			continue
		}
		outcome.FilePath = path

		var err error
		switch cand.mechanism {
		case "direct":
			err = ur.uploadDirect(page, cand.field, path)
		case "chooser":
			err = ur.uploadViaChooser(page, cand.field, path)
		case "coordinate":
			err = ur.uploadViaCoordinates(page, cand.field, path)
		}
		if err != nil {
			outcome.Reason = err.Error()
			log.Printf("⚠ Upload of %s via %s failed: %v", cand.docType, cand.mechanism, err)
			outcomes = append(outcomes, outcome)
			continue
		}

		outcome.Uploaded = true
		outcome.Verified = ur.verifyUpload(page, path)
		done[cand.docType] = true
		log.Printf("✓ Uploaded %s (%s) via %s", cand.docType, filepath.Base(path), cand.mechanism)
		outcomes = append(outcomes, outcome)

		ur.pacing.Sleep(ctx, ur.pacing.ActionPause())
	}
	return outcomes
}

// collectCandidates keeps upload-shaped fields ordered by how reliably
// we can drive them: native inputs first, styled clickables next, visual
// sightings last.
func (ur *UploadResolver) collectCandidates(fields []*models.FormField) []uploadCandidate {
	var direct, chooser, coordinate []uploadCandidate
	for _, f := range fields {
		docType := ur.classifier.ClassifyDocumentType(f.DescribeText())
		switch {
		case f.FieldType == models.FieldTypeFile && f.Selector != "":
			direct = append(direct, uploadCandidate{f, docType, "direct", 1.0})
		case f.Selector != "" && ur.classifier.IsUploadAffordance(f.DescribeText()):
			chooser = append(chooser, uploadCandidate{f, docType, "chooser", 0.8})
		case f.Source == models.SourceVisual && f.FieldType == models.FieldTypeFile && f.Position.Width > 0:
			coordinate = append(coordinate, uploadCandidate{f, docType, "coordinate", 0.9})
		}
	}
	return append(append(direct, chooser...), coordinate...)
}

func (ur *UploadResolver) uploadDirect(page playwright.Page, field *models.FormField, path string) error {
	element := frameFor(page, field).Locator(field.Selector).First()
	if err := element.SetInputFiles(path); err != nil {
		return fmt.Errorf("setting input files: %w", err)
	}
	return nil
}

// uploadViaChooser clicks a styled upload widget and feeds the file
// chooser it opens. Widgets that open a custom dialog instead of a
// native chooser fail here with a timeout and are reported as such.
func (ur *UploadResolver) uploadViaChooser(page playwright.Page, field *models.FormField, path string) error {
	element := frameFor(page, field).Locator(field.Selector).First()
	chooser, err := page.ExpectFileChooser(func() error {
		return element.Click()
	})
	if err != nil {
		return fmt.Errorf("waiting for file chooser: %w", err)
	}
	if err := chooser.SetFiles(path); err != nil {
		return fmt.Errorf("feeding file chooser: %w", err)
	}
	return nil
}

func (ur *UploadResolver) uploadViaCoordinates(page playwright.Page, field *models.FormField, path string) error {
	x, y := field.Position.Center()
	chooser, err := page.ExpectFileChooser(func() error {
		return page.Mouse().Click(x, y)
	})
	if err != nil {
		return fmt.Errorf("no file chooser opened at (%.0f, %.0f): %w", x, y, err)
	}
	if err := chooser.SetFiles(path); err != nil {
		return fmt.Errorf("feeding file chooser: %w", err)
	}
	return nil
}

// verifyUpload looks for the uploaded filename somewhere on the page.
// Best effort: many widgets never echo the filename, so a false result
// only means unverified.
func (ur *UploadResolver) verifyUpload(page playwright.Page, path string) bool {
	name := filepath.Base(path)
	element := page.Locator(fmt.Sprintf("text=%s", name)).First()
	if visible, _ := element.IsVisible(); visible {
		return true
	}
	// Some widgets show the name without the extension.
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	element = page.Locator(fmt.Sprintf("text=%s", stem)).First()
	visible, _ := element.IsVisible()
	return visible
}

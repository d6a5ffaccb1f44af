package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"applyflow/models"
)

func TestResultToRecord(t *testing.T) {
	result := &ApplicationResult{
		RunID:          "run-1",
		JobURL:         "https://jobs.example.com/123",
		Success:        true,
		Status:         StatusSubmitted,
		SubmitStrategy: "submit_button",
		Screenshots:    []string{"screenshots/run-1/initial_1.png"},
		FilledFields: []FieldOutcome{
			{Field: &models.FormField{Selector: "#email"}, State: FillFilled},
			{Field: &models.FormField{Selector: "#phone"}, State: FillFailed},
			{Field: &models.FormField{Selector: "#name"}, State: FillFilled},
		},
		UnmappedFields: []string{"favorite dinosaur"},
	}

	record := result.ToRecord()

	assert.Equal(t, "run-1", record.RunID)
	assert.Equal(t, StatusSubmitted, record.Status)
	assert.True(t, record.Success)
	// Only actually-filled fields count; failures do not.
	assert.Equal(t, 2, record.FilledCount)
	assert.Equal(t, 1, record.UnmappedCount)
	assert.Equal(t, []string{"screenshots/run-1/initial_1.png"}, record.ScreenshotKeys)
}

func TestRunStatusConstants(t *testing.T) {
	// Persisted values; renaming them silently breaks stored history.
	assert.Equal(t, "submitted", StatusSubmitted)
	assert.Equal(t, "attempted_unverified", StatusAttemptedUnverified)
	assert.Equal(t, "no_submit_path", StatusNoSubmitPath)
	assert.Equal(t, "setup_failed", StatusSetupFailed)
	assert.Equal(t, "navigation_failed", StatusNavigationFailed)
	assert.Equal(t, "cancelled", StatusCancelled)
}

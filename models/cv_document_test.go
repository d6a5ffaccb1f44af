package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCV() *CVDocument {
	return &CVDocument{
		PersonalInfo: map[string]string{
			"name":     "Anna Kowalska",
			"email":    "anna.kowalska@example.com",
			"phone":    "+48 123 456 789",
			"location": "ul. Długa 5, Warszawa, Poland",
			"linkedin": "https://linkedin.com/in/annakowalska",
		},
		ProfessionalSummary: "Backend engineer with seven years of Go experience.",
		WorkExperience: []WorkExperience{
			{Position: "Senior Engineer", Company: "Acme Sp. z o.o.", StartDate: "2021", EndDate: "present"},
			{Position: "Engineer", Company: "Widgets GmbH", StartDate: "2018", EndDate: "2021"},
		},
		Education: []Education{
			{Degree: "MSc Computer Science", Institution: "Warsaw University of Technology"},
		},
		Skills: Skills{
			Technical: []string{"Go", "PostgreSQL", "Kubernetes"},
			Languages: []string{"Polish (native)", "English (C1)", "German (B2)"},
		},
		Certifications: []string{"CKA"},
	}
}

func TestLookupPersonalInfo(t *testing.T) {
	cv := sampleCV()

	v, ok := cv.Lookup("personal_info.email")
	assert.True(t, ok)
	assert.Equal(t, "anna.kowalska@example.com", v)

	_, ok = cv.Lookup("personal_info.fax")
	assert.False(t, ok)
}

func TestLookupIndexedExperience(t *testing.T) {
	cv := sampleCV()

	v, ok := cv.Lookup("work_experience.0.position")
	assert.True(t, ok)
	assert.Equal(t, "Senior Engineer", v)

	v, ok = cv.Lookup("work_experience.1.company")
	assert.True(t, ok)
	assert.Equal(t, "Widgets GmbH", v)

	_, ok = cv.Lookup("work_experience.5.position")
	assert.False(t, ok)
}

func TestLookupJoinsLists(t *testing.T) {
	cv := sampleCV()

	v, ok := cv.Lookup("skills.technical")
	assert.True(t, ok)
	assert.Equal(t, "Go, PostgreSQL, Kubernetes", v)

	v, ok = cv.Lookup("skills.languages")
	assert.True(t, ok)
	assert.Contains(t, v, "Polish (native)")
}

func TestLookupWholeExperienceSection(t *testing.T) {
	cv := sampleCV()

	v, ok := cv.Lookup("work_experience")
	assert.True(t, ok)
	assert.Contains(t, v, "Senior Engineer at Acme Sp. z o.o.")
}

func TestLookupUnknownRoot(t *testing.T) {
	_, ok := sampleCV().Lookup("hobbies")
	assert.False(t, ok)
}

func TestValidateRequiresNameOrEmail(t *testing.T) {
	assert.NoError(t, sampleCV().Validate())

	empty := &CVDocument{PersonalInfo: map[string]string{}}
	assert.Error(t, empty.Validate())

	emailOnly := &CVDocument{PersonalInfo: map[string]string{"email": "x@example.com"}}
	assert.NoError(t, emailOnly.Validate())
}

func TestNameSplitting(t *testing.T) {
	cv := sampleCV()
	assert.Equal(t, "Anna", cv.FirstName())
	assert.Equal(t, "Kowalska", cv.LastName())

	cv.PersonalInfo["name"] = "Jan Maria van der Berg"
	assert.Equal(t, "Jan", cv.FirstName())
	assert.Equal(t, "Maria van der Berg", cv.LastName())
}

func TestLoadCVDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"personal_info": {"name": "Test Person", "email": "t@example.com"},
		"professional_summary": "Summary."
	}`), 0o644))

	cv, err := LoadCVDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "Test Person", cv.PersonalInfo["name"])
	assert.NoError(t, cv.Validate())

	_, err = LoadCVDocument(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

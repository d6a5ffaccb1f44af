package models

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// CVDocument is the structured candidate profile produced by the external
// CV parser. It is loaded once per application run and never mutated by
// the automation pipeline.
type CVDocument struct {
	PersonalInfo        map[string]string `json:"personal_info"`
	ProfessionalSummary string            `json:"professional_summary"`
	WorkExperience      []WorkExperience  `json:"work_experience"`
	Education           []Education       `json:"education"`
	Skills              Skills            `json:"skills"`
	Certifications      []string          `json:"certifications"`
	Projects            []string          `json:"projects"`
}

type WorkExperience struct {
	Position    string `json:"position"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

type Education struct {
	Degree         string `json:"degree"`
	Institution    string `json:"institution"`
	Location       string `json:"location"`
	GraduationDate string `json:"graduation_date"`
}

type Skills struct {
	Technical  []string `json:"technical"`
	Languages  []string `json:"languages"`
	SoftSkills []string `json:"soft_skills"`
}

// LoadCVDocument reads a profile JSON file from disk.
func LoadCVDocument(path string) (*CVDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var doc CVDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	if doc.PersonalInfo == nil {
		doc.PersonalInfo = map[string]string{}
	}
	return &doc, nil
}

// Validate checks that the minimum data needed to attempt an application
// is present. A profile with no name and no email cannot fill anything
// useful, so treat it as a fatal setup error.
func (d *CVDocument) Validate() error {
	if d.PersonalInfo["name"] == "" && d.PersonalInfo["email"] == "" {
		return fmt.Errorf("profile is missing personal_info.name and personal_info.email")
	}
	return nil
}

// Lookup resolves a dotted path into the document and returns the value as
// a flat string. List-valued paths (skills.*, certifications, projects)
// are comma-joined. Numeric segments index into sequences, e.g.
// "work_experience.0.position". Returns false when the path is absent or
// resolves to an empty value.
func (d *CVDocument) Lookup(path string) (string, bool) {
	parts := strings.Split(path, ".")
	if len(parts) == 0 {
		return "", false
	}

	switch parts[0] {
	case "personal_info":
		if len(parts) < 2 {
			return "", false
		}
		return nonEmpty(d.PersonalInfo[parts[1]])

	case "professional_summary":
		return nonEmpty(d.ProfessionalSummary)

	case "work_experience":
		return d.lookupExperience(parts[1:])

	case "education":
		return d.lookupEducation(parts[1:])

	case "skills":
		if len(parts) < 2 {
			return "", false
		}
		switch parts[1] {
		case "technical":
			return nonEmpty(strings.Join(d.Skills.Technical, ", "))
		case "languages":
			return nonEmpty(strings.Join(d.Skills.Languages, ", "))
		case "soft_skills":
			return nonEmpty(strings.Join(d.Skills.SoftSkills, ", "))
		}
		return "", false

	case "certifications":
		return nonEmpty(strings.Join(d.Certifications, ", "))

	case "projects":
		return nonEmpty(strings.Join(d.Projects, ", "))
	}

	return "", false
}

func (d *CVDocument) lookupExperience(parts []string) (string, bool) {
	if len(d.WorkExperience) == 0 {
		return "", false
	}
	if len(parts) == 0 {
		// Whole-section request: summarize the most recent entry.
		e := d.WorkExperience[0]
		return nonEmpty(fmt.Sprintf("%s at %s (%s - %s)", e.Position, e.Company, e.StartDate, e.EndDate))
	}

	idx, err := strconv.Atoi(parts[0])
	if err != nil || idx < 0 || idx >= len(d.WorkExperience) {
		return "", false
	}
	e := d.WorkExperience[idx]
	if len(parts) < 2 {
		return nonEmpty(fmt.Sprintf("%s at %s", e.Position, e.Company))
	}
	switch parts[1] {
	case "position":
		return nonEmpty(e.Position)
	case "company":
		return nonEmpty(e.Company)
	case "location":
		return nonEmpty(e.Location)
	case "start_date":
		return nonEmpty(e.StartDate)
	case "end_date":
		return nonEmpty(e.EndDate)
	case "description":
		return nonEmpty(e.Description)
	}
	return "", false
}

func (d *CVDocument) lookupEducation(parts []string) (string, bool) {
	if len(d.Education) == 0 {
		return "", false
	}
	if len(parts) == 0 {
		e := d.Education[0]
		return nonEmpty(fmt.Sprintf("%s, %s", e.Degree, e.Institution))
	}

	idx, err := strconv.Atoi(parts[0])
	if err != nil || idx < 0 || idx >= len(d.Education) {
		return "", false
	}
	e := d.Education[idx]
	if len(parts) < 2 {
		return nonEmpty(fmt.Sprintf("%s, %s", e.Degree, e.Institution))
	}
	switch parts[1] {
	case "degree":
		return nonEmpty(e.Degree)
	case "institution":
		return nonEmpty(e.Institution)
	case "location":
		return nonEmpty(e.Location)
	case "graduation_date":
		return nonEmpty(e.GraduationDate)
	}
	return "", false
}

func nonEmpty(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// FirstName and LastName split personal_info.name on whitespace; forms
// frequently ask for the two halves separately.
func (d *CVDocument) FirstName() string {
	parts := strings.Fields(d.PersonalInfo["name"])
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func (d *CVDocument) LastName() string {
	parts := strings.Fields(d.PersonalInfo["name"])
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[1:], " ")
}

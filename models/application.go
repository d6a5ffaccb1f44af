package models

import (
	"database/sql"
	"strings"
	"time"
)

// Application is one persisted automation attempt against a job URL.
type Application struct {
	ID             int       `json:"id"`
	RunID          string    `json:"run_id"`
	JobURL         string    `json:"job_url"`
	Status         string    `json:"status"`
	Success        bool      `json:"success"`
	SubmitStrategy string    `json:"submit_strategy,omitempty"`
	FilledCount    int       `json:"filled_count"`
	UnmappedCount  int       `json:"unmapped_count"`
	ScreenshotKeys []string  `json:"screenshot_keys,omitempty"`
	ErrorDetails   string    `json:"error_details,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type ApplicationModel struct {
	DB *sql.DB
}

func NewApplicationModel(db *sql.DB) *ApplicationModel {
	return &ApplicationModel{DB: db}
}

func (m *ApplicationModel) CreateTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS applications (
			id SERIAL PRIMARY KEY,
			run_id VARCHAR(64) NOT NULL,
			job_url TEXT NOT NULL,
			status VARCHAR(64) NOT NULL,
			success BOOLEAN NOT NULL DEFAULT FALSE,
			submit_strategy VARCHAR(64),
			filled_count INTEGER NOT NULL DEFAULT 0,
			unmapped_count INTEGER NOT NULL DEFAULT 0,
			screenshot_keys TEXT,
			error_details TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`
	_, err := m.DB.Exec(query)
	return err
}

func (m *ApplicationModel) Create(app *Application) (*Application, error) {
	query := `
		INSERT INTO applications (run_id, job_url, status, success, submit_strategy, filled_count, unmapped_count, screenshot_keys, error_details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`
	err := m.DB.QueryRow(query,
		app.RunID, app.JobURL, app.Status, app.Success, app.SubmitStrategy,
		app.FilledCount, app.UnmappedCount, strings.Join(app.ScreenshotKeys, ","),
		app.ErrorDetails, time.Now(),
	).Scan(&app.ID, &app.CreatedAt)
	if err != nil {
		return nil, err
	}
	return app, nil
}

func (m *ApplicationModel) ListRecent(limit int) ([]Application, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := m.DB.Query(`
		SELECT id, run_id, job_url, status, success, COALESCE(submit_strategy, ''), filled_count, unmapped_count, COALESCE(screenshot_keys, ''), COALESCE(error_details, ''), created_at
		FROM applications ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var app Application
		var keys string
		if err := rows.Scan(&app.ID, &app.RunID, &app.JobURL, &app.Status, &app.Success,
			&app.SubmitStrategy, &app.FilledCount, &app.UnmappedCount, &keys,
			&app.ErrorDetails, &app.CreatedAt); err != nil {
			return nil, err
		}
		if keys != "" {
			app.ScreenshotKeys = strings.Split(keys, ",")
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

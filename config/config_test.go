package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := GetAppConfig()

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "mistral:7b", cfg.LLM.FormModel)
	assert.Equal(t, "llava:7b", cfg.LLM.VisionModel)
	assert.Equal(t, 5*time.Minute, cfg.LLM.GenerateTimeout)
	assert.Equal(t, 10*time.Minute, cfg.LLM.VisionTimeout)
	assert.True(t, cfg.Automation.Headless)
	assert.Equal(t, 60*time.Second, cfg.Automation.NavigateTimeout)
	assert.Equal(t, 20*time.Minute, cfg.Automation.RunBudget)
	assert.Equal(t, "./data", cfg.Automation.DataDir)
	assert.Equal(t, "en", cfg.Automation.Language)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("APPLY_LANGUAGE", "de")
	t.Setenv("RUN_BUDGET", "5m")
	t.Setenv("OLLAMA_BASE_URL", "http://models.internal:11434")

	cfg := GetAppConfig()
	assert.False(t, cfg.Automation.Headless)
	assert.Equal(t, "de", cfg.Automation.Language)
	assert.Equal(t, 5*time.Minute, cfg.Automation.RunBudget)
	assert.Equal(t, "http://models.internal:11434", cfg.LLM.BaseURL)
}

func TestBadEnvValuesFallBack(t *testing.T) {
	t.Setenv("BROWSER_HEADLESS", "maybe")
	t.Setenv("RUN_BUDGET", "soon")

	cfg := GetAutomationConfig()
	assert.True(t, cfg.Headless)
	assert.Equal(t, 20*time.Minute, cfg.RunBudget)
}

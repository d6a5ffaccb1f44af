package config

import (
	"os"
	"strconv"
	"time"
)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// LLMConfig points at the Ollama-compatible generate/chat backend.
type LLMConfig struct {
	BaseURL         string
	FormModel       string
	VisionModel     string
	GenerateTimeout time.Duration
	VisionTimeout   time.Duration
}

// AutomationConfig holds browser-session and pipeline defaults.
type AutomationConfig struct {
	Headless        bool
	SlowMoMS        float64
	NavigateTimeout time.Duration
	ActionTimeout   time.Duration
	RunBudget       time.Duration
	DataDir         string
	Language        string
}

type AppConfig struct {
	Port                 string
	Environment          string
	JWTSecret            string
	OperatorEmail        string
	OperatorPasswordHash string
	Database             DatabaseConfig
	LLM                  LLMConfig
	Automation           AutomationConfig
}

func GetDatabaseConfig() DatabaseConfig {
	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "applyflow"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func GetLLMConfig() LLMConfig {
	return LLMConfig{
		BaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		FormModel:   getEnv("FORM_ANALYZER_MODEL", "mistral:7b"),
		VisionModel: getEnv("VISION_MODEL", "llava:7b"),
		// Vision and generation models are slow; these are deliberately
		// minutes-scale.
		GenerateTimeout: getDurationEnv("LLM_GENERATE_TIMEOUT", 5*time.Minute),
		VisionTimeout:   getDurationEnv("LLM_VISION_TIMEOUT", 10*time.Minute),
	}
}

func GetAutomationConfig() AutomationConfig {
	slowMo, _ := strconv.ParseFloat(getEnv("BROWSER_SLOW_MO_MS", "0"), 64)
	return AutomationConfig{
		Headless:        getBoolEnv("BROWSER_HEADLESS", true),
		SlowMoMS:        slowMo,
		NavigateTimeout: getDurationEnv("NAVIGATE_TIMEOUT", 60*time.Second),
		ActionTimeout:   getDurationEnv("ACTION_TIMEOUT", 10*time.Second),
		RunBudget:       getDurationEnv("RUN_BUDGET", 20*time.Minute),
		DataDir:         getEnv("DATA_DIR", "./data"),
		Language:        getEnv("APPLY_LANGUAGE", "en"),
	}
}

func GetAppConfig() AppConfig {
	return AppConfig{
		Port:                 getEnv("PORT", "8081"),
		Environment:          getEnv("ENVIRONMENT", "development"),
		JWTSecret:            getEnv("JWT_SECRET", "change-me"),
		OperatorEmail:        getEnv("OPERATOR_EMAIL", ""),
		OperatorPasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),
		Database:             GetDatabaseConfig(),
		LLM:                  GetLLMConfig(),
		Automation:           GetAutomationConfig(),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

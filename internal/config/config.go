package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"inkmemory/internal/models"
)

// Config holds all application configuration
type Config struct {
	Port         string
	DatabasePath string
	Environment  string

	// Analysis service configuration
	AnalysisBaseURL string
	AnalysisAPIKey  string
	AnalysisTimeout time.Duration
	// AnalysisRate is the sustained request rate allowed against the
	// analysis service, in requests per second.
	AnalysisRate float64

	// Engine configuration
	EnergyThreshold int

	// Personas file (YAML). Empty means the built-in roster.
	PersonasPath string

	// Nightly report generation hour (0-23, UTC)
	ReportHour int
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8765"),
		DatabasePath: getEnv("DATABASE_PATH", "inkmemory.db"),
		Environment:  getEnv("ENVIRONMENT", "development"),

		AnalysisBaseURL: getEnv("ANALYSIS_BASE_URL", "http://localhost:8080"),
		AnalysisAPIKey:  getEnv("ANALYSIS_API_KEY", ""),
		AnalysisTimeout: time.Duration(getIntEnv("ANALYSIS_TIMEOUT_SECONDS", 35)) * time.Second,
		AnalysisRate:    getFloatEnv("ANALYSIS_RATE_PER_SECOND", 1.0),

		EnergyThreshold: getIntEnv("ENERGY_THRESHOLD", 40),

		PersonasPath: getEnv("PERSONAS_PATH", ""),

		ReportHour: getIntEnv("REPORT_HOUR", 0),
	}
}

// personasFile is the on-disk shape of the personas YAML file.
type personasFile struct {
	Personas []models.Persona `yaml:"personas"`
}

// LoadPersonas loads the voice roster from a YAML file. An empty path
// returns the built-in defaults.
func LoadPersonas(path string) ([]models.Persona, error) {
	if path == "" {
		return models.DefaultPersonas(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read personas file: %w", err)
	}

	var file personasFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse personas YAML: %w", err)
	}

	if len(file.Personas) == 0 {
		return nil, fmt.Errorf("personas file %s defines no personas", path)
	}

	for i, p := range file.Personas {
		if p.ID == "" {
			return nil, fmt.Errorf("persona %d has no id", i)
		}
	}

	return file.Personas, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	OCR    OCRConfig
	LLM    LLMConfig
	Spec   SpecConfig
	Output OutputConfig
	DB     DBConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
}

// OCRConfig holds OCR-boundary configuration (Google Cloud Vision REST).
type OCRConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
	MaxPages int
}

// LLMConfig holds extraction-model configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	RepairJSON  bool
}

// SpecConfig selects the metric-spec variant used to build the extraction
// request. Each variant is configuration data, not a code fork.
type SpecConfig struct {
	ActualYears           int
	ProjectionYears       int
	PreferAdjustedEBITDA  bool
	PreferMaintCapExLabel bool
	IncludeAcquisitions   bool
	IncludeYearHeaders    bool
	LTMHeaderFormat       string
}

// OutputConfig locates the LBO template workbook and the cell-mapping table.
type OutputConfig struct {
	TemplatePath string
	MappingPath  string
}

// DBConfig holds the run audit log location.
type DBConfig struct {
	Path string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		OCR: OCRConfig{
			APIKey:   getEnv("VISION_API_KEY", ""),
			Endpoint: getEnv("VISION_ENDPOINT", "https://vision.googleapis.com/v1"),
			Timeout:  getEnvAsDuration("VISION_TIMEOUT", 60*time.Second),
			MaxPages: getEnvAsInt("VISION_MAX_PAGES", 0),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 90*time.Second),
			RepairJSON:  getEnvAsBool("EXTRACT_REPAIR_JSON", true),
		},
		Spec: SpecConfig{
			ActualYears:           getEnvAsInt("SPEC_ACTUAL_YEARS", 3),
			ProjectionYears:       getEnvAsInt("SPEC_PROJECTION_YEARS", 5),
			PreferAdjustedEBITDA:  getEnvAsBool("SPEC_PREFER_ADJUSTED_EBITDA", true),
			PreferMaintCapExLabel: getEnvAsBool("SPEC_PREFER_MAINT_CAPEX", true),
			IncludeAcquisitions:   getEnvAsBool("SPEC_INCLUDE_ACQUISITIONS", true),
			IncludeYearHeaders:    getEnvAsBool("SPEC_INCLUDE_YEAR_HEADERS", true),
			LTMHeaderFormat:       getEnv("SPEC_LTM_HEADER_FORMAT", "LTM JUNE-%sE"),
		},
		Output: OutputConfig{
			TemplatePath: getEnv("TEMPLATE_PATH", ""),
			MappingPath:  getEnv("MAPPING_PATH", ""),
		},
		DB: DBConfig{
			Path: getEnv("DB_PATH", "./cim-extractor.db"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError(CodeConfig, "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Spec.ActualYears != 2 && c.Spec.ActualYears != 3 {
		return NewAppError(CodeConfig, "SPEC_ACTUAL_YEARS must be 2 or 3", ErrInvalidInput)
	}
	if c.Spec.ProjectionYears != 5 && c.Spec.ProjectionYears != 6 {
		return NewAppError(CodeConfig, "SPEC_PROJECTION_YEARS must be 5 or 6", ErrInvalidInput)
	}
	return nil
}

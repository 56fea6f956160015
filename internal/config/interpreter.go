package config

import "os"

// InterpreterModels defines which models to use for the two semantic tasks
// the engine delegates to the external interpreter.
type InterpreterModels struct {
	// Abbreviate turns long concatenated column headers into short
	// question ids (needs to be fast, runs during ingestion)
	Abbreviate string `json:"abbreviate"`

	// Profile names and describes discovered clusters (quality over speed,
	// runs in the background after a clustering run)
	Profile string `json:"profile"`
}

// InterpreterConfig holds all interpreter-related configuration
type InterpreterConfig struct {
	APIKey    string            `json:"-"` // Never serialize
	BaseURL   string            `json:"baseUrl"`
	Models    InterpreterModels `json:"models"`
	TimeoutMS int               `json:"timeoutMs"`

	// MaxConcurrency bounds parallel profile calls for one run
	MaxConcurrency int `json:"maxConcurrency"`

	// MaxRetries is per call, on top of the first attempt
	MaxRetries int `json:"maxRetries"`
}

// DefaultInterpreterConfig returns the default interpreter configuration
func DefaultInterpreterConfig() *InterpreterConfig {
	return &InterpreterConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/models",
		Models: InterpreterModels{
			Abbreviate: getEnvOrDefault("INTERPRETER_MODEL_ABBREV", "gemini-2.5-flash-preview-05-20"),
			Profile:    getEnvOrDefault("INTERPRETER_MODEL_PROFILE", "gemini-2.0-flash"),
		},
		TimeoutMS:      10000, // 10 second default timeout
		MaxConcurrency: 4,
		MaxRetries:     2,
	}
}

// IsEnabled returns true if the interpreter API is configured
func (c *InterpreterConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// ModelEndpoint returns the full endpoint for a given model
func (c *InterpreterConfig) ModelEndpoint(model string) string {
	return c.BaseURL + "/" + model + ":generateContent"
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

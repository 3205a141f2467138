package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables checked for the generation API key, in order.
const (
	EnvAPIKeyPrimary   = "GEMINI_API_KEY"
	EnvAPIKeySecondary = "GOOGLE_API_KEY"
	// EnvModel overrides the text-generation model.
	EnvModel = "LASTMINUTE_LLM_MODEL"
)

// envFiles are the local override files consulted after the environment.
var envFiles = []string{".env.local", ".env"}

// ResolveAPIKey resolves the generation API key by checking the primary
// environment variable, the secondary environment variable, then key/value
// pairs from local override files. The first non-empty value wins. An empty
// result means the remote gateway is unavailable and callers must fall back.
func ResolveAPIKey() string {
	return resolveValue(EnvAPIKeyPrimary, EnvAPIKeySecondary)
}

// ResolveModel returns the configured text-generation model, falling back to
// DefaultModel.
func ResolveModel() string {
	if model := resolveValue(EnvModel); model != "" {
		return model
	}
	return DefaultModel
}

// resolveValue checks each key in the environment first, then in the local
// override files, returning the first non-empty value found.
func resolveValue(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	for _, filename := range envFiles {
		values, err := godotenv.Read(filename)
		if err != nil {
			continue
		}
		for _, key := range keys {
			if value := strings.TrimSpace(values[key]); value != "" {
				return value
			}
		}
	}
	return ""
}

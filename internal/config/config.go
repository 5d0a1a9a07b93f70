package config

import (
	"os"
	"strings"
)

// Default base URLs for the upstream providers. Overridable through the
// environment so tests and staging can point at fakes.
const (
	EnformionURLDefault      = "https://devapi.enformion.com"
	PeopleDataLabsURLDefault = "https://api.peopledatalabs.com"
	TrestleURLDefault        = "https://api.trestleiq.com"
	TwilioLookupsURLDefault  = "https://lookups.twilio.com"
)

// Config holds all process configuration: server settings plus the
// per-provider credentials. It is built once at startup and never mutated.
type Config struct {
	Host    string
	Port    int
	Verbose bool
	Debug   bool

	EnformionAPIName     string
	EnformionAPIPassword string
	EnformionBaseURL     string

	PeopleDataLabsAPIKey  string
	PeopleDataLabsBaseURL string

	TrestleAPIKey  string
	TrestleBaseURL string

	TwilioSID     string
	TwilioToken   string
	TwilioBaseURL string
}

// DefaultFromEnv creates a Config with defaults from environment variables.
func DefaultFromEnv() *Config {
	return &Config{
		Host:    "127.0.0.1",
		Port:    8000,
		Verbose: envBool("LOOKUP_PROXY_VERBOSE"),
		Debug:   envBool("LOOKUP_PROXY_DEBUG"),

		EnformionAPIName:     strings.TrimSpace(os.Getenv("ENFORMION_API_NAME")),
		EnformionAPIPassword: strings.TrimSpace(os.Getenv("ENFORMION_API_PASSWORD")),
		EnformionBaseURL:     envOrDefault("ENFORMION_BASE_URL", EnformionURLDefault),

		PeopleDataLabsAPIKey:  strings.TrimSpace(os.Getenv("PEOPLEDATALABS_API_KEY")),
		PeopleDataLabsBaseURL: envOrDefault("PEOPLEDATALABS_BASE_URL", PeopleDataLabsURLDefault),

		TrestleAPIKey:  strings.TrimSpace(os.Getenv("TRESTLE_API_KEY")),
		TrestleBaseURL: envOrDefault("TRESTLE_BASE_URL", TrestleURLDefault),

		TwilioSID:     strings.TrimSpace(os.Getenv("TWILIO_SID")),
		TwilioToken:   strings.TrimSpace(os.Getenv("TWILIO_TOKEN")),
		TwilioBaseURL: envOrDefault("TWILIO_BASE_URL", TwilioLookupsURLDefault),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

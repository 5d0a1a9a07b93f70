package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// credentialsFile is the optional on-disk credential store. Environment
// variables win; file values only fill fields the environment left empty.
type credentialsFile struct {
	Enformion struct {
		APIName     string `yaml:"api_name"`
		APIPassword string `yaml:"api_password"`
	} `yaml:"enformion"`
	PeopleDataLabs struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"peopledatalabs"`
	Trestle struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"trestle"`
	Twilio struct {
		AccountSID string `yaml:"account_sid"`
		AuthToken  string `yaml:"auth_token"`
	} `yaml:"twilio"`
}

// LoadFile merges credentials from a YAML file into cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var f credentialsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setIfEmpty(&cfg.EnformionAPIName, f.Enformion.APIName)
	setIfEmpty(&cfg.EnformionAPIPassword, f.Enformion.APIPassword)
	setIfEmpty(&cfg.PeopleDataLabsAPIKey, f.PeopleDataLabs.APIKey)
	setIfEmpty(&cfg.TrestleAPIKey, f.Trestle.APIKey)
	setIfEmpty(&cfg.TwilioSID, f.Twilio.AccountSID)
	setIfEmpty(&cfg.TwilioToken, f.Twilio.AuthToken)
	return nil
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

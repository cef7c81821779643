package configs

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

var (
	//go:embed config.example.yaml
	defaultConfigYAML string
)

// DefaultYAML returns the embedded config.example.yaml.
func DefaultYAML() string {
	return defaultConfigYAML
}

// SeedDefaults loads the embedded defaults into v, so that a config file read
// afterwards with MergeInConfig only has to set what it changes.
func SeedDefaults(v *viper.Viper) error {
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(defaultConfigYAML)); err != nil {
		return fmt.Errorf("failed to read embedded config.example.yaml: %w", err)
	}

	return nil
}

// DefaultConfig returns the parsed configuration from the embedded config.example.yaml.
// Every call decodes a fresh value, callers may modify it.
func DefaultConfig() (Config, error) {
	v := viper.New()
	if err := SeedDefaults(v); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode embedded config.example.yaml: %w", err)
	}

	return cfg, nil
}

// MustDefaultConfig returns embedded defaults or panics if they cannot be loaded.
func MustDefaultConfig() Config {
	cfg, err := DefaultConfig()
	if err != nil {
		panic(err)
	}
	return cfg
}

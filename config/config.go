package config

import (
	"os"

	"emperror.dev/errors"
	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Environment variables consulted after the configuration file.
const (
	EnvProject     = "FWSYNC_PROJECT"
	EnvCredentials = "FWSYNC_CREDENTIALS"
	EnvFetchToken  = "IP2LOCATION_TOKEN"
)

const maxPriority = 65535

// New returns a configuration holding only default values.
func New() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, errors.Wrap(err, "failed to apply configuration defaults")
	}
	return &c, nil
}

// LoadConfig reads and parses the YAML configuration file. An empty path
// skips the file. Values from the environment, including a .env file in the
// working directory, override the file.
func LoadConfig(filePath string) (*Config, error) {
	config, err := New()
	if err != nil {
		return nil, err
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.Wrap(err, "failed to parse YAML")
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "failed to load .env file")
	}
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvProject); v != "" {
		c.Project = v
	}
	if v := os.Getenv(EnvCredentials); v != "" {
		c.Credentials = v
	}
	if v := os.Getenv(EnvFetchToken); v != "" {
		c.Fetch.Token = v
	}
}

// Validate checks values that the API would otherwise reject late.
func (c *Config) Validate() error {
	if c.Priority < 0 || c.Priority > maxPriority {
		return errors.Errorf("invalid priority: %d, must be between 0 and %d", c.Priority, maxPriority)
	}
	if c.Timeout < 0 {
		return errors.Errorf("invalid timeout: %s", c.Timeout)
	}
	if c.Fetch.URL == "" {
		return errors.New("invalid fetch.url: must not be empty")
	}
	return nil
}

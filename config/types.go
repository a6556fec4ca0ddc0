package config

import "time"

// FetchConfig describes where the CIDR range database is downloaded from
type FetchConfig struct {
	URL      string `default:"https://www.ip2location.com/download" yaml:"url"`
	Token    string `yaml:"token"`
	Database string `yaml:"database"`
	Retries  uint64 `default:"3" yaml:"retries"`
}

// Config represents the top-level fwsync configuration
type Config struct {
	// Project is the cloud project holding the firewall rule.
	Project string `yaml:"project"`

	// Credentials is a service account key file. Empty means application
	// default credentials.
	Credentials string `yaml:"credentials"`

	// Endpoint overrides the compute API endpoint.
	Endpoint string `yaml:"endpoint"`

	// NoAuth sends requests without credentials, for API emulators.
	NoAuth bool `yaml:"no_auth"`

	// Priority is stamped on newly created rules. Existing rules keep theirs.
	Priority int64 `default:"500" yaml:"priority"`

	// Description of newly created rules, defaults to the rule name.
	Description string `yaml:"description"`

	// Wait for compute operations to complete before returning.
	Wait bool `yaml:"wait"`

	// Timeout bounds a whole run. Zero disables it.
	Timeout time.Duration `default:"2m" yaml:"timeout"`

	Fetch FetchConfig `yaml:"fetch"`
}

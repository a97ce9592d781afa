package config

import (
	"fmt"
	"path/filepath"
)

// Validate checks the config for structural correctness.
func Validate(c *Config) []error {
	var errs []error

	if c.Endpoint == "" {
		errs = append(errs, fmt.Errorf("endpoint is required"))
	}
	if c.APIKey == "" {
		errs = append(errs, fmt.Errorf("api_key is required"))
	}
	if c.MetricsCollectionInterval <= 0 {
		errs = append(errs, fmt.Errorf("metrics_collection_interval must be positive, got %d", c.MetricsCollectionInterval))
	}
	if c.LogsCollectionInterval <= 0 {
		errs = append(errs, fmt.Errorf("logs_collection_interval must be positive, got %d", c.LogsCollectionInterval))
	}
	if c.CredentialRefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("credential_refresh_interval must be positive, got %d", c.CredentialRefreshInterval))
	}

	// Stream names derive from base file names, so they must be unique.
	seen := make(map[string]string)
	for _, path := range c.LogFiles {
		base := filepath.Base(path)
		if prev, dup := seen[base]; dup {
			errs = append(errs, fmt.Errorf("log_files %q and %q share base name %q", prev, path, base))
			continue
		}
		seen[base] = path
	}
	if c.CollectJournal {
		if prev, dup := seen["journal"]; dup {
			errs = append(errs, fmt.Errorf("log_files %q collides with the journal source name", prev))
		}
	}

	return errs
}

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Parse when the file leaves a field unset.
const (
	DefaultNamespace          = "System/Default"
	DefaultLogGroupName       = "/system/default/{instance}"
	DefaultMetricsInterval    = 300
	DefaultLogsInterval       = 10
	DefaultCredentialInterval = 3600
	instanceIDPlaceholder     = "{instance}"
)

// Config represents a watchpost.yaml configuration file.
// Intervals are in seconds.
type Config struct {
	Endpoint                  string   `yaml:"endpoint"`
	APIKey                    string   `yaml:"api_key"`
	Namespace                 string   `yaml:"namespace"`
	LogGroupName              string   `yaml:"log_group_name"`
	MetricsCollectionInterval int      `yaml:"metrics_collection_interval"`
	LogsCollectionInterval    int      `yaml:"logs_collection_interval"`
	CredentialRefreshInterval int      `yaml:"credential_refresh_interval"`
	LogFiles                  []string `yaml:"log_files"`
	CollectJournal            bool     `yaml:"collect_journal"`
	InstanceID                string   `yaml:"instance_id"`
}

// Parse decodes a config file and applies defaults.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.LogGroupName == "" {
		c.LogGroupName = DefaultLogGroupName
	}
	if c.MetricsCollectionInterval == 0 {
		c.MetricsCollectionInterval = DefaultMetricsInterval
	}
	if c.LogsCollectionInterval == 0 {
		c.LogsCollectionInterval = DefaultLogsInterval
	}
	if c.CredentialRefreshInterval == 0 {
		c.CredentialRefreshInterval = DefaultCredentialInterval
	}
	return &c, nil
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// GroupName expands the instance placeholder in the log group template.
func (c *Config) GroupName(instanceID string) string {
	return strings.ReplaceAll(c.LogGroupName, instanceIDPlaceholder, instanceID)
}

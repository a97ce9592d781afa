package config

import (
	"strings"
	"testing"
)

func TestParseValidConfig(t *testing.T) {
	yaml := `
endpoint: https://telemetry.example.com
api_key: secret
namespace: Fleet/Web
log_group_name: /fleet/web/{instance}
metrics_collection_interval: 60
logs_collection_interval: 5
log_files:
  - /var/log/nginx/access.log
  - /var/log/nginx/error.log
collect_journal: true
`
	c, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if c.Namespace != "Fleet/Web" {
		t.Errorf("namespace: got %q", c.Namespace)
	}
	if c.MetricsCollectionInterval != 60 {
		t.Errorf("metrics interval: got %d, want 60", c.MetricsCollectionInterval)
	}
	if len(c.LogFiles) != 2 {
		t.Errorf("log files: got %d, want 2", len(c.LogFiles))
	}
	if !c.CollectJournal {
		t.Error("collect_journal: got false")
	}
	if errs := Validate(c); len(errs) != 0 {
		t.Errorf("unexpected validation errors: %v", errs)
	}
}

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte("endpoint: https://t.example.com\napi_key: k\n"))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if c.Namespace != DefaultNamespace {
		t.Errorf("namespace default: got %q", c.Namespace)
	}
	if c.LogGroupName != DefaultLogGroupName {
		t.Errorf("log group default: got %q", c.LogGroupName)
	}
	if c.MetricsCollectionInterval != 300 {
		t.Errorf("metrics interval default: got %d, want 300", c.MetricsCollectionInterval)
	}
	if c.LogsCollectionInterval != 10 {
		t.Errorf("logs interval default: got %d, want 10", c.LogsCollectionInterval)
	}
	if c.CredentialRefreshInterval != 3600 {
		t.Errorf("credential interval default: got %d, want 3600", c.CredentialRefreshInterval)
	}
}

func TestValidateRequiresEndpointAndKey(t *testing.T) {
	c, _ := Parse([]byte("namespace: X\n"))
	errs := Validate(c)
	if len(errs) != 2 {
		t.Fatalf("errors: got %d (%v), want 2", len(errs), errs)
	}
}

func TestValidateRejectsNonPositiveIntervals(t *testing.T) {
	// Bypass Parse, which defaults zero intervals: Validate itself must
	// reject a zero the same way it rejects a negative.
	c := &Config{
		Endpoint:                  "https://t.example.com",
		APIKey:                    "k",
		LogsCollectionInterval:    10,
		CredentialRefreshInterval: -1,
	}
	errs := Validate(c)
	if len(errs) != 2 {
		t.Fatalf("errors: got %d (%v), want 2", len(errs), errs)
	}
	for _, err := range errs {
		if !strings.Contains(err.Error(), "must be positive") {
			t.Errorf("unexpected error: %v", err)
		}
	}
}

func TestValidateRejectsDuplicateBaseNames(t *testing.T) {
	c, _ := Parse([]byte(`
endpoint: https://t.example.com
api_key: k
log_files:
  - /var/log/app/current.log
  - /opt/other/current.log
`))
	errs := Validate(c)
	if len(errs) != 1 {
		t.Fatalf("errors: got %d (%v), want 1", len(errs), errs)
	}
	if !strings.Contains(errs[0].Error(), "current.log") {
		t.Errorf("error should name the colliding base: %v", errs[0])
	}
}

func TestValidateRejectsJournalNameCollision(t *testing.T) {
	c, _ := Parse([]byte(`
endpoint: https://t.example.com
api_key: k
log_files:
  - /var/log/journal
collect_journal: true
`))
	errs := Validate(c)
	if len(errs) != 1 {
		t.Fatalf("errors: got %d (%v), want 1", len(errs), errs)
	}
}

func TestGroupNameExpansion(t *testing.T) {
	c, _ := Parse([]byte("endpoint: e\napi_key: k\n"))
	got := c.GroupName("i-0abc123")
	if got != "/system/default/i-0abc123" {
		t.Errorf("group name: got %q", got)
	}
}

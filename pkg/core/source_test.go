package core

import (
	"fmt"
	"testing"
)

func TestResolveSourcesNames(t *testing.T) {
	sources := ResolveSources([]string{"/var/log/syslog", "/opt/app/app.log"}, false)
	if len(sources) != 2 {
		t.Fatalf("sources count: got %d, want 2", len(sources))
	}
	if sources[0].Name != "syslog" {
		t.Errorf("name: got %q, want %q", sources[0].Name, "syslog")
	}
	if sources[1].Name != "app.log" {
		t.Errorf("name: got %q, want %q", sources[1].Name, "app.log")
	}
	if sources[0].Origin.Kind != OriginFile || sources[0].Origin.Path != "/var/log/syslog" {
		t.Errorf("origin: got %+v", sources[0].Origin)
	}
}

func TestResolveSourcesCap(t *testing.T) {
	paths := make([]string, 60)
	for i := range paths {
		paths[i] = fmt.Sprintf("/var/log/app-%02d.log", i)
	}
	sources := ResolveSources(paths, false)
	if len(sources) != MaxSources {
		t.Fatalf("sources count: got %d, want %d", len(sources), MaxSources)
	}
	// Truncation keeps configured order.
	for i, s := range sources {
		want := fmt.Sprintf("app-%02d.log", i)
		if s.Name != want {
			t.Fatalf("source %d: got %q, want %q", i, s.Name, want)
		}
	}
}

func TestResolveSourcesJournal(t *testing.T) {
	sources := ResolveSources([]string{"/var/log/syslog"}, true)
	if len(sources) != 2 {
		t.Fatalf("sources count: got %d, want 2", len(sources))
	}
	j := sources[1]
	if !j.Origin.IsJournal() {
		t.Error("expected journal origin")
	}
	if j.Name != JournalSourceName {
		t.Errorf("journal name: got %q", j.Name)
	}
	if j.Origin.Path != "" {
		t.Errorf("journal origin has a path: %q", j.Origin.Path)
	}
	if sources[0].Name == j.Name {
		t.Error("journal name collides with file source")
	}
}

func TestResolveSourcesJournalCountsTowardCap(t *testing.T) {
	paths := make([]string, MaxSources)
	for i := range paths {
		paths[i] = fmt.Sprintf("/var/log/app-%02d.log", i)
	}
	sources := ResolveSources(paths, true)
	if len(sources) != MaxSources {
		t.Fatalf("sources count: got %d, want %d", len(sources), MaxSources)
	}
	for _, s := range sources {
		if s.Origin.IsJournal() {
			t.Fatal("journal source should have been truncated past the cap")
		}
	}
}

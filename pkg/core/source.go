package core

import "path/filepath"

// MaxSources caps how many log sources the agent will follow.
// Excess configured sources are truncated in configured order.
const MaxSources = 50

// JournalSourceName is the stream name used for the journal source.
// It is not derived from a file path, so it cannot collide with a
// configured file's base name (those always carry an extension-free
// base of a real path; config validation rejects a file literally
// named "journal" alongside journal collection).
const JournalSourceName = "journal"

// OriginKind distinguishes how a source's lines are obtained.
type OriginKind string

const (
	OriginFile    OriginKind = "file"
	OriginJournal OriginKind = "journal"
)

// Origin identifies where a source's lines come from.
// Path is set only for OriginFile.
type Origin struct {
	Kind OriginKind
	Path string
}

// IsJournal reports whether the origin is the system journal.
func (o Origin) IsJournal() bool { return o.Kind == OriginJournal }

// Source is one resolved log source. Immutable once resolved.
type Source struct {
	Name   string
	Origin Origin
}

// FileSource builds a file-backed source named after the file's base name.
func FileSource(path string) Source {
	return Source{
		Name:   filepath.Base(path),
		Origin: Origin{Kind: OriginFile, Path: path},
	}
}

// JournalSource builds the journal-backed source.
func JournalSource() Source {
	return Source{
		Name:   JournalSourceName,
		Origin: Origin{Kind: OriginJournal},
	}
}

// ResolveSources turns the configured file paths plus the optional
// journal flag into the active source list, in configured order,
// truncated at MaxSources.
func ResolveSources(paths []string, journal bool) []Source {
	sources := make([]Source, 0, len(paths)+1)
	for _, p := range paths {
		sources = append(sources, FileSource(p))
	}
	if journal {
		sources = append(sources, JournalSource())
	}
	if len(sources) > MaxSources {
		sources = sources[:MaxSources]
	}
	return sources
}

// Package tail follows log sources and feeds their per-source queues.
package tail

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/modoterra/watchpost/pkg/core"
)

// LineSource streams complete lines from one underlying follow
// mechanism. The channel closes when the source is exhausted or the
// context is cancelled; a permanently drained source is not an error.
type LineSource interface {
	Lines() <-chan string
}

// Tailer follows a single source and enqueues a timestamped LogEvent
// for every complete line observed after subscription.
type Tailer struct {
	source core.Source
	queue  *core.EventQueue
	logger *slog.Logger
	done   chan struct{}
}

// Start subscribes to the source's follow mechanism and begins
// tailing. The returned Tailer runs until the source is exhausted or
// ctx is cancelled; the queue stays valid for leftover draining
// either way.
func Start(ctx context.Context, source core.Source, queue *core.EventQueue, logger *slog.Logger) *Tailer {
	t := &Tailer{
		source: source,
		queue:  queue,
		logger: logger,
		done:   make(chan struct{}),
	}

	var lines LineSource
	if source.Origin.IsJournal() {
		lines = newJournalSource(ctx, logger)
	} else {
		lines = newFileSource(ctx, source.Origin.Path, logger)
	}

	go t.run(lines)
	return t
}

// Done closes when the tailer has stopped producing events.
func (t *Tailer) Done() <-chan struct{} { return t.done }

// Source returns the source this tailer follows.
func (t *Tailer) Source() core.Source { return t.source }

func (t *Tailer) run(lines LineSource) {
	defer close(t.done)
	for line := range lines.Lines() {
		t.queue.Append(core.LogEvent{
			TimestampMillis: time.Now().UnixMilli(),
			Message:         strings.TrimRight(line, " \t\r\n"),
		})
	}
	t.logger.Info("source drained", "source", t.source.Name)
}

// Package ship drains per-source queues and performs ordered,
// token-chained appends to the backend.
package ship

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modoterra/watchpost/pkg/backend"
	"github.com/modoterra/watchpost/pkg/core"
)

// StreamState is one stream's backend identity and the sequence token
// for its next append. The token is mutated only by the shipper, whose
// ticks are serialized, so no further protection is needed.
type StreamState struct {
	Group  string
	Stream string
	Token  *string
}

type sourceState struct {
	source core.Source
	queue  *core.EventQueue
	state  StreamState
}

// Shipper owns one StreamState per registered source and ships each
// source's queue on every tick, in registration order.
type Shipper struct {
	client  backend.Client
	group   string
	logger  *slog.Logger
	sources []*sourceState
}

// NewShipper creates a shipper appending under the given log group.
func NewShipper(client backend.Client, group string, logger *slog.Logger) *Shipper {
	return &Shipper{client: client, group: group, logger: logger}
}

// Register adds a source and its queue. Call before Setup.
func (s *Shipper) Register(source core.Source, queue *core.EventQueue) {
	s.sources = append(s.sources, &sourceState{
		source: source,
		queue:  queue,
		state:  StreamState{Group: s.group, Stream: source.Name},
	})
}

// Setup creates the log group and one stream per source (both
// idempotent), then seeds sequence tokens for streams that already
// hold entries. Startup calls retry on transient network failures;
// a final failure here is fatal to the agent.
func (s *Shipper) Setup(ctx context.Context) error {
	if err := backend.WithRetry(ctx, func() error {
		return s.client.CreateLogGroup(ctx, s.group)
	}); err != nil {
		return fmt.Errorf("setup log group: %w", err)
	}

	for _, src := range s.sources {
		stream := src.state.Stream
		if err := backend.WithRetry(ctx, func() error {
			return s.client.CreateLogStream(ctx, s.group, stream)
		}); err != nil {
			return fmt.Errorf("setup log stream %s: %w", stream, err)
		}
	}

	var streams []backend.StreamInfo
	if err := backend.WithRetry(ctx, func() error {
		var err error
		streams, err = s.client.DescribeLogStreams(ctx, s.group, core.MaxSources)
		return err
	}); err != nil {
		return fmt.Errorf("seed sequence tokens: %w", err)
	}

	tokens := make(map[string]*string, len(streams))
	for _, info := range streams {
		tokens[info.StreamName] = info.UploadSequenceToken
	}
	for _, src := range s.sources {
		if tok, ok := tokens[src.state.Stream]; ok && tok != nil {
			src.state.Token = tok
		}
	}
	return nil
}

// Ship drains every source's queue and appends each non-empty batch
// in one ordered call. A source's failure is recorded and the cycle
// moves on; the batch goes back to the front of its queue so the next
// tick reships it (duplicates on the backend are possible and
// accepted). On a token mismatch the stream is re-described so the
// next tick starts from a fresh token instead of reusing a stale one.
func (s *Shipper) Ship(ctx context.Context) error {
	var errs []error
	for _, src := range s.sources {
		batch := src.queue.Drain()
		if len(batch) == 0 {
			continue
		}

		next, err := s.client.PutLogEvents(ctx, src.state.Group, src.state.Stream, src.state.Token, batch)
		if err != nil {
			s.logger.Error("append failed", "stream", src.state.Stream, "events", len(batch), "err", err)
			src.queue.Requeue(batch)
			if errors.Is(err, backend.ErrTokenMismatch) {
				s.reseedToken(ctx, src)
			}
			errs = append(errs, fmt.Errorf("stream %s: %w", src.state.Stream, err))
			continue
		}

		src.state.Token = &next
		s.logger.Debug("events shipped", "stream", src.state.Stream, "events", len(batch))
	}
	return errors.Join(errs...)
}

// reseedToken refreshes one stream's token from the backend. On
// failure the stale token stays and the next tick will report the
// mismatch again.
func (s *Shipper) reseedToken(ctx context.Context, src *sourceState) {
	streams, err := s.client.DescribeLogStreams(ctx, s.group, core.MaxSources)
	if err != nil {
		s.logger.Error("token resync failed", "stream", src.state.Stream, "err", err)
		return
	}
	for _, info := range streams {
		if info.StreamName == src.state.Stream {
			src.state.Token = info.UploadSequenceToken
			s.logger.Info("token resynced", "stream", src.state.Stream)
			return
		}
	}
}

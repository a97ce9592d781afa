package sched

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestJobRunsOnItsInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ticks atomic.Int32
	s := New(testLogger())
	s.Add(Job{
		Name:     "fast",
		Interval: 10 * time.Millisecond,
		Action: func(context.Context) error {
			ticks.Add(1)
			return nil
		},
	})

	done := make(chan struct{})
	go func() { s.Run(ctx); close(done) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if n := ticks.Load(); n < 3 {
		t.Errorf("ticks: got %d, want at least 3", n)
	}
}

func TestFailingTickDoesNotStopTheJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ticks atomic.Int32
	s := New(testLogger())
	s.Add(Job{
		Name:     "flaky",
		Interval: 10 * time.Millisecond,
		Action: func(context.Context) error {
			if ticks.Add(1) == 1 {
				return errors.New("tick 1 fails")
			}
			return nil
		},
	})

	done := make(chan struct{})
	go func() { s.Run(ctx); close(done) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if n := ticks.Load(); n < 2 {
		t.Errorf("job stopped after a failed tick: %d ticks", n)
	}
}

func TestJobIsolation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var healthy atomic.Int32
	s := New(testLogger())
	s.Add(Job{
		Name:     "broken",
		Interval: 10 * time.Millisecond,
		Action:   func(context.Context) error { return errors.New("always fails") },
	})
	s.Add(Job{
		Name:     "healthy",
		Interval: 10 * time.Millisecond,
		Action: func(context.Context) error {
			healthy.Add(1)
			return nil
		},
	})

	done := make(chan struct{})
	go func() { s.Run(ctx); close(done) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if n := healthy.Load(); n < 3 {
		t.Errorf("healthy job affected by broken job: %d ticks", n)
	}
}

func TestPanickingActionIsContained(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ticks atomic.Int32
	s := New(testLogger())
	s.Add(Job{
		Name:     "panicky",
		Interval: 10 * time.Millisecond,
		Action: func(context.Context) error {
			if ticks.Add(1) == 1 {
				panic("boom")
			}
			return nil
		},
	})

	done := make(chan struct{})
	go func() { s.Run(ctx); close(done) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if n := ticks.Load(); n < 2 {
		t.Errorf("job stopped after a panic: %d ticks", n)
	}
}

func TestJobNeverOverlapsItself(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var inFlight, maxInFlight atomic.Int32
	s := New(testLogger())
	s.Add(Job{
		Name:     "slow",
		Interval: 5 * time.Millisecond,
		Action: func(context.Context) error {
			cur := inFlight.Add(1)
			if cur > maxInFlight.Load() {
				maxInFlight.Store(cur)
			}
			time.Sleep(20 * time.Millisecond) // longer than the interval
			inFlight.Add(-1)
			return nil
		},
	})

	done := make(chan struct{})
	go func() { s.Run(ctx); close(done) }()

	time.Sleep(120 * time.Millisecond)
	cancel()
	<-done

	if maxInFlight.Load() > 1 {
		t.Errorf("job overlapped itself: max in flight %d", maxInFlight.Load())
	}
}

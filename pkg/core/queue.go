package core

import "sync"

// DefaultQueueDepth bounds each source's queue. When the tailer outruns
// the shipper the oldest events are dropped so memory stays bounded.
const DefaultQueueDepth = 4096

// EventQueue is a bounded FIFO between one tailer (producer) and the
// shipper (consumer). Drain never blocks waiting for new events.
type EventQueue struct {
	mu      sync.Mutex
	events  []LogEvent
	depth   int
	dropped uint64
}

// NewEventQueue creates a queue holding at most depth events.
// A depth <= 0 uses DefaultQueueDepth.
func NewEventQueue(depth int) *EventQueue {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &EventQueue{depth: depth}
}

// Append enqueues an event, evicting the oldest when full.
func (q *EventQueue) Append(e LogEvent) {
	q.mu.Lock()
	if len(q.events) >= q.depth {
		q.events = q.events[1:]
		q.dropped++
	}
	q.events = append(q.events, e)
	q.mu.Unlock()
}

// Drain removes and returns everything currently queued, in enqueue
// order. An empty queue yields nil.
func (q *EventQueue) Drain() []LogEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = nil
	return out
}

// Requeue puts a drained batch back at the front of the queue, ahead
// of anything enqueued since the drain. Events beyond the depth bound
// are dropped from the old end.
func (q *EventQueue) Requeue(batch []LogEvent) {
	if len(batch) == 0 {
		return
	}
	q.mu.Lock()
	merged := append(batch, q.events...)
	if over := len(merged) - q.depth; over > 0 {
		merged = merged[over:]
		q.dropped += uint64(over)
	}
	q.events = merged
	q.mu.Unlock()
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Dropped returns how many events were evicted since creation.
func (q *EventQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

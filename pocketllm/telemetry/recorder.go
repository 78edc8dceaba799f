// pocketllm/telemetry/recorder.go
package telemetry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/utils/logging"

	"go.uber.org/zap"
)

const DefaultCapacity = 500

// Event kinds recorded by the gateway and session operations.
const (
	KindCacheHit       = "cache_hit"
	KindInference      = "inference"
	KindInferenceError = "inference_error"
	KindSessionCreate  = "session_create"
	KindSessionDelete  = "session_delete"
	KindHistoryClear   = "history_clear"
	KindStoreSync      = "store_sync"
)

// Event is one structured telemetry record.
type Event struct {
	Kind        string    `json:"kind"`
	SessionID   string    `json:"session_id,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	LatencyMs   int64     `json:"latency_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	Tokens      int       `json:"tokens,omitempty"`
	Err         string    `json:"error,omitempty"`
	At          time.Time `json:"at"`
}

// Recorder is an append-only, capacity-bounded event log. Record never
// blocks: events go through a buffered channel drained by a background
// goroutine, and a full channel drops the event instead of delaying the
// caller. All methods are safe on a nil receiver so telemetry stays
// optional for library users.
type Recorder struct {
	ch      chan Event
	quit    chan struct{}
	done    chan struct{}
	closed  atomic.Bool
	dropped atomic.Uint64

	mu       sync.Mutex
	events   []Event
	capacity int

	now func() time.Time
}

// NewRecorder starts a recorder keeping at most capacity events
// (DefaultCapacity when non-positive).
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	r := &Recorder{
		ch:       make(chan Event, 2*capacity+16),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		events:   make([]Event, 0, capacity),
		capacity: capacity,
		now:      time.Now,
	}
	go r.drain()
	return r
}

// Record enqueues an event without ever blocking the caller. Events offered
// after Close, or while the queue is full, count as dropped.
func (r *Recorder) Record(ev Event) {
	if r == nil || r.closed.Load() {
		if r != nil {
			r.dropped.Add(1)
		}
		return
	}
	if ev.At.IsZero() {
		ev.At = r.now()
	}
	select {
	case r.ch <- ev:
	default:
		r.dropped.Add(1)
	}
}

// Snapshot returns a copy of the retained events, oldest first.
func (r *Recorder) Snapshot() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Dropped reports how many events were discarded.
func (r *Recorder) Dropped() uint64 {
	if r == nil {
		return 0
	}
	return r.dropped.Load()
}

// Len reports how many events are currently retained.
func (r *Recorder) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Close drains pending events and stops the recorder. Idempotent.
func (r *Recorder) Close() {
	if r == nil || !r.closed.CompareAndSwap(false, true) {
		return
	}
	close(r.quit)
	<-r.done
}

func (r *Recorder) drain() {
	for {
		select {
		case ev := <-r.ch:
			r.append(ev)
		case <-r.quit:
			for {
				select {
				case ev := <-r.ch:
					r.append(ev)
				default:
					close(r.done)
					return
				}
			}
		}
	}
}

func (r *Recorder) append(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	if len(r.events) > r.capacity {
		excess := len(r.events) - r.capacity
		r.events = append(r.events[:0], r.events[excess:]...)
	}
	r.mu.Unlock()

	if logging.AppLogger != nil {
		logging.AppLogger.Info("telemetry event",
			zap.String("kind", ev.Kind),
			zap.String("session_id", ev.SessionID),
			zap.Int64("latency_ms", ev.LatencyMs),
			zap.Bool("cached", ev.Cached),
			zap.String("error", ev.Err),
		)
	}
}

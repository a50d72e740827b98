package tracker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Actions recorded by the login flows.
const (
	ActionLogin = "loginWithScopes"
)

// Event is a single tracking record. Emission is best effort: events may be
// dropped under pressure but must never block or fail a login flow.
type Event struct {
	Action    string    `json:"action"`
	Phase     string    `json:"phase"`
	SessionID string    `json:"sessionId"`
	Channel   string    `json:"channel,omitempty"`
	Code      int       `json:"code,omitempty"`
	Message   string    `json:"message,omitempty"`
	At        time.Time `json:"at"`
}

// Phases an interactive flow can report.
const (
	PhaseStart   = "start"
	PhaseSuccess = "success"
	PhaseFailure = "failure"
	PhaseCancel  = "cancel"
)

// Sink receives tracking events. Implementations must tolerate concurrent
// calls; errors are absorbed by the dispatcher.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// Nop discards every event.
type Nop struct{}

// Emit implements Sink.
func (Nop) Emit(context.Context, Event) {}

// Tracker fans events out to a sink from a dedicated goroutine so emission
// never blocks the caller. A nil *Tracker is valid and silently drops
// everything.
type Tracker struct {
	sink      Sink
	ch        chan Event
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// Option customises a Tracker.
type Option func(*config)

type config struct {
	bufferSize int
}

// WithBufferSize sets the event queue capacity.
func WithBufferSize(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// New starts a tracker draining into sink. A nil sink yields a nil tracker.
func New(sink Sink, options ...Option) *Tracker {
	if sink == nil {
		return nil
	}
	cfg := &config{bufferSize: 64}
	for _, opt := range options {
		opt(cfg)
	}
	if cfg.bufferSize <= 0 {
		cfg.bufferSize = 1
	}
	t := &Tracker{
		sink: sink,
		ch:   make(chan Event, cfg.bufferSize),
		done: make(chan struct{}),
	}
	t.wg.Add(1)
	go t.run()
	return t
}

func (t *Tracker) run() {
	defer t.wg.Done()
	for {
		select {
		case event := <-t.ch:
			t.sink.Emit(context.Background(), event)
		case <-t.done:
			for {
				select {
				case event := <-t.ch:
					t.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

func (t *Tracker) emit(event Event) {
	if t == nil || t.closed.Load() {
		return
	}
	event.At = time.Now()
	select {
	case t.ch <- event:
	case <-t.done:
	default:
		t.dropped.Add(1)
	}
}

// Start records the beginning of a flow.
func (t *Tracker) Start(action, sessionID string) {
	t.emit(Event{Action: action, Phase: PhaseStart, SessionID: sessionID})
}

// Success records a completed flow.
func (t *Tracker) Success(action, sessionID, channel string) {
	t.emit(Event{Action: action, Phase: PhaseSuccess, SessionID: sessionID, Channel: channel})
}

// Failure records a failed flow with the surfaced error code and message.
func (t *Tracker) Failure(action, sessionID, channel string, code int, message string) {
	t.emit(Event{Action: action, Phase: PhaseFailure, SessionID: sessionID, Channel: channel, Code: code, Message: message})
}

// Cancel records a flow the user dismissed.
func (t *Tracker) Cancel(action, sessionID string) {
	t.emit(Event{Action: action, Phase: PhaseCancel, SessionID: sessionID})
}

// Dropped returns how many events were discarded because the queue was full.
func (t *Tracker) Dropped() uint64 {
	if t == nil {
		return 0
	}
	return t.dropped.Load()
}

// Close drains outstanding events and stops the dispatch goroutine.
func (t *Tracker) Close() {
	if t == nil {
		return
	}
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		close(t.done)
		t.wg.Wait()
	})
}

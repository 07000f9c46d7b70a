// Package recorder captures mouse and keyboard events from hook sources
// into an ordered, timestamped in-memory log.
package recorder

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomy27/input-recorder/internal/event"
	"github.com/tomy27/input-recorder/internal/hook"
	"github.com/tomy27/input-recorder/internal/keymap"
)

// State is the recorder lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	}
	return fmt.Sprintf("state%d", int(s))
}

// ErrNoSources is returned by New when neither a pointer nor a keyboard
// source is configured.
var ErrNoSources = errors.New("recorder needs at least one input source")

// Options configures a Recorder. Pointer and Keyboard are each optional but
// at least one must be set.
type Options struct {
	Pointer  hook.PointerSource
	Keyboard hook.KeyboardSource

	// Keymap names keyboard keys. Defaults to keymap.Default.
	Keymap *keymap.Map

	// Trim rewrites the log when a session stops. nil keeps the log as
	// captured; daemons usually wire TrimLast to cut the stop gesture.
	Trim TrimPolicy

	// ResetOnStart clears the log on Start instead of accumulating events
	// across sessions.
	ResetOnStart bool

	// MaxEvents caps the log size. Once reached, new events are dropped
	// and counted. 0 means unbounded.
	MaxEvents int

	// Clock stamps events. Defaults to time.Now.
	Clock func() time.Time

	Logger *slog.Logger

	// OnEvent observes each appended event, in log order, while the
	// recorder lock is held. Keep it fast and non-blocking.
	OnEvent func(event.Event)
}

// Summary describes a finished session, returned by Stop.
type Summary struct {
	SessionID string
	StartedAt time.Time
	Duration  time.Duration
	Events    int
	Trimmed   int
	Dropped   int
}

// Status is a point-in-time view of the recorder, served by the debug API.
type Status struct {
	State     State
	SessionID string
	StartedAt time.Time
	Events    int
	Elapsed   time.Duration
	Dropped   int
}

// Recorder owns the event log and the hook subscriptions of the current
// session. All methods are safe for concurrent use.
type Recorder struct {
	opts Options

	mu      sync.Mutex
	state   State
	session string
	start   time.Time
	log     event.Log
	subs    []hook.Subscription
	dropped int
	warned  bool
}

func New(opts Options) (*Recorder, error) {
	if opts.Pointer == nil && opts.Keyboard == nil {
		return nil, ErrNoSources
	}
	if opts.Keymap == nil {
		opts.Keymap = keymap.Default()
	}
	if opts.Trim == nil {
		opts.Trim = NoTrim
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Logger = opts.Logger.With("component", "recorder")
	return &Recorder{opts: opts}, nil
}

// Start begins a new session: it subscribes to the configured sources and
// stamps events relative to now. Calling Start while already recording is
// a no-op.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRecording {
		return nil
	}

	if r.opts.ResetOnStart {
		r.log = nil
	}
	r.session = uuid.NewString()
	r.start = r.opts.Clock()
	r.dropped = 0
	r.warned = false

	if r.opts.Pointer != nil {
		sub, err := r.opts.Pointer.SubscribePointer(hook.PointerCallbacks{
			OnClick:  r.onClick,
			OnScroll: r.onScroll,
		})
		if err != nil {
			return fmt.Errorf("subscribe pointer: %w", err)
		}
		r.subs = append(r.subs, sub)
	}
	if r.opts.Keyboard != nil {
		sub, err := r.opts.Keyboard.SubscribeKeyboard(hook.KeyCallbacks{
			OnPress:   func(k hook.Key) { r.onKey(event.KeyPress, k) },
			OnRelease: func(k hook.Key) { r.onKey(event.KeyRelease, k) },
		})
		if err != nil {
			// Half-started sessions must not leave a live hook behind.
			r.stopSubsLocked()
			return fmt.Errorf("subscribe keyboard: %w", err)
		}
		r.subs = append(r.subs, sub)
	}

	r.state = StateRecording
	sessionsTotal.Inc()
	r.opts.Logger.Info("recording started", "session_id", r.session)
	return nil
}

// Stop ends the session: subscriptions are released, the trim policy is
// applied and a Summary of the session is returned. Stopping an idle
// recorder is a no-op and returns a zero Summary.
func (r *Recorder) Stop() (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording {
		return Summary{}, nil
	}

	err := r.stopSubsLocked()
	r.state = StateIdle

	before := len(r.log)
	r.log = r.opts.Trim(r.log)
	trimmed := before - len(r.log)
	if trimmed > 0 {
		eventsTrimmed.Add(float64(trimmed))
	}

	sum := Summary{
		SessionID: r.session,
		StartedAt: r.start,
		Duration:  r.opts.Clock().Sub(r.start),
		Events:    len(r.log),
		Trimmed:   trimmed,
		Dropped:   r.dropped,
	}
	r.opts.Logger.Info("recording stopped",
		"session_id", sum.SessionID,
		"events", sum.Events,
		"trimmed", sum.Trimmed,
		"dropped", sum.Dropped,
		"duration", sum.Duration.Round(time.Millisecond),
	)
	return sum, err
}

// Snapshot returns a copy of the current log. Safe to call at any time.
func (r *Recorder) Snapshot() event.Log {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(event.Log, len(r.log))
	copy(out, r.log)
	return out
}

// Status reports the recorder state under a single lock acquisition.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Status{
		State:     r.state,
		SessionID: r.session,
		StartedAt: r.start,
		Events:    len(r.log),
		Dropped:   r.dropped,
	}
	if r.state == StateRecording {
		st.Elapsed = r.opts.Clock().Sub(r.start)
	}
	return st
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SessionID returns the id of the current or most recent session.
func (r *Recorder) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// EventCount returns the current log length.
func (r *Recorder) EventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.log)
}

func (r *Recorder) stopSubsLocked() error {
	var errs []error
	for _, sub := range r.subs {
		if err := sub.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	r.subs = nil
	return errors.Join(errs...)
}

func (r *Recorder) onClick(x, y int, b hook.Button, pressed bool) {
	typ := event.MouseButtonUp
	if pressed {
		typ = event.MouseButtonDown
	}
	r.record(typ, event.ButtonDetails{
		Location: event.Location{X: x, Y: y},
		Button:   b.String(),
	})
}

func (r *Recorder) onScroll(x, y, dx, dy int) {
	r.record(event.MouseScroll, event.ScrollDetails{
		Location:    event.Location{X: x, Y: y},
		ScrollDelta: event.ScrollDelta{DX: dx, DY: dy},
	})
}

func (r *Recorder) onKey(typ event.Type, k hook.Key) {
	name, err := r.opts.Keymap.Resolve(k)
	if err != nil {
		keyErrors.Inc()
		r.opts.Logger.Warn("dropping unresolvable key", "error", err)
		return
	}
	r.record(typ, event.KeyDetails{Key: name})
}

func (r *Recorder) record(typ event.Type, details any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Sources may still deliver briefly after Stop released them.
	if r.state != StateRecording {
		return
	}
	if r.opts.MaxEvents > 0 && len(r.log) >= r.opts.MaxEvents {
		r.dropped++
		eventsCapped.Inc()
		if !r.warned {
			r.warned = true
			r.opts.Logger.Warn("event cap reached, dropping new events",
				"cap", r.opts.MaxEvents, "session_id", r.session)
		}
		return
	}

	e := event.Event{
		Timestamp: r.opts.Clock().Sub(r.start).Seconds(),
		Type:      typ,
		Details:   details,
	}
	r.log = append(r.log, e)
	eventsTotal.WithLabelValues(string(typ)).Inc()
	if r.opts.OnEvent != nil {
		r.opts.OnEvent(e)
	}
}

package recorder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tomy27/input-recorder/internal/event"
	"github.com/tomy27/input-recorder/internal/hook"
)

type fakeSub struct {
	stopped bool
	err     error
}

func (s *fakeSub) Stop() error {
	s.stopped = true
	return s.err
}

type fakePointer struct {
	cbs   hook.PointerCallbacks
	sub   fakeSub
	calls int
	err   error
}

func (p *fakePointer) SubscribePointer(cbs hook.PointerCallbacks) (hook.Subscription, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.calls++
	p.cbs = cbs
	return &p.sub, nil
}

type fakeKeyboard struct {
	cbs hook.KeyCallbacks
	sub fakeSub
	err error
}

func (k *fakeKeyboard) SubscribeKeyboard(cbs hook.KeyCallbacks) (hook.Subscription, error) {
	if k.err != nil {
		return nil, k.err
	}
	k.cbs = cbs
	return &k.sub, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRecorder(t *testing.T, opts Options) (*Recorder, *fakePointer, *fakeKeyboard) {
	t.Helper()
	p := &fakePointer{}
	k := &fakeKeyboard{}
	opts.Pointer = p
	opts.Keyboard = k
	if opts.Logger == nil {
		opts.Logger = discard()
	}
	r, err := New(opts)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	return r, p, k
}

func TestNewRequiresSource(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
	if _, err := New(Options{Pointer: &fakePointer{}, Logger: discard()}); err != nil {
		t.Fatalf("pointer-only recorder should be valid: %v", err)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	r, p, k := newTestRecorder(t, Options{Trim: NoTrim})

	if got := r.Status().State; got != StateIdle {
		t.Fatalf("fresh recorder state = %v, want idle", got)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	st := r.Status()
	if st.State != StateRecording || st.SessionID == "" {
		t.Fatalf("unexpected status after start: %+v", st)
	}
	first := st.SessionID

	// Starting again is a no-op, not a new session.
	if err := r.Start(); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if got := r.Status().SessionID; got != first {
		t.Errorf("second start replaced session: %q != %q", got, first)
	}
	if p.calls != 1 {
		t.Errorf("second start resubscribed the hook %d times", p.calls)
	}

	p.cbs.OnClick(10, 20, hook.ButtonLeft, true)
	k.cbs.OnPress(hook.KeyOf('a'))

	sum, err := r.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if sum.SessionID != first || sum.Events != 2 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if !p.sub.stopped || !k.sub.stopped {
		t.Error("stop did not release subscriptions")
	}
	if got := r.Status().State; got != StateIdle {
		t.Errorf("state after stop = %v, want idle", got)
	}

	// Stopping again is a no-op.
	sum, err = r.Stop()
	if err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if sum.SessionID != "" || sum.Events != 0 {
		t.Errorf("second stop should return zero summary, got %+v", sum)
	}
}

func TestTimestampsRelativeToStart(t *testing.T) {
	now := time.Unix(1700000000, 0)
	r, p, k := newTestRecorder(t, Options{
		Trim:  NoTrim,
		Clock: func() time.Time { return now },
	})

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	now = now.Add(500 * time.Millisecond)
	p.cbs.OnClick(100, 200, hook.ButtonRight, true)

	if got := r.Status().Elapsed; got != 500*time.Millisecond {
		t.Errorf("elapsed = %v, want 500ms", got)
	}

	now = now.Add(750 * time.Millisecond)
	k.cbs.OnPress(hook.KeyOf('q'))

	log := r.Snapshot()
	if len(log) != 2 {
		t.Fatalf("expected 2 events, got %d", len(log))
	}
	if log[0].Timestamp != 0.5 {
		t.Errorf("first timestamp = %v, want 0.5", log[0].Timestamp)
	}
	if log[1].Timestamp != 1.25 {
		t.Errorf("second timestamp = %v, want 1.25", log[1].Timestamp)
	}

	d, ok := log[0].Details.(event.ButtonDetails)
	if !ok {
		t.Fatalf("expected ButtonDetails, got %T", log[0].Details)
	}
	if d.Button != "right" || d.Location.X != 100 || d.Location.Y != 200 {
		t.Errorf("unexpected click details: %+v", d)
	}
}

func TestLateCallbackDiscarded(t *testing.T) {
	r, p, _ := newTestRecorder(t, Options{Trim: NoTrim})

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	p.cbs.OnClick(1, 1, hook.ButtonLeft, true)
	if _, err := r.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	// Hook goroutines may race the stop and deliver once more.
	p.cbs.OnClick(2, 2, hook.ButtonLeft, false)
	p.cbs.OnScroll(2, 2, 0, 1)

	if got := len(r.Snapshot()); got != 1 {
		t.Errorf("late callbacks were recorded, log has %d events", got)
	}
}

func TestTrimCutsStopGesture(t *testing.T) {
	r, p, k := newTestRecorder(t, Options{Trim: TrimLast(2)})

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	p.cbs.OnClick(5, 5, hook.ButtonLeft, true)
	p.cbs.OnClick(5, 5, hook.ButtonLeft, false)
	k.cbs.OnPress(hook.KeyOf('x'))
	// The operator stopping the recording is captured too.
	k.cbs.OnPress(hook.SpecialKey("esc", 1))
	k.cbs.OnRelease(hook.SpecialKey("esc", 1))

	sum, err := r.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if sum.Events != 3 || sum.Trimmed != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	log := r.Snapshot()
	if len(log) != 3 {
		t.Fatalf("expected 3 events after trim, got %d", len(log))
	}
	if d, ok := log[2].Details.(event.KeyDetails); !ok || d.Key != "x" {
		t.Errorf("trim removed the wrong tail: %+v", log[2])
	}
}

func TestTrimShorterThanPolicy(t *testing.T) {
	r, p, _ := newTestRecorder(t, Options{Trim: TrimLast(2)})

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	p.cbs.OnClick(1, 1, hook.ButtonLeft, true)

	sum, err := r.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if sum.Events != 0 || sum.Trimmed != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
}

func TestTrimPolicies(t *testing.T) {
	l := event.Log{{Timestamp: 1}, {Timestamp: 2}, {Timestamp: 3}}

	if got := NoTrim(l); len(got) != 3 {
		t.Errorf("NoTrim dropped events: %d", len(got))
	}
	if got := TrimLast(2)(l); len(got) != 1 || got[0].Timestamp != 1 {
		t.Errorf("TrimLast(2) = %+v", got)
	}
	if got := TrimLast(0)(l); len(got) != 3 {
		t.Errorf("TrimLast(0) should keep all, got %d", len(got))
	}
	if got := TrimLast(-1)(l); len(got) != 3 {
		t.Errorf("TrimLast(-1) should keep all, got %d", len(got))
	}
	if got := TrimLast(5)(l); len(got) != 0 {
		t.Errorf("TrimLast(5) should clamp to empty, got %d", len(got))
	}

	// A session holding nothing but the stop gesture trims to empty.
	gesture := event.Log{{Timestamp: 1}, {Timestamp: 2}}
	if got := TrimLast(2)(gesture); len(got) != 0 {
		t.Errorf("TrimLast(2) on a bare stop gesture should empty the log, got %d", len(got))
	}
}

func TestMaxEventsCap(t *testing.T) {
	r, p, _ := newTestRecorder(t, Options{Trim: NoTrim, MaxEvents: 3})

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 5; i++ {
		p.cbs.OnScroll(1, 1, 0, 1)
	}

	sum, err := r.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if sum.Events != 3 || sum.Dropped != 2 {
		t.Errorf("unexpected summary: %+v", sum)
	}
}

func TestAccumulateAcrossSessions(t *testing.T) {
	r, p, _ := newTestRecorder(t, Options{Trim: NoTrim})

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	p.cbs.OnClick(1, 1, hook.ButtonLeft, true)
	p.cbs.OnClick(1, 1, hook.ButtonLeft, false)
	if _, err := r.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	p.cbs.OnScroll(1, 1, 0, -1)
	sum, err := r.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if sum.Events != 3 {
		t.Errorf("expected accumulated log of 3, got %d", sum.Events)
	}
}

func TestResetOnStart(t *testing.T) {
	r, p, _ := newTestRecorder(t, Options{Trim: NoTrim, ResetOnStart: true})

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	p.cbs.OnClick(1, 1, hook.ButtonLeft, true)
	p.cbs.OnClick(1, 1, hook.ButtonLeft, false)
	if _, err := r.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	p.cbs.OnScroll(1, 1, 0, -1)
	sum, err := r.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if sum.Events != 1 {
		t.Errorf("expected reset log of 1, got %d", sum.Events)
	}
}

func TestUnresolvableKeyDropped(t *testing.T) {
	r, _, k := newTestRecorder(t, Options{Trim: NoTrim})

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	k.cbs.OnPress(hook.Key{})
	k.cbs.OnPress(hook.KeyOf('a'))

	log := r.Snapshot()
	if len(log) != 1 {
		t.Fatalf("expected only the resolvable key, got %d events", len(log))
	}
	if d := log[0].Details.(event.KeyDetails); d.Key != "a" {
		t.Errorf("unexpected key: %+v", d)
	}
}

func TestOnEventTapSeesLogOrder(t *testing.T) {
	var tapped []event.Event
	r, p, k := newTestRecorder(t, Options{
		Trim:    NoTrim,
		OnEvent: func(e event.Event) { tapped = append(tapped, e) },
	})

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	p.cbs.OnClick(1, 1, hook.ButtonLeft, true)
	k.cbs.OnPress(hook.KeyOf('z'))
	p.cbs.OnScroll(1, 1, 1, 0)

	log := r.Snapshot()
	if len(tapped) != len(log) {
		t.Fatalf("tap saw %d events, log has %d", len(tapped), len(log))
	}
	for i := range log {
		if tapped[i].Type != log[i].Type {
			t.Errorf("tap order diverges at %d: %s != %s", i, tapped[i].Type, log[i].Type)
		}
	}
}

func TestExport(t *testing.T) {
	r, p, _ := newTestRecorder(t, Options{Trim: NoTrim})

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	p.cbs.OnClick(3, 4, hook.ButtonMiddle, true)
	p.cbs.OnClick(3, 4, hook.ButtonMiddle, false)
	if _, err := r.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	dir := t.TempDir()
	path, err := r.Export(dir, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if want := filepath.Join(dir, DefaultFilename); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	log, err := event.ReadFile(path)
	if err != nil {
		t.Fatalf("read exported file: %v", err)
	}
	if len(log) != 2 {
		t.Errorf("exported log has %d events, want 2", len(log))
	}
	if d, ok := log[0].Details.(event.ButtonDetails); !ok || d.Button != "middle" {
		t.Errorf("export lost details: %+v", log[0])
	}

	// A nested output dir is created on demand.
	nested := filepath.Join(dir, "out", "sessions")
	if path, err = r.Export(nested, "s1.json"); err != nil {
		t.Fatalf("export to nested dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(nested, "s1.json")); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
}

func TestExportWhileRecording(t *testing.T) {
	r, _, _ := newTestRecorder(t, Options{})

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	dir := t.TempDir()
	if _, err := r.Export(dir, ""); !errors.Is(err, ErrRecording) {
		t.Fatalf("expected ErrRecording, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, DefaultFilename)); !os.IsNotExist(err) {
		t.Error("rejected export still produced a file")
	}
}

func TestExportBadDir(t *testing.T) {
	r, _, _ := newTestRecorder(t, Options{})

	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	// A path through a regular file cannot be created as a directory.
	if _, err := r.Export(filepath.Join(blocker, "sub"), ""); err == nil {
		t.Fatal("expected error exporting through a file")
	}
}

func TestSubscribeFailureUnwinds(t *testing.T) {
	r, p, k := newTestRecorder(t, Options{})
	k.err = errors.New("hook denied")

	if err := r.Start(); err == nil {
		t.Fatal("expected start to fail")
	}
	if !p.sub.stopped {
		t.Error("pointer subscription leaked after failed start")
	}
	if got := r.Status().State; got != StateIdle {
		t.Errorf("state after failed start = %v, want idle", got)
	}

	// The recorder recovers once the hook is available again.
	k.err = nil
	if err := r.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if _, err := r.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestStopJoinsSubscriptionErrors(t *testing.T) {
	r, p, k := newTestRecorder(t, Options{})
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	p.sub.err = errors.New("pointer hook busy")
	k.sub.err = errors.New("keyboard hook busy")

	sum, err := r.Stop()
	if err == nil {
		t.Fatal("expected joined stop error")
	}
	if !errors.Is(err, p.sub.err) || !errors.Is(err, k.sub.err) {
		t.Errorf("stop error should carry both causes: %v", err)
	}
	// The session still ends and the summary still describes it.
	if sum.SessionID == "" {
		t.Error("summary missing despite the session ending")
	}
	if r.Status().State != StateIdle {
		t.Error("recorder stuck in recording after stop error")
	}
}

func TestConcurrentAppends(t *testing.T) {
	r, p, k := newTestRecorder(t, Options{})

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	const workers = 8
	const perWorker = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if w%2 == 0 {
					p.cbs.OnScroll(w, i, 0, 1)
				} else {
					k.cbs.OnPress(hook.KeyOf('k'))
				}
			}
		}(w)
	}
	wg.Wait()

	sum, err := r.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if sum.Events != workers*perWorker {
		t.Fatalf("lost events under contention: %d != %d", sum.Events, workers*perWorker)
	}
	if !r.Snapshot().Sorted() {
		t.Error("concurrent appends broke timestamp order")
	}
}

func TestScriptSession(t *testing.T) {
	s := hook.DemoScript()
	r, err := New(Options{Pointer: s, Keyboard: s, Trim: TrimLast(2), Logger: discard()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Play(context.Background()); err != nil {
		t.Fatalf("play: %v", err)
	}
	sum, err := r.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}

	if sum.Events != 7 || sum.Trimmed != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	log := r.Snapshot()
	if !log.Sorted() {
		t.Error("timestamps not monotone")
	}
	counts := log.CountByType()
	if counts[event.MouseButtonDown] != 1 || counts[event.MouseScroll] != 1 || counts[event.KeyPress] != 2 {
		t.Errorf("unexpected counts: %+v", counts)
	}
	for _, e := range log {
		if d, ok := e.Details.(event.KeyDetails); ok && d.Key == "esc" {
			t.Error("stop gesture survived the trim")
		}
	}
}

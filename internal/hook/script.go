package hook

import (
	"context"
	"sync"
	"time"
)

// Script is a deterministic input source that replays a scripted timeline
// instead of hooking real devices. It implements both PointerSource and
// KeyboardSource and is used by the demo binary and in tests.
//
// Builder methods append to the timeline and return the script, so a
// sequence reads as a chain. Nothing is delivered until Play runs.
type Script struct {
	steps []step

	mu       sync.Mutex
	nextID   int
	pointer  map[int]PointerCallbacks
	keyboard map[int]KeyCallbacks
}

type step struct {
	delay time.Duration
	fire  func(s *Script)
}

func NewScript() *Script {
	return &Script{
		pointer:  make(map[int]PointerCallbacks),
		keyboard: make(map[int]KeyCallbacks),
	}
}

// SubscribePointer registers cbs for pointer steps. Delivery happens only
// while Play is running.
func (s *Script) SubscribePointer(cbs PointerCallbacks) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.pointer[id] = cbs
	return StopFunc(func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.pointer, id)
		return nil
	}), nil
}

// SubscribeKeyboard registers cbs for keyboard steps.
func (s *Script) SubscribeKeyboard(cbs KeyCallbacks) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.keyboard[id] = cbs
	return StopFunc(func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.keyboard, id)
		return nil
	}), nil
}

// Sleep inserts a pause before the next step.
func (s *Script) Sleep(d time.Duration) *Script {
	s.steps = append(s.steps, step{delay: d})
	return s
}

// Press appends a button-down at x, y.
func (s *Script) Press(x, y int, b Button) *Script {
	return s.add(func(sc *Script) {
		sc.eachPointer(func(cbs PointerCallbacks) {
			if cbs.OnClick != nil {
				cbs.OnClick(x, y, b, true)
			}
		})
	})
}

// Release appends a button-up at x, y.
func (s *Script) Release(x, y int, b Button) *Script {
	return s.add(func(sc *Script) {
		sc.eachPointer(func(cbs PointerCallbacks) {
			if cbs.OnClick != nil {
				cbs.OnClick(x, y, b, false)
			}
		})
	})
}

// Click appends a button-down immediately followed by a button-up.
func (s *Script) Click(x, y int, b Button) *Script {
	return s.Press(x, y, b).Release(x, y, b)
}

// Scroll appends a wheel step at x, y.
func (s *Script) Scroll(x, y, dx, dy int) *Script {
	return s.add(func(sc *Script) {
		sc.eachPointer(func(cbs PointerCallbacks) {
			if cbs.OnScroll != nil {
				cbs.OnScroll(x, y, dx, dy)
			}
		})
	})
}

// KeyDown appends a key press.
func (s *Script) KeyDown(k Key) *Script {
	return s.add(func(sc *Script) {
		sc.eachKeyboard(func(cbs KeyCallbacks) {
			if cbs.OnPress != nil {
				cbs.OnPress(k)
			}
		})
	})
}

// KeyUp appends a key release.
func (s *Script) KeyUp(k Key) *Script {
	return s.add(func(sc *Script) {
		sc.eachKeyboard(func(cbs KeyCallbacks) {
			if cbs.OnRelease != nil {
				cbs.OnRelease(k)
			}
		})
	})
}

// KeyTap appends a press immediately followed by a release.
func (s *Script) KeyTap(k Key) *Script {
	return s.KeyDown(k).KeyUp(k)
}

// Type appends a tap per rune with gap between them.
func (s *Script) Type(text string, gap time.Duration) *Script {
	for i, r := range text {
		if i > 0 && gap > 0 {
			s.Sleep(gap)
		}
		s.KeyTap(KeyOf(r))
	}
	return s
}

// Play runs the timeline, delivering each step to the current subscribers.
// It returns ctx.Err if the context ends mid-script.
func (s *Script) Play(ctx context.Context) error {
	for _, st := range s.steps {
		if st.delay > 0 {
			t := time.NewTimer(st.delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if st.fire != nil {
			st.fire(s)
		}
	}
	return nil
}

func (s *Script) add(fire func(*Script)) *Script {
	s.steps = append(s.steps, step{fire: fire})
	return s
}

func (s *Script) eachPointer(f func(PointerCallbacks)) {
	s.mu.Lock()
	subs := make([]PointerCallbacks, 0, len(s.pointer))
	for _, cbs := range s.pointer {
		subs = append(subs, cbs)
	}
	s.mu.Unlock()
	for _, cbs := range subs {
		f(cbs)
	}
}

func (s *Script) eachKeyboard(f func(KeyCallbacks)) {
	s.mu.Lock()
	subs := make([]KeyCallbacks, 0, len(s.keyboard))
	for _, cbs := range s.keyboard {
		subs = append(subs, cbs)
	}
	s.mu.Unlock()
	for _, cbs := range subs {
		f(cbs)
	}
}

// DemoScript is a short session: a click, a scroll, a typed word, then the
// operator reaching for esc to stop, which is the tail a trim policy cuts.
func DemoScript() *Script {
	return NewScript().
		Sleep(150 * time.Millisecond).
		Click(420, 310, ButtonLeft).
		Sleep(200 * time.Millisecond).
		Scroll(420, 310, 0, -3).
		Sleep(180 * time.Millisecond).
		Type("hi", 90*time.Millisecond).
		Sleep(250 * time.Millisecond).
		KeyDown(SpecialKey("esc", 1)).
		KeyUp(SpecialKey("esc", 1))
}

// Package hook abstracts the OS input hooks the recorder listens on.
//
// A source delivers callbacks from its own goroutine, never from inside
// Subscribe, and keeps delivering until the returned Subscription is
// stopped. Stopping is non-blocking: a callback already in flight may
// still be delivered after Stop returns.
package hook

import "fmt"

// Button identifies a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
	ButtonExtra
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	case ButtonExtra:
		return "extra"
	}
	return fmt.Sprintf("button%d", int(b))
}

// Key is one keyboard key as reported by the hook. Printable keys carry a
// Rune; special keys carry a Name and usually a hardware Code.
type Key struct {
	Rune rune
	Code uint16
	Name string
}

// KeyOf returns the Key for a printable character.
func KeyOf(r rune) Key { return Key{Rune: r} }

// SpecialKey returns a non-printable Key such as shift or esc.
func SpecialKey(name string, code uint16) Key { return Key{Name: name, Code: code} }

// PointerCallbacks receives pointer events. Nil fields are skipped.
type PointerCallbacks struct {
	// OnClick fires on button transitions, pressed true for down.
	OnClick func(x, y int, button Button, pressed bool)
	// OnScroll fires on wheel movement with the step deltas.
	OnScroll func(x, y, dx, dy int)
}

// KeyCallbacks receives keyboard events. Nil fields are skipped.
type KeyCallbacks struct {
	OnPress   func(Key)
	OnRelease func(Key)
}

// Subscription is a handle on an active callback registration.
type Subscription interface {
	// Stop ends delivery and releases the underlying hook.
	Stop() error
}

// StopFunc adapts a function to the Subscription interface.
type StopFunc func() error

func (f StopFunc) Stop() error { return f() }

// PointerSource is a device that can deliver pointer events.
type PointerSource interface {
	SubscribePointer(PointerCallbacks) (Subscription, error)
}

// KeyboardSource is a device that can deliver keyboard events.
type KeyboardSource interface {
	SubscribeKeyboard(KeyCallbacks) (Subscription, error)
}

// Package event defines the recorded input-event model and its JSON codec.
package event

import (
	"encoding/json"
	"fmt"
)

// Type identifies the kind of captured input event.
type Type string

const (
	MouseButtonDown Type = "mouse_button_down"
	MouseButtonUp   Type = "mouse_button_up"
	MouseScroll     Type = "mouse_scroll"
	KeyPress        Type = "key_press"
	KeyRelease      Type = "key_release"
)

// Known reports whether t is one of the recorded event types.
func (t Type) Known() bool {
	switch t {
	case MouseButtonDown, MouseButtonUp, MouseScroll, KeyPress, KeyRelease:
		return true
	}
	return false
}

// Location is a point in screen coordinates.
type Location struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ScrollDelta carries scroll movement on both axes.
type ScrollDelta struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// ButtonDetails is the payload of mouse_button_down and mouse_button_up.
type ButtonDetails struct {
	Location Location `json:"location"`
	Button   string   `json:"button"`
}

// ScrollDetails is the payload of mouse_scroll.
type ScrollDetails struct {
	Location    Location    `json:"location"`
	ScrollDelta ScrollDelta `json:"scroll_delta"`
}

// KeyDetails is the payload of key_press and key_release.
type KeyDetails struct {
	Key string `json:"key"`
}

// Event is one captured, timestamped user input. Timestamp is seconds since
// the start of the recording session.
type Event struct {
	Timestamp float64 `json:"timestamp"`
	Type      Type    `json:"type"`
	Details   any     `json:"details"`
}

// UnmarshalJSON decodes Details into the typed payload selected by Type.
// Events of an unknown type keep their details as a generic map so logs
// written by newer versions still load.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		Timestamp float64         `json:"timestamp"`
		Type      Type            `json:"type"`
		Details   json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Timestamp = raw.Timestamp
	e.Type = raw.Type
	e.Details = nil
	if len(raw.Details) == 0 || string(raw.Details) == "null" {
		return nil
	}

	switch raw.Type {
	case MouseButtonDown, MouseButtonUp:
		var d ButtonDetails
		if err := json.Unmarshal(raw.Details, &d); err != nil {
			return fmt.Errorf("decode %s details: %w", raw.Type, err)
		}
		e.Details = d
	case MouseScroll:
		var d ScrollDetails
		if err := json.Unmarshal(raw.Details, &d); err != nil {
			return fmt.Errorf("decode %s details: %w", raw.Type, err)
		}
		e.Details = d
	case KeyPress, KeyRelease:
		var d KeyDetails
		if err := json.Unmarshal(raw.Details, &d); err != nil {
			return fmt.Errorf("decode %s details: %w", raw.Type, err)
		}
		e.Details = d
	default:
		var d map[string]any
		if err := json.Unmarshal(raw.Details, &d); err != nil {
			return fmt.Errorf("decode %s details: %w", raw.Type, err)
		}
		e.Details = d
	}
	return nil
}

// Package keymap turns raw hook keys into the stable identifiers stored in
// a recording, e.g. "a", "enter", "shift".
package keymap

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/tomy27/input-recorder/internal/hook"
)

// ErrUnresolvable marks a key the map cannot name.
var ErrUnresolvable = errors.New("key not resolvable")

// Map resolves hook keys to identifiers. Printable runes resolve to
// themselves, special keys through the code table, and named keys through
// alias normalization.
type Map struct {
	names   map[uint16]string
	aliases map[string]string
}

// Default returns the built-in map covering the usual special keys on a
// PC keyboard, keyed by their input-event codes.
func Default() *Map {
	return &Map{
		names: map[uint16]string{
			1:   "esc",
			14:  "backspace",
			15:  "tab",
			28:  "enter",
			29:  "ctrl",
			42:  "shift",
			54:  "shift",
			56:  "alt",
			57:  "space",
			58:  "capslock",
			97:  "ctrl",
			100: "altgr",
			102: "home",
			103: "up",
			104: "pageup",
			105: "left",
			106: "right",
			107: "end",
			108: "down",
			109: "pagedown",
			110: "insert",
			111: "delete",
			125: "super",
		},
		aliases: map[string]string{
			"escape":    "esc",
			"return":    "enter",
			"control":   "ctrl",
			"ctrl_l":    "ctrl",
			"ctrl_r":    "ctrl",
			"shift_l":   "shift",
			"shift_r":   "shift",
			"alt_l":     "alt",
			"alt_r":     "alt",
			"alt_gr":    "altgr",
			"caps_lock": "capslock",
			"page_up":   "pageup",
			"page_down": "pagedown",
			"cmd":       "super",
			"win":       "super",
		},
	}
}

// Load reads a yaml overlay and applies it on top of the defaults. The file
// may carry a names section keyed by hardware code and an aliases section
// keyed by raw name, either one optional.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keymap: %w", err)
	}
	var raw struct {
		Names   map[uint16]string `yaml:"names"`
		Aliases map[string]string `yaml:"aliases"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse keymap %s: %w", path, err)
	}

	m := Default()
	for code, name := range raw.Names {
		m.names[code] = strings.ToLower(strings.TrimSpace(name))
	}
	for from, to := range raw.Aliases {
		m.aliases[normalize(from)] = strings.ToLower(strings.TrimSpace(to))
	}
	return m, nil
}

// Resolve returns the identifier for k. Printable runes win, then the code
// table, then the normalized key name. Keys carrying none of those resolve
// to an ErrUnresolvable.
func (m *Map) Resolve(k hook.Key) (string, error) {
	if k.Rune == ' ' {
		return "space", nil
	}
	if k.Rune != 0 && unicode.IsPrint(k.Rune) {
		return string(k.Rune), nil
	}
	if k.Code != 0 {
		if name, ok := m.names[k.Code]; ok {
			return name, nil
		}
	}
	if k.Name != "" {
		name := normalize(k.Name)
		if canon, ok := m.aliases[name]; ok {
			return canon, nil
		}
		return name, nil
	}
	return "", fmt.Errorf("%w: rune=%q code=%d name=%q", ErrUnresolvable, k.Rune, k.Code, k.Name)
}

func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimPrefix(name, "key.")
}

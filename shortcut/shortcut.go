package shortcut

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Modifiers is a bitmask of modifier keys. Bit positions match the raw values of
// the macOS NSEvent modifier flags so persisted shortcuts stay portable.
type Modifiers uint

const (
	Shift   Modifiers = 1 << 17
	Control Modifiers = 1 << 18
	Option  Modifiers = 1 << 19
	Command Modifiers = 1 << 20

	// Recognized is the set of modifiers a shortcut can carry.
	Recognized = Command | Option | Shift | Control
)

// ModifiersFrom keeps only the recognized modifier bits of raw.
func ModifiersFrom(raw uint) Modifiers {
	return Modifiers(raw) & Recognized
}

// Has reports whether all modifiers in m2 are set.
func (m Modifiers) Has(m2 Modifiers) bool {
	return m&m2 == m2
}

// Names of the two configurable slots.
const (
	NameAll         = "Rewrite All Text"
	NameHighlighted = "Rewrite Selected Text"
)

// Shortcut identifies a global hotkey by physical key code and modifier set
type Shortcut struct {
	Name      string
	KeyCode   uint16
	Modifiers Modifiers
}

// KeyEvent is a normalized key-down event
type KeyEvent struct {
	KeyCode   uint16
	Modifiers Modifiers
}

// DefaultAll returns the default "rewrite all" shortcut (⌘⌥B)
func DefaultAll() Shortcut {
	return Shortcut{Name: NameAll, KeyCode: 11, Modifiers: Command | Option}
}

// DefaultHighlighted returns the default "rewrite selection" shortcut (⌘⌥H)
func DefaultHighlighted() Shortcut {
	return Shortcut{Name: NameHighlighted, KeyCode: 4, Modifiers: Command | Option}
}

// Matches reports whether ev triggers s. Unrecognized modifiers in ev are ignored.
func (s Shortcut) Matches(ev KeyEvent) bool {
	return ev.KeyCode == s.KeyCode && ev.Modifiers&Recognized == s.Modifiers
}

// String renders the shortcut as glyphs followed by the key label, e.g. "⌘⌥B".
func (s Shortcut) String() string {
	var b strings.Builder
	if s.Modifiers.Has(Command) {
		b.WriteString("⌘")
	}
	if s.Modifiers.Has(Option) {
		b.WriteString("⌥")
	}
	if s.Modifiers.Has(Shift) {
		b.WriteString("⇧")
	}
	if s.Modifiers.Has(Control) {
		b.WriteString("⌃")
	}
	b.WriteString(strings.ToUpper(keyLabels[s.KeyCode]))
	return b.String()
}

// wireShortcut is the persisted JSON layout.
type wireShortcut struct {
	Name          string `json:"name"`
	KeyCode       uint16 `json:"keyCode"`
	ModifierFlags uint   `json:"modifierFlags"`
}

// Marshal encodes s for persistence
func Marshal(s Shortcut) ([]byte, error) {
	data, err := json.Marshal(wireShortcut{
		Name:          s.Name,
		KeyCode:       s.KeyCode,
		ModifierFlags: uint(s.Modifiers),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode shortcut: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a persisted shortcut. Absent or unreadable data yields fallback.
func Unmarshal(data []byte, fallback Shortcut) Shortcut {
	if len(data) == 0 {
		return fallback
	}

	var w struct {
		Name          *string `json:"name"`
		KeyCode       *uint16 `json:"keyCode"`
		ModifierFlags *uint   `json:"modifierFlags"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return fallback
	}
	if w.Name == nil || w.KeyCode == nil || w.ModifierFlags == nil {
		return fallback
	}

	return Shortcut{
		Name:      *w.Name,
		KeyCode:   *w.KeyCode,
		Modifiers: ModifiersFrom(*w.ModifierFlags),
	}
}

// IsModifierKey reports whether code is a bare modifier key (shift, control, option,
// command, caps lock, fn and their right-hand variants).
func IsModifierKey(code uint16) bool {
	return code >= 54 && code <= 63
}

// KeyLabel returns the lowercase label for a key code, or "" if unknown.
func KeyLabel(code uint16) string {
	return keyLabels[code]
}

// macOS virtual key codes
var keyLabels = map[uint16]string{
	0: "a", 1: "s", 2: "d", 3: "f", 4: "h", 5: "g", 6: "z", 7: "x",
	8: "c", 9: "v", 11: "b", 12: "q", 13: "w", 14: "e", 15: "r",
	16: "y", 17: "t", 32: "u", 31: "o", 35: "p", 37: "l", 38: "j",
	39: "'", 40: "k", 41: ";", 46: "m", 45: "n", 48: "tab", 49: "space",
	34: "i", 18: "1", 19: "2", 20: "3", 21: "4", 23: "5", 22: "6",
	26: "7", 28: "8", 25: "9", 29: "0", 27: "-", 24: "=", 33: "[",
	30: "]", 42: "\\", 43: ",", 47: ".", 44: "/", 50: "`",
}

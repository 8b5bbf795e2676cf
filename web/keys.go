package web

import "markestedt/textrewriter/shortcut"

// KeyboardEvent.code values mapped to macOS virtual key codes. The code
// names the physical key, so it matches what the global hook reports.
var domCodes = map[string]uint16{
	"KeyA": 0, "KeyS": 1, "KeyD": 2, "KeyF": 3, "KeyH": 4, "KeyG": 5,
	"KeyZ": 6, "KeyX": 7, "KeyC": 8, "KeyV": 9, "KeyB": 11, "KeyQ": 12,
	"KeyW": 13, "KeyE": 14, "KeyR": 15, "KeyY": 16, "KeyT": 17, "KeyO": 31,
	"KeyU": 32, "KeyI": 34, "KeyP": 35, "KeyL": 37, "KeyJ": 38, "KeyK": 40,
	"KeyN": 45, "KeyM": 46,

	"Digit1": 18, "Digit2": 19, "Digit3": 20, "Digit4": 21, "Digit5": 23,
	"Digit6": 22, "Digit7": 26, "Digit8": 28, "Digit9": 25, "Digit0": 29,

	"Minus": 27, "Equal": 24, "BracketLeft": 33, "BracketRight": 30,
	"Backslash": 42, "Semicolon": 41, "Quote": 39, "Backquote": 50,
	"Comma": 43, "Period": 47, "Slash": 44,

	"Tab": 48, "Space": 49, "Enter": 36, "Backspace": 51, "Escape": 53,
	"ArrowUp": 126, "ArrowDown": 125, "ArrowLeft": 123, "ArrowRight": 124,

	"F1": 122, "F2": 120, "F3": 99, "F4": 118, "F5": 96, "F6": 97,
	"F7": 98, "F8": 100, "F9": 101, "F10": 109, "F11": 103, "F12": 111,

	"MetaRight": 54, "MetaLeft": 55, "ShiftLeft": 56, "CapsLock": 57,
	"AltLeft": 58, "ControlLeft": 59, "ShiftRight": 60, "AltRight": 61,
	"ControlRight": 62,
}

// browserKey is a key press captured by the settings page
type browserKey struct {
	Code  string `json:"code"`
	Meta  bool   `json:"metaKey"`
	Alt   bool   `json:"altKey"`
	Shift bool   `json:"shiftKey"`
	Ctrl  bool   `json:"ctrlKey"`
}

// keyEvent converts a browser key press. ok is false for unknown keys and
// bare modifier presses.
func (k browserKey) keyEvent() (ev shortcut.KeyEvent, ok bool) {
	code, ok := domCodes[k.Code]
	if !ok || shortcut.IsModifierKey(code) {
		return shortcut.KeyEvent{}, false
	}

	var mods shortcut.Modifiers
	if k.Meta {
		mods |= shortcut.Command
	}
	if k.Alt {
		mods |= shortcut.Option
	}
	if k.Shift {
		mods |= shortcut.Shift
	}
	if k.Ctrl {
		mods |= shortcut.Control
	}
	return shortcut.KeyEvent{KeyCode: code, Modifiers: mods}, true
}

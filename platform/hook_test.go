package platform

import (
	"testing"

	hook "github.com/robotn/gohook"
	"github.com/stretchr/testify/assert"

	"markestedt/textrewriter/shortcut"
)

func TestModifiersFromMask(t *testing.T) {
	tests := []struct {
		mask uint16
		want shortcut.Modifiers
	}{
		{0, 0},
		{maskMetaL, shortcut.Command},
		{maskMetaR | maskAltL, shortcut.Command | shortcut.Option},
		{maskShiftR, shortcut.Shift},
		{maskCtrlL | maskCtrlR, shortcut.Control},
		{0xff, shortcut.Recognized},
		{1 << 8, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, modifiersFromMask(tt.mask), "mask %#x", tt.mask)
	}
}

func TestToKeyEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   hook.Event
		want shortcut.KeyEvent
		ok   bool
	}{
		{
			name: "default rewrite all chord",
			ev:   hook.Event{Kind: hook.KeyHold, Keycode: 0x0030, Rawcode: 0x42, Mask: maskMetaL | maskAltL},
			want: shortcut.KeyEvent{KeyCode: 11, Modifiers: shortcut.Command | shortcut.Option},
			ok:   true,
		},
		{
			name: "default rewrite selected chord",
			ev:   hook.Event{Kind: hook.KeyHold, Keycode: 0x0023, Rawcode: 0x48, Mask: maskMetaR | maskAltR},
			want: shortcut.KeyEvent{KeyCode: 4, Modifiers: shortcut.Command | shortcut.Option},
			ok:   true,
		},
		{
			name: "digit keeps its own code",
			ev:   hook.Event{Kind: hook.KeyHold, Keycode: 0x000A, Rawcode: 0x39, Mask: maskCtrlL},
			want: shortcut.KeyEvent{KeyCode: 25, Modifiers: shortcut.Control},
			ok:   true,
		},
		{
			name: "left control alone",
			ev:   hook.Event{Kind: hook.KeyHold, Keycode: 0x001D, Rawcode: 0xA2, Mask: maskCtrlL},
			want: shortcut.KeyEvent{KeyCode: 59, Modifiers: shortcut.Control},
			ok:   true,
		},
		{
			name: "unmapped key",
			ev:   hook.Event{Kind: hook.KeyHold, Keycode: 0x0E37, Rawcode: 0x2C},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toKeyEvent(tt.ev)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModifierKeysMapToModifierCodes(t *testing.T) {
	modifierVCs := []uint16{0x002A, 0x0036, 0x001D, 0x0E1D, 0x0038, 0x0E38, 0x0E5B, 0x0E5C, 0x003A}
	for _, vc := range modifierVCs {
		code, ok := macKeyCode(vc)
		assert.True(t, ok, "vc %#x", vc)
		assert.True(t, shortcut.IsModifierKey(code), "vc %#x -> %d", vc, code)
	}
}

func TestKeyCodeTableIsInjective(t *testing.T) {
	seen := make(map[uint16]uint16)
	for vc, code := range vcToMac {
		prev, dup := seen[code]
		assert.False(t, dup, "vc %#x and %#x both map to %d", vc, prev, code)
		seen[code] = vc
	}
}

func TestDigitsAreNotModifiers(t *testing.T) {
	for vc := uint16(0x0002); vc <= 0x000B; vc++ {
		code, ok := macKeyCode(vc)
		assert.True(t, ok)
		assert.False(t, shortcut.IsModifierKey(code), "vc %#x", vc)
		assert.NotEmpty(t, shortcut.KeyLabel(code), "vc %#x", vc)
	}
}

func TestChordString(t *testing.T) {
	assert.Equal(t, "select-all", SelectAll.String())
	assert.Equal(t, "copy", Copy.String())
	assert.Equal(t, "paste", Paste.String())
	assert.Equal(t, "unknown", Chord(42).String())
}

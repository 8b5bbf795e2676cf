package shortcut

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalRoundTrip(t *testing.T) {
	cases := []Shortcut{
		DefaultAll(),
		DefaultHighlighted(),
		{Name: "Custom", KeyCode: 49, Modifiers: 0},
		{Name: "", KeyCode: 0, Modifiers: Recognized},
		{Name: "Ünïcode ⌘", KeyCode: 65535, Modifiers: Shift | Control},
	}

	for _, s := range cases {
		data, err := Marshal(s)
		require.NoError(t, err)
		assert.Equal(t, s, Unmarshal(data, DefaultAll()))
	}
}

func TestMarshalLayout(t *testing.T) {
	data, err := Marshal(DefaultAll())
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Rewrite All Text","keyCode":11,"modifierFlags":1572864}`, string(data))
}

func TestUnmarshalFallback(t *testing.T) {
	fallback := DefaultHighlighted()
	inputs := [][]byte{
		nil,
		{},
		[]byte("garbage"),
		[]byte(`{"name":"x"}`),
		[]byte(`{"name":"x","keyCode":-1,"modifierFlags":0}`),
		[]byte(`[1,2,3]`),
	}

	for _, in := range inputs {
		assert.Equal(t, fallback, Unmarshal(in, fallback), "input %q", in)
	}
}

func TestUnmarshalMasksUnknownModifiers(t *testing.T) {
	// caps lock (1<<16) and numeric pad (1<<21) bits are dropped
	data := []byte(`{"name":"A","keyCode":0,"modifierFlags":3342336}`)
	s := Unmarshal(data, DefaultAll())
	assert.Equal(t, Command|Shift, s.Modifiers)
}

func TestString(t *testing.T) {
	assert.Equal(t, "⌘⌥B", Shortcut{KeyCode: 11, Modifiers: Command | Option}.String())
	assert.Equal(t, "SPACE", Shortcut{KeyCode: 49}.String())
	assert.Equal(t, "⌘⌥⇧⌃TAB", Shortcut{KeyCode: 48, Modifiers: Recognized}.String())
	assert.Equal(t, "⌘⌥", Shortcut{KeyCode: 122, Modifiers: Option | Command}.String())
	assert.Equal(t, "⌥H", Shortcut{KeyCode: 4, Modifiers: Option}.String())
	assert.Equal(t, "⌃6", Shortcut{KeyCode: 22, Modifiers: Control}.String())
	assert.Equal(t, "⌘/", Shortcut{KeyCode: 44, Modifiers: Command}.String())
}

func TestMatches(t *testing.T) {
	s := DefaultAll()
	assert.True(t, s.Matches(KeyEvent{KeyCode: 11, Modifiers: Command | Option}))
	assert.True(t, s.Matches(KeyEvent{KeyCode: 11, Modifiers: Command | Option | 1<<16}))
	assert.False(t, s.Matches(KeyEvent{KeyCode: 11, Modifiers: Command}))
	assert.False(t, s.Matches(KeyEvent{KeyCode: 11, Modifiers: Command | Option | Shift}))
	assert.False(t, s.Matches(KeyEvent{KeyCode: 4, Modifiers: Command | Option}))
}

func TestIsModifierKey(t *testing.T) {
	for code := uint16(54); code <= 63; code++ {
		assert.True(t, IsModifierKey(code), "code %d", code)
	}
	assert.False(t, IsModifierKey(53))
	assert.False(t, IsModifierKey(64))
	assert.False(t, IsModifierKey(11))
}

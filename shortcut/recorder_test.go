package shortcut

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorderIgnoresBareModifiers(t *testing.T) {
	r := NewRecorder()
	var got []Shortcut
	r.Start(DefaultAll(), func(s Shortcut) { got = append(got, s) })

	for _, code := range []uint16{54, 55, 56, 58, 59, 63} {
		assert.True(t, r.HandleKey(KeyEvent{KeyCode: code, Modifiers: Command}))
		assert.Equal(t, Recording, r.State())
	}
	assert.Empty(t, got)

	assert.True(t, r.HandleKey(KeyEvent{KeyCode: 17, Modifiers: Command | Shift | 1<<16}))
	assert.Equal(t, Idle, r.State())
	assert.Equal(t, []Shortcut{{Name: NameAll, KeyCode: 17, Modifiers: Command | Shift}}, got)
}

func TestRecorderIdleDoesNotConsume(t *testing.T) {
	r := NewRecorder()
	assert.False(t, r.HandleKey(KeyEvent{KeyCode: 11, Modifiers: Command | Option}))
	assert.Equal(t, Idle, r.State())
}

func TestRecorderCancel(t *testing.T) {
	r := NewRecorder()
	called := false
	r.Start(DefaultHighlighted(), func(Shortcut) { called = true })
	r.Cancel()

	assert.Equal(t, Idle, r.State())
	assert.False(t, r.HandleKey(KeyEvent{KeyCode: 0}))
	assert.False(t, called)
}

func TestRecorderRestartReplacesListener(t *testing.T) {
	r := NewRecorder()
	var first, second int
	r.Start(DefaultAll(), func(Shortcut) { first++ })
	r.Start(DefaultHighlighted(), func(s Shortcut) {
		second++
		assert.Equal(t, NameHighlighted, s.Name)
	})

	r.HandleKey(KeyEvent{KeyCode: 12})
	r.HandleKey(KeyEvent{KeyCode: 13})

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

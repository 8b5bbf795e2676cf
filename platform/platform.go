package platform

import (
	"context"

	"markestedt/textrewriter/shortcut"
)

// Chord is a synthetic key combination sent to the focused application
type Chord int

const (
	SelectAll Chord = iota
	Copy
	Paste
)

func (c Chord) String() string {
	switch c {
	case SelectAll:
		return "select-all"
	case Copy:
		return "copy"
	case Paste:
		return "paste"
	default:
		return "unknown"
	}
}

// KeySource delivers every key-down event system-wide
type KeySource interface {
	Listen(ctx context.Context) (<-chan shortcut.KeyEvent, error)
}

// Clipboard provides clipboard access
type Clipboard interface {
	Get() (string, error)
	Set(text string) error
}

// Keyboard injects synthetic key chords
type Keyboard interface {
	Send(chord Chord) error
}

package platform

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	hook "github.com/robotn/gohook"

	"markestedt/textrewriter/shortcut"
)

// libuiohook modifier mask bits
const (
	maskShiftL = 1 << 0
	maskCtrlL  = 1 << 1
	maskMetaL  = 1 << 2
	maskAltL   = 1 << 3
	maskShiftR = 1 << 4
	maskCtrlR  = 1 << 5
	maskMetaR  = 1 << 6
	maskAltR   = 1 << 7
)

// the native hook is process-wide
var hookMu sync.Mutex

// GlobalKeySource implements KeySource with a system-wide keyboard hook.
// Events are observed, never swallowed.
type GlobalKeySource struct {
	mu      sync.Mutex
	running bool
}

// NewKeySource creates a new global key source
func NewKeySource() KeySource {
	return &GlobalKeySource{}
}

// Listen installs the hook and streams key-down events until ctx is done,
// at which point the hook is removed and the channel closed.
func (s *GlobalKeySource) Listen(ctx context.Context) (<-chan shortcut.KeyEvent, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, fmt.Errorf("key source already listening")
	}
	s.running = true
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		s.stopped()
		return nil, err
	}

	hookMu.Lock()
	raw := hook.Start()
	slog.Debug("Keyboard hook installed")

	events := make(chan shortcut.KeyEvent, 16)
	go func() {
		defer func() {
			hook.End()
			hookMu.Unlock()
			close(events)
			s.stopped()
			slog.Debug("Keyboard hook removed")
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-raw:
				if !ok {
					return
				}
				if ev.Kind != hook.KeyHold {
					continue
				}
				kev, ok := toKeyEvent(ev)
				if !ok {
					slog.Debug("Ignoring unmapped key", "keycode", ev.Keycode, "rawcode", ev.Rawcode)
					continue
				}
				select {
				case events <- kev:
				default:
					slog.Warn("Dropping key event, consumer is behind", "keycode", ev.Keycode)
				}
			}
		}
	}()

	return events, nil
}

func (s *GlobalKeySource) stopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// toKeyEvent converts a native pressed event. KeyHold is libuiohook's
// key-pressed event; KeyDown only fires for printable characters.
// Rawcode is OS specific, so the portable Keycode is translated instead.
func toKeyEvent(ev hook.Event) (shortcut.KeyEvent, bool) {
	code, ok := macKeyCode(ev.Keycode)
	if !ok {
		return shortcut.KeyEvent{}, false
	}
	return shortcut.KeyEvent{
		KeyCode:   code,
		Modifiers: modifiersFromMask(ev.Mask),
	}, true
}

func modifiersFromMask(mask uint16) shortcut.Modifiers {
	var m shortcut.Modifiers
	if mask&(maskMetaL|maskMetaR) != 0 {
		m |= shortcut.Command
	}
	if mask&(maskAltL|maskAltR) != 0 {
		m |= shortcut.Option
	}
	if mask&(maskShiftL|maskShiftR) != 0 {
		m |= shortcut.Shift
	}
	if mask&(maskCtrlL|maskCtrlR) != 0 {
		m |= shortcut.Control
	}
	return m
}

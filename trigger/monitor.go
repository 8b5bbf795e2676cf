// Package trigger matches system-wide key presses against the configured
// rewrite shortcuts.
package trigger

import (
	"context"
	"fmt"
	"log/slog"

	"markestedt/textrewriter/platform"
	"markestedt/textrewriter/shortcut"
)

// Slot identifies one of the two configurable shortcuts
type Slot int

const (
	SlotAll Slot = iota
	SlotHighlighted
)

func (s Slot) String() string {
	switch s {
	case SlotAll:
		return "all"
	case SlotHighlighted:
		return "highlighted"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}

// ParseSlot parses "all" or "highlighted"
func ParseSlot(s string) (Slot, error) {
	switch s {
	case "all":
		return SlotAll, nil
	case "highlighted", "selected", "selection":
		return SlotHighlighted, nil
	default:
		return 0, fmt.Errorf("unknown shortcut slot: %q", s)
	}
}

// Shortcuts supplies the current shortcut configuration. It is read on every event.
type Shortcuts interface {
	Shortcuts() (all, highlighted shortcut.Shortcut)
}

// Handler is invoked on a match; selectAll is true for the "all" slot
type Handler func(selectAll bool)

// Interceptor gets first look at every event and may consume it
type Interceptor interface {
	HandleKey(ev shortcut.KeyEvent) bool
}

// Match compares ev against all, then highlighted
func Match(ev shortcut.KeyEvent, all, highlighted shortcut.Shortcut) (Slot, bool) {
	if all.Matches(ev) {
		return SlotAll, true
	}
	if highlighted.Matches(ev) {
		return SlotHighlighted, true
	}
	return 0, false
}

// Monitor dispatches matching key events to a handler
type Monitor struct {
	source      platform.KeySource
	shortcuts   Shortcuts
	interceptor Interceptor
	handler     Handler
}

// NewMonitor creates a monitor. interceptor may be nil.
func NewMonitor(source platform.KeySource, shortcuts Shortcuts, interceptor Interceptor, handler Handler) *Monitor {
	return &Monitor{
		source:      source,
		shortcuts:   shortcuts,
		interceptor: interceptor,
		handler:     handler,
	}
}

// HandleKey routes one event. It returns true if the event was consumed by the
// interceptor or matched a shortcut.
func (m *Monitor) HandleKey(ev shortcut.KeyEvent) bool {
	if m.interceptor != nil && m.interceptor.HandleKey(ev) {
		return true
	}

	all, highlighted := m.shortcuts.Shortcuts()
	slot, ok := Match(ev, all, highlighted)
	if !ok {
		return false
	}

	slog.Debug("Shortcut triggered", "slot", slot, "keycode", ev.KeyCode)
	m.handler(slot == SlotAll)
	return true
}

// Run holds the system-wide hook until ctx is done. The hook is always
// released before Run returns.
func (m *Monitor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := m.source.Listen(ctx)
	if err != nil {
		return fmt.Errorf("failed to start key listener: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("key listener stopped unexpectedly")
			}
			m.HandleKey(ev)
		}
	}
}

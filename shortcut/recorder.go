package shortcut

import (
	"log/slog"
	"sync"
)

// RecorderState is the state of a Recorder
type RecorderState int

const (
	Idle RecorderState = iota
	Recording
)

func (s RecorderState) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// Recorder captures the next non-modifier key press as a new Shortcut
type Recorder struct {
	mu        sync.Mutex
	state     RecorderState
	current   Shortcut
	onCapture func(Shortcut)
}

// NewRecorder creates an idle recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// State returns the current recorder state
func (r *Recorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start begins recording a replacement for current. An active recording is
// cancelled first; its callback never fires.
func (r *Recorder) Start(current Shortcut, onCapture func(Shortcut)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Recording {
		slog.Info("Cancelling active shortcut recording", "shortcut", r.current.Name)
	}

	r.state = Recording
	r.current = current
	r.onCapture = onCapture
	slog.Info("Recording shortcut", "shortcut", current.Name)
}

// Cancel stops recording without producing a value
func (r *Recorder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Recording {
		slog.Info("Shortcut recording cancelled", "shortcut", r.current.Name)
	}
	r.state = Idle
	r.onCapture = nil
}

// HandleKey offers a key-down event to the recorder. It returns true when the
// event was consumed, which is always the case while recording.
func (r *Recorder) HandleKey(ev KeyEvent) bool {
	r.mu.Lock()
	if r.state != Recording {
		r.mu.Unlock()
		return false
	}

	if IsModifierKey(ev.KeyCode) {
		r.mu.Unlock()
		return true
	}

	captured := Shortcut{
		Name:      r.current.Name,
		KeyCode:   ev.KeyCode,
		Modifiers: ev.Modifiers & Recognized,
	}
	cb := r.onCapture
	r.state = Idle
	r.onCapture = nil
	r.mu.Unlock()

	slog.Info("Shortcut recorded", "shortcut", captured.Name, "keys", captured.String())
	if cb != nil {
		cb(captured)
	}
	return true
}

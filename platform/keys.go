//go:build !windows

package platform

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
)

// uinput devices are not usable until udev has picked them up
const linuxSettleDelay = 2 * time.Second

var newKeyBonding = keybd_event.NewKeyBonding

// BondingKeyboard implements Keyboard with synthetic CGEvent (macOS) or
// uinput (Linux) key presses. On macOS chords use Command, elsewhere Control.
type BondingKeyboard struct {
	mu    sync.Mutex
	ready chan struct{}
	kb    *keybd_event.KeyBonding
	err   error
}

// NewKeyboard creates a new keyboard instance. The device is opened in the
// background right away so it has settled before the first chord.
func NewKeyboard() Keyboard {
	k := &BondingKeyboard{ready: make(chan struct{})}
	go k.open(settleDelay())
	return k
}

func settleDelay() time.Duration {
	if runtime.GOOS == "linux" {
		return linuxSettleDelay
	}
	return 0
}

func (k *BondingKeyboard) open(settle time.Duration) {
	defer close(k.ready)

	kb, err := newKeyBonding()
	if err != nil {
		k.err = fmt.Errorf("failed to create key bonding: %w", err)
		return
	}
	if settle > 0 {
		time.Sleep(settle)
	}
	k.kb = &kb
}

// Send presses and releases the chord
func (k *BondingKeyboard) Send(chord Chord) error {
	var key int
	switch chord {
	case SelectAll:
		key = keybd_event.VK_A
	case Copy:
		key = keybd_event.VK_C
	case Paste:
		key = keybd_event.VK_V
	default:
		return fmt.Errorf("unsupported chord: %s", chord)
	}

	<-k.ready
	if k.err != nil {
		return k.err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.kb.Clear()
	k.kb.SetKeys(key)
	if runtime.GOOS == "darwin" {
		k.kb.HasSuper(true)
		k.kb.HasCTRL(false)
	} else {
		k.kb.HasCTRL(true)
		k.kb.HasSuper(false)
	}

	if err := k.kb.Launching(); err != nil {
		return fmt.Errorf("failed to send %s: %w", chord, err)
	}
	return nil
}

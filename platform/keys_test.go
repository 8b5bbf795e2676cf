//go:build !windows

package platform

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/micmonay/keybd_event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyboardOpensDeviceAtConstruction(t *testing.T) {
	var calls atomic.Int32
	errNoDevice := errors.New("no uinput")
	orig := newKeyBonding
	newKeyBonding = func() (keybd_event.KeyBonding, error) {
		calls.Add(1)
		return keybd_event.KeyBonding{}, errNoDevice
	}
	t.Cleanup(func() { newKeyBonding = orig })

	kb := NewKeyboard()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	err := kb.Send(SelectAll)
	assert.ErrorIs(t, err, errNoDevice)
	assert.ErrorIs(t, kb.Send(Copy), errNoDevice)
	assert.Equal(t, int32(1), calls.Load())
}

func TestKeyboardOpenReportsError(t *testing.T) {
	k := &BondingKeyboard{ready: make(chan struct{})}
	orig := newKeyBonding
	newKeyBonding = func() (keybd_event.KeyBonding, error) {
		return keybd_event.KeyBonding{}, errors.New("no device")
	}
	t.Cleanup(func() { newKeyBonding = orig })

	go k.open(0)
	select {
	case <-k.ready:
	case <-time.After(time.Second):
		t.Fatal("device never became ready")
	}
	assert.Error(t, k.err)
}

func TestSendRejectsUnknownChord(t *testing.T) {
	k := &BondingKeyboard{ready: make(chan struct{})}
	close(k.ready)
	assert.Error(t, k.Send(Chord(42)))
}

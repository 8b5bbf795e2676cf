//go:build windows

package platform

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32         = windows.NewLazySystemDLL("user32.dll")
	sendInput      = user32.NewProc("SendInput")
	mapVirtualKeyW = user32.NewProc("MapVirtualKeyW")
)

const (
	inputKeyboard  = 1
	keyeventfKeyup = 0x0002
	mapvkVkToVsc   = 0
	vkControl      = 0x11
	vkA            = 0x41
	vkC            = 0x43
	vkV            = 0x56
)

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	inputType uint32
	ki        keyboardInput
	padding   [8]byte // Padding to match C struct size
}

// WindowsKeyboard implements the Keyboard interface with SendInput
type WindowsKeyboard struct{}

// NewKeyboard creates a new Windows keyboard instance
func NewKeyboard() Keyboard {
	return &WindowsKeyboard{}
}

// Send presses and releases Ctrl plus the chord's key, using scan codes for
// compatibility with elevated applications
func (k *WindowsKeyboard) Send(chord Chord) error {
	var vk uintptr
	switch chord {
	case SelectAll:
		vk = vkA
	case Copy:
		vk = vkC
	case Paste:
		vk = vkV
	default:
		return fmt.Errorf("unsupported chord: %s", chord)
	}

	ctrlScan, _, _ := mapVirtualKeyW.Call(vkControl, mapvkVkToVsc)
	keyScan, _, _ := mapVirtualKeyW.Call(vk, mapvkVkToVsc)

	key := func(code, scan uintptr, flags uint32) input {
		return input{
			inputType: inputKeyboard,
			ki: keyboardInput{
				wVk:     uint16(code),
				wScan:   uint16(scan),
				dwFlags: flags,
			},
		}
	}

	inputs := []input{
		key(vkControl, ctrlScan, 0),
		key(vk, keyScan, 0),
		key(vk, keyScan, keyeventfKeyup),
		key(vkControl, ctrlScan, keyeventfKeyup),
	}

	// Send all inputs at once for better atomicity
	ret, _, err := sendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if ret == 0 {
		return fmt.Errorf("SendInput failed: %w", err)
	}

	return nil
}

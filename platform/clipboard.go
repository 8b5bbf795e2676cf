package platform

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// SystemClipboard implements Clipboard on top of the OS plain-text pasteboard
type SystemClipboard struct{}

// NewClipboard creates a new system clipboard instance
func NewClipboard() Clipboard {
	return &SystemClipboard{}
}

// Get retrieves text from the clipboard
func (c *SystemClipboard) Get() (string, error) {
	if clipboard.Unsupported {
		return "", fmt.Errorf("clipboard not supported on this system")
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return text, nil
}

// Set replaces the clipboard content with text
func (c *SystemClipboard) Set(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard not supported on this system")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

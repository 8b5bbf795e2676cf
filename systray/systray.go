package systray

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"markestedt/textrewriter/shortcut"
	"markestedt/textrewriter/trigger"
	"markestedt/textrewriter/workflow"
)

// Controller is the part of the agent driven from the menu
type Controller interface {
	Shortcuts() (all, highlighted shortcut.Shortcut)
	StartRecording(slot trigger.Slot)
	CancelRecording()
	ResetShortcut(slot trigger.Slot) error
	Rewrite(selectAll bool) bool
}

// SystrayManager manages the menu bar icon and menu
type SystrayManager struct {
	ctrl     Controller
	webURL   string
	iconData []byte
	quit     chan struct{}
	quitOnce sync.Once

	mu          sync.Mutex
	ready       bool
	mAll        *systray.MenuItem
	mHighlight  *systray.MenuItem
	mRecordAll  *systray.MenuItem
	mRecordHl   *systray.MenuItem
	mCancel     *systray.MenuItem
	mLastResult *systray.MenuItem
}

// NewSystrayManager creates a new systray manager. webURL may be empty when the settings page is disabled.
func NewSystrayManager(ctrl Controller, webURL string, iconData []byte) *SystrayManager {
	return &SystrayManager{
		ctrl:     ctrl,
		webURL:   webURL,
		iconData: iconData,
		quit:     make(chan struct{}),
	}
}

// Run starts the system tray (blocking call). It must run on the main goroutine.
func (m *SystrayManager) Run() {
	systray.Run(m.onReady, m.onExit)
}

// Stop stops the system tray
func (m *SystrayManager) Stop() {
	systray.Quit()
}

// WaitForQuit returns a channel that will be closed when user clicks Quit
func (m *SystrayManager) WaitForQuit() <-chan struct{} {
	return m.quit
}

// onReady is called when the systray is ready
func (m *SystrayManager) onReady() {
	if len(m.iconData) > 0 {
		systray.SetTemplateIcon(m.iconData, m.iconData)
	} else {
		systray.SetTitle("✎")
	}
	systray.SetTooltip("Text Rewriter")

	m.mu.Lock()
	m.mAll = systray.AddMenuItem("", "Rewrites all text in the focused field")
	m.mAll.Disable()
	m.mHighlight = systray.AddMenuItem("", "Rewrites the selected text")
	m.mHighlight.Disable()
	mRewriteAll := systray.AddMenuItem("Rewrite All Text Now", "Rewrites the field focused before the menu opened")
	mRewriteSel := systray.AddMenuItem("Rewrite Selected Text Now", "Rewrites the selection in the focused app")
	systray.AddSeparator()

	mShortcuts := systray.AddMenuItem("Shortcuts", "Change the keyboard shortcuts")
	m.mRecordAll = mShortcuts.AddSubMenuItem("Record Rewrite All Text", "Press the new shortcut after clicking")
	m.mRecordHl = mShortcuts.AddSubMenuItem("Record Rewrite Selected Text", "Press the new shortcut after clicking")
	m.mCancel = mShortcuts.AddSubMenuItem("Cancel Recording", "")
	m.mCancel.Disable()
	mReset := mShortcuts.AddSubMenuItem("Reset to Defaults", "")

	m.mLastResult = systray.AddMenuItem("No rewrites yet", "")
	m.mLastResult.Disable()
	systray.AddSeparator()

	mSettings := systray.AddMenuItem("Settings…", "Open the settings page")
	if m.webURL == "" {
		mSettings.Hide()
	}
	mQuit := systray.AddMenuItem("Quit", "Exit Text Rewriter")
	m.ready = true
	m.mu.Unlock()

	m.RefreshShortcuts()

	go func() {
		for {
			select {
			case <-mRewriteAll.ClickedCh:
				m.rewrite(true)
			case <-mRewriteSel.ClickedCh:
				m.rewrite(false)
			case <-m.mRecordAll.ClickedCh:
				m.ctrl.StartRecording(trigger.SlotAll)
			case <-m.mRecordHl.ClickedCh:
				m.ctrl.StartRecording(trigger.SlotHighlighted)
			case <-m.mCancel.ClickedCh:
				m.ctrl.CancelRecording()
			case <-mReset.ClickedCh:
				for _, slot := range []trigger.Slot{trigger.SlotAll, trigger.SlotHighlighted} {
					if err := m.ctrl.ResetShortcut(slot); err != nil {
						slog.Error("Failed to reset shortcut", "slot", slot, "error", err)
					}
				}
				m.RefreshShortcuts()
			case <-mSettings.ClickedCh:
				m.openSettings()
			case <-mQuit.ClickedCh:
				slog.Info("User requested quit from system tray")
				m.quitOnce.Do(func() { close(m.quit) })
				systray.Quit()
				return
			}
		}
	}()
}

func (m *SystrayManager) rewrite(selectAll bool) {
	if !m.ctrl.Rewrite(selectAll) {
		slog.Info("Rewrite already running", "select_all", selectAll)
	}
}

// onExit is called when the systray is exiting
func (m *SystrayManager) onExit() {
	m.quitOnce.Do(func() { close(m.quit) })
	slog.Info("System tray exited")
}

// RefreshShortcuts updates the shortcut labels from the controller
func (m *SystrayManager) RefreshShortcuts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return
	}

	all, highlighted := m.ctrl.Shortcuts()
	m.mAll.SetTitle(shortcutLabel("Rewrite All Text", all))
	m.mHighlight.SetTitle(shortcutLabel("Rewrite Selected Text", highlighted))
}

// SetStatus reflects the agent status in the menu
func (m *SystrayManager) SetStatus(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return
	}

	switch status {
	case "recording":
		m.mCancel.Enable()
		systray.SetTooltip("Text Rewriter: press the new shortcut")
	case "rewriting":
		m.mCancel.Disable()
		systray.SetTooltip("Text Rewriter: rewriting…")
	default:
		m.mCancel.Disable()
		systray.SetTooltip("Text Rewriter")
	}
}

// SetResult shows the last rewrite in the menu
func (m *SystrayManager) SetResult(res workflow.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return
	}

	m.mLastResult.SetTitle(resultLabel(res))
	m.mLastResult.SetTooltip(res.Text)
}

func shortcutLabel(action string, s shortcut.Shortcut) string {
	return fmt.Sprintf("%s  %s", action, s.String())
}

const maxLabelRunes = 40

func resultLabel(res workflow.Result) string {
	prefix := "Last: "
	if !res.Success() {
		prefix = "Failed: "
	}
	text := []rune(strings.Join(strings.Fields(res.Text), " "))
	if len(text) > maxLabelRunes {
		return prefix + string(text[:maxLabelRunes]) + "…"
	}
	return prefix + string(text)
}

// openSettings opens the settings page in the default browser
func (m *SystrayManager) openSettings() {
	slog.Info("Opening settings", "url", m.webURL)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", m.webURL)
	case "darwin":
		cmd = exec.Command("open", m.webURL)
	case "linux":
		cmd = exec.Command("xdg-open", m.webURL)
	default:
		slog.Error("Unsupported platform for opening browser", "platform", runtime.GOOS)
		return
	}

	if err := cmd.Start(); err != nil {
		slog.Error("Failed to open settings", "error", err)
	}
}

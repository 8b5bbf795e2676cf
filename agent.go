package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"markestedt/textrewriter/completion"
	"markestedt/textrewriter/config"
	"markestedt/textrewriter/platform"
	"markestedt/textrewriter/secrets"
	"markestedt/textrewriter/shortcut"
	"markestedt/textrewriter/storage"
	"markestedt/textrewriter/trigger"
	"markestedt/textrewriter/workflow"
)

// Agent status values
const (
	StatusIdle      = "idle"
	StatusRecording = "recording"
	StatusRewriting = "rewriting"
)

// Agent coordinates shortcut detection, recording and the rewrite workflow
type Agent struct {
	mu  sync.RWMutex
	cfg *config.Config

	secrets  *secrets.Store
	db       *storage.DB
	recorder *shortcut.Recorder
	workflow *workflow.Workflow
	monitor  *trigger.Monitor

	results chan workflow.Result

	last    workflow.Result
	hasLast bool

	obsMu     sync.Mutex
	onResult  []func(workflow.Result)
	onStatus  []func(string)
	runCtx    context.Context
	runCancel context.CancelFunc
}

// AgentDeps are the OS and service collaborators of an Agent
type AgentDeps struct {
	Keys      platform.KeySource
	Clipboard platform.Clipboard
	Keyboard  platform.Keyboard
	Completer completion.Completer
	Secrets   *secrets.Store
	DB        *storage.DB
}

// NewAgent creates a new agent instance. deps.DB may be nil to disable history.
func NewAgent(cfg *config.Config, deps AgentDeps) *Agent {
	a := &Agent{
		cfg:      cfg,
		secrets:  deps.Secrets,
		db:       deps.DB,
		recorder: shortcut.NewRecorder(),
		results:  make(chan workflow.Result, 4),
	}
	a.runCtx, a.runCancel = context.WithCancel(context.Background())

	a.workflow = workflow.New(
		deps.Clipboard,
		deps.Keyboard,
		deps.Completer,
		a.workflowSettings,
		a.apiKey,
		cfg.StepDelay(),
	)
	a.monitor = trigger.NewMonitor(deps.Keys, a, a.recorder, a.trigger)
	return a
}

// Run listens for shortcuts until ctx is done
func (a *Agent) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.runCancel()

	monitorErr := make(chan error, 1)
	go func() {
		monitorErr <- a.monitor.Run(ctx)
	}()

	all, highlighted := a.Shortcuts()
	slog.Info("TextRewriter started", "rewrite_all", all.String(), "rewrite_selected", highlighted.String())

	for {
		select {
		case <-ctx.Done():
			a.recorder.Cancel()
			<-monitorErr
			return nil

		case err := <-monitorErr:
			a.recorder.Cancel()
			if err != nil {
				return fmt.Errorf("shortcut monitor stopped: %w", err)
			}
			return nil

		case res := <-a.results:
			a.handleResult(res)
		}
	}
}

// trigger is called by the monitor on a shortcut match
func (a *Agent) trigger(selectAll bool) {
	a.Rewrite(selectAll)
}

// Rewrite runs one invocation outside of the shortcut monitor, as the tray
// menu does. It returns false if a rewrite is already running.
func (a *Agent) Rewrite(selectAll bool) bool {
	started := a.workflow.Trigger(a.runCtx, selectAll, func(res workflow.Result) {
		a.results <- res
	})
	if started {
		a.emitStatus()
	}
	return started
}

func (a *Agent) handleResult(res workflow.Result) {
	a.mu.Lock()
	a.last = res
	a.hasLast = true
	historyEnabled := a.cfg.History.Enabled
	a.mu.Unlock()

	if a.db != nil && historyEnabled {
		rec := rewriteRecord(res)
		if err := a.db.SaveRewrite(rec); err != nil {
			slog.Error("Failed to save rewrite", "error", err)
		}
	}

	a.obsMu.Lock()
	observers := append([]func(workflow.Result){}, a.onResult...)
	a.obsMu.Unlock()
	for _, fn := range observers {
		fn(res)
	}
	a.emitStatus()
}

func rewriteRecord(res workflow.Result) *storage.Rewrite {
	rec := &storage.Rewrite{
		InvocationID:        res.ID,
		SelectAll:           res.SelectAll,
		Model:               res.Model,
		CaptureLatencyMs:    res.CaptureLatency.Milliseconds(),
		CompletionLatencyMs: res.CompletionLatency.Milliseconds(),
		TotalLatencyMs:      res.TotalLatency.Milliseconds(),
		OriginalText:        res.Original,
		ResultText:          res.Text,
		OriginalChars:       len([]rune(res.Original)),
		Success:             res.Success(),
	}
	if res.Success() {
		rec.ResultChars = len([]rune(res.Text))
	} else {
		rec.ErrorMessage = res.Err.Error()
	}
	return rec
}

// OnResult registers fn to be called after every finished invocation
func (a *Agent) OnResult(fn func(workflow.Result)) {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()
	a.onResult = append(a.onResult, fn)
}

// OnStatus registers fn to be called when the agent status changes
func (a *Agent) OnStatus(fn func(string)) {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()
	a.onStatus = append(a.onStatus, fn)
}

func (a *Agent) emitStatus() {
	status := a.Status()
	a.obsMu.Lock()
	observers := append([]func(string){}, a.onStatus...)
	a.obsMu.Unlock()
	for _, fn := range observers {
		fn(status)
	}
}

// Status returns the current agent status
func (a *Agent) Status() string {
	switch {
	case a.recorder.State() == shortcut.Recording:
		return StatusRecording
	case a.workflow.Busy():
		return StatusRewriting
	default:
		return StatusIdle
	}
}

// Shortcuts returns the configured shortcuts
func (a *Agent) Shortcuts() (all, highlighted shortcut.Shortcut) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg.ShortcutAll(), a.cfg.ShortcutHighlighted()
}

// Config returns a copy of the current configuration
func (a *Agent) Config() config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return *a.cfg
}

// UpdateConfig applies fn to a copy of the configuration and saves it
func (a *Agent) UpdateConfig(fn func(*config.Config)) error {
	a.mu.Lock()
	next := *a.cfg
	fn(&next)
	if err := next.Save(); err != nil {
		a.mu.Unlock()
		return fmt.Errorf("failed to save config: %w", err)
	}
	*a.cfg = next
	a.mu.Unlock()

	a.workflow.SetStepDelay(next.StepDelay())
	return nil
}

func (a *Agent) workflowSettings() workflow.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return workflow.Settings{
		Prompt: a.cfg.Rewrite.SystemPrompt,
		Model:  a.cfg.Rewrite.Model,
	}
}

func (a *Agent) apiKey() (string, error) {
	return a.secrets.APIKey()
}

// StartRecording captures the next key press as the shortcut for slot
func (a *Agent) StartRecording(slot trigger.Slot) {
	all, highlighted := a.Shortcuts()
	current := all
	if slot == trigger.SlotHighlighted {
		current = highlighted
	}

	a.recorder.Start(current, func(s shortcut.Shortcut) {
		if err := a.setShortcut(slot, s); err != nil {
			slog.Error("Failed to save recorded shortcut", "slot", slot, "error", err)
		}
		a.emitStatus()
	})
	a.emitStatus()
}

// CancelRecording stops an active recording
func (a *Agent) CancelRecording() {
	a.recorder.Cancel()
	a.emitStatus()
}

// ResetShortcut restores the default shortcut for slot
func (a *Agent) ResetShortcut(slot trigger.Slot) error {
	def := shortcut.DefaultAll()
	if slot == trigger.SlotHighlighted {
		def = shortcut.DefaultHighlighted()
	}
	return a.setShortcut(slot, def)
}

// SetShortcut replaces the shortcut for slot and ends any active recording
func (a *Agent) SetShortcut(slot trigger.Slot, s shortcut.Shortcut) error {
	a.recorder.Cancel()
	err := a.setShortcut(slot, s)
	a.emitStatus()
	return err
}

func (a *Agent) setShortcut(slot trigger.Slot, s shortcut.Shortcut) error {
	return a.UpdateConfig(func(c *config.Config) {
		switch slot {
		case trigger.SlotAll:
			c.SetShortcutAll(s)
		case trigger.SlotHighlighted:
			c.SetShortcutHighlighted(s)
		}
	})
}

// LastResult returns the most recent invocation result
func (a *Agent) LastResult() (workflow.Result, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last, a.hasLast
}

// SetAPIKey stores the completion API key
func (a *Agent) SetAPIKey(key string) error {
	return a.secrets.SetAPIKey(key)
}

// DeleteAPIKey removes the stored completion API key
func (a *Agent) DeleteAPIKey() error {
	return a.secrets.DeleteAPIKey()
}

// HasAPIKey reports whether an API key is available
func (a *Agent) HasAPIKey() bool {
	_, err := a.secrets.APIKey()
	if err != nil && !errors.Is(err, secrets.ErrNoAPIKey) {
		slog.Warn("Failed to read API key", "error", err)
	}
	return err == nil
}

// Package workflow implements the copy, rewrite and paste-back sequence that
// runs when a rewrite shortcut fires.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"markestedt/textrewriter/completion"
	"markestedt/textrewriter/platform"
)

// NoTextFound is the observable result when the clipboard is empty after copying
const NoTextFound = "No text found"

// ParseFailure is the observable result when the completion response is unusable
const ParseFailure = "Failed to parse completion response."

// ErrNoText is set on results that ended with NoTextFound
var ErrNoText = errors.New("no text found on clipboard")

// Settings are read at the start of every invocation
type Settings struct {
	Prompt string
	Model  string
}

// SettingsFunc returns the current settings
type SettingsFunc func() Settings

// KeyFunc returns the API key for the completion call
type KeyFunc func() (string, error)

// Result describes one finished invocation
type Result struct {
	ID        string
	SelectAll bool
	Model     string
	Original  string

	// Text is the observable outcome: the rewritten text, NoTextFound or an error message
	Text string
	Err  error

	StartedAt         time.Time
	CaptureLatency    time.Duration
	CompletionLatency time.Duration
	TotalLatency      time.Duration
}

// Success reports whether the text was rewritten and pasted back
func (r Result) Success() bool {
	return r.Err == nil
}

// Workflow runs capture-rewrite-replace invocations, one at a time
type Workflow struct {
	clipboard platform.Clipboard
	keyboard  platform.Keyboard
	completer completion.Completer
	settings  SettingsFunc
	apiKey    KeyFunc

	delay atomic.Int64
	busy  atomic.Bool
}

// New creates a workflow. delay is the pause between keystroke steps.
func New(clip platform.Clipboard, kb platform.Keyboard, completer completion.Completer, settings SettingsFunc, apiKey KeyFunc, delay time.Duration) *Workflow {
	w := &Workflow{
		clipboard: clip,
		keyboard:  kb,
		completer: completer,
		settings:  settings,
		apiKey:    apiKey,
	}
	w.SetStepDelay(delay)
	return w
}

// SetStepDelay changes the pause between keystroke steps for later invocations
func (w *Workflow) SetStepDelay(d time.Duration) {
	w.delay.Store(int64(d))
}

// Busy reports whether an invocation is in progress
func (w *Workflow) Busy() bool {
	return w.busy.Load()
}

// Trigger starts an invocation in the background and delivers its result to
// done. It returns false without starting anything if one is already running.
func (w *Workflow) Trigger(ctx context.Context, selectAll bool, done func(Result)) bool {
	if !w.busy.CompareAndSwap(false, true) {
		slog.Warn("Rewrite already in progress, ignoring trigger", "select_all", selectAll)
		return false
	}

	go func() {
		res := w.run(ctx, selectAll)
		w.busy.Store(false)
		if done != nil {
			done(res)
		}
	}()
	return true
}

// Run executes one invocation synchronously. It fails fast if another
// invocation is running.
func (w *Workflow) Run(ctx context.Context, selectAll bool) (Result, error) {
	if !w.busy.CompareAndSwap(false, true) {
		return Result{}, fmt.Errorf("rewrite already in progress")
	}
	defer w.busy.Store(false)
	return w.run(ctx, selectAll), nil
}

func (w *Workflow) run(ctx context.Context, selectAll bool) Result {
	settings := w.settings()
	res := Result{
		ID:        uuid.NewString(),
		SelectAll: selectAll,
		Model:     settings.Model,
		StartedAt: time.Now(),
	}
	log := slog.With("id", res.ID, "select_all", selectAll)

	fail := func(text string, err error) Result {
		res.Text = text
		res.Err = err
		res.TotalLatency = time.Since(res.StartedAt)
		log.Error("Rewrite failed", "error", err)
		return res
	}

	// Capture
	if selectAll {
		if err := w.keyboard.Send(platform.SelectAll); err != nil {
			return fail(errorText(err), err)
		}
	}
	if err := w.wait(ctx); err != nil {
		return fail(errorText(err), err)
	}
	if err := w.keyboard.Send(platform.Copy); err != nil {
		return fail(errorText(err), err)
	}
	if err := w.wait(ctx); err != nil {
		return fail(errorText(err), err)
	}

	original, err := w.clipboard.Get()
	if err != nil {
		log.Warn("Clipboard unavailable", "error", err)
		original = ""
	}
	res.CaptureLatency = time.Since(res.StartedAt)
	if original == "" {
		res.Text = NoTextFound
		res.Err = ErrNoText
		res.TotalLatency = time.Since(res.StartedAt)
		log.Info("No text found")
		return res
	}
	res.Original = original
	log.Info("Text captured", "chars", len([]rune(original)))

	// Rewrite
	key, err := w.apiKey()
	if err != nil {
		return fail(errorText(err), err)
	}

	completionStart := time.Now()
	text, err := w.completer.Complete(ctx, completion.Request{
		Text:   original,
		Prompt: settings.Prompt,
		APIKey: key,
		Model:  settings.Model,
	})
	res.CompletionLatency = time.Since(completionStart)
	if err != nil {
		return fail(errorText(err), err)
	}
	res.Text = text

	// Replace
	if err := w.clipboard.Set(text); err != nil {
		return fail(errorText(err), err)
	}
	if selectAll {
		if err := w.keyboard.Send(platform.SelectAll); err != nil {
			return fail(errorText(err), err)
		}
	}
	if err := w.wait(ctx); err != nil {
		return fail(errorText(err), err)
	}
	if err := w.keyboard.Send(platform.Paste); err != nil {
		return fail(errorText(err), err)
	}

	res.TotalLatency = time.Since(res.StartedAt)
	log.Info("Rewrite pasted",
		"chars", len([]rune(text)),
		"completion_ms", res.CompletionLatency.Milliseconds(),
		"total_ms", res.TotalLatency.Milliseconds(),
	)
	return res
}

func (w *Workflow) wait(ctx context.Context) error {
	d := time.Duration(w.delay.Load())
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// errorText maps an error to the message shown to the user
func errorText(err error) string {
	if errors.Is(err, completion.ErrMalformedResponse) {
		return ParseFailure
	}
	return "Error: " + err.Error()
}

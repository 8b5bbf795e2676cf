package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"markestedt/textrewriter/config"
	"markestedt/textrewriter/shortcut"
	"markestedt/textrewriter/storage"
	"markestedt/textrewriter/trigger"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, map[string]string{"status": "success"})
}

// requireJSON rejects bodies that are not declared as JSON. Browsers cannot
// send that content type cross-site without a preflight.
func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}
	return true
}

// handleConfig handles GET and PUT requests for configuration
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetConfig(w, r)
	case http.MethodPut:
		s.handlePutConfig(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type configResponse struct {
	SystemPrompt   string `json:"systemPrompt"`
	Model          string `json:"model"`
	BaseURL        string `json:"baseUrl"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
	StepDelayMs    int    `json:"stepDelayMs"`
	HistoryEnabled bool   `json:"historyEnabled"`
	HasAPIKey      bool   `json:"hasApiKey"`
}

// handleGetConfig returns the current configuration. The API key is never returned.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.ctrl.Config()

	writeJSON(w, configResponse{
		SystemPrompt:   cfg.Rewrite.SystemPrompt,
		Model:          cfg.Rewrite.Model,
		BaseURL:        cfg.Rewrite.BaseURL,
		TimeoutSeconds: cfg.Rewrite.TimeoutSeconds,
		StepDelayMs:    cfg.Workflow.StepDelayMs,
		HistoryEnabled: cfg.History.Enabled,
		HasAPIKey:      s.ctrl.HasAPIKey(),
	})
}

// handlePutConfig updates the configuration
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}

	var req struct {
		SystemPrompt   *string `json:"systemPrompt"`
		Model          *string `json:"model"`
		BaseURL        *string `json:"baseUrl"`
		TimeoutSeconds *int    `json:"timeoutSeconds"`
		StepDelayMs    *int    `json:"stepDelayMs"`
		HistoryEnabled *bool   `json:"historyEnabled"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.StepDelayMs != nil && (*req.StepDelayMs < 0 || *req.StepDelayMs > 5000) {
		http.Error(w, "stepDelayMs must be between 0 and 5000", http.StatusBadRequest)
		return
	}
	if req.TimeoutSeconds != nil && *req.TimeoutSeconds < 0 {
		http.Error(w, "timeoutSeconds must not be negative", http.StatusBadRequest)
		return
	}

	err := s.ctrl.UpdateConfig(func(cfg *config.Config) {
		if req.SystemPrompt != nil {
			cfg.Rewrite.SystemPrompt = *req.SystemPrompt
		}
		if req.Model != nil {
			cfg.Rewrite.Model = strings.TrimSpace(*req.Model)
		}
		if req.BaseURL != nil {
			cfg.Rewrite.BaseURL = strings.TrimSpace(*req.BaseURL)
		}
		if req.TimeoutSeconds != nil {
			cfg.Rewrite.TimeoutSeconds = *req.TimeoutSeconds
		}
		if req.StepDelayMs != nil {
			cfg.Workflow.StepDelayMs = *req.StepDelayMs
		}
		if req.HistoryEnabled != nil {
			cfg.History.Enabled = *req.HistoryEnabled
		}
	})
	if err != nil {
		slog.Error("Failed to save config", "error", err)
		http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
		return
	}

	writeSuccess(w)
}

type shortcutResponse struct {
	Slot      string `json:"slot"`
	Name      string `json:"name"`
	KeyCode   uint16 `json:"keyCode"`
	Modifiers uint   `json:"modifierFlags"`
	Display   string `json:"display"`
}

func newShortcutResponse(slot trigger.Slot, s shortcut.Shortcut) shortcutResponse {
	return shortcutResponse{
		Slot:      slot.String(),
		Name:      s.Name,
		KeyCode:   s.KeyCode,
		Modifiers: uint(s.Modifiers),
		Display:   s.String(),
	}
}

// handleShortcuts returns both shortcuts and the recorder state
func (s *Server) handleShortcuts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	all, highlighted := s.ctrl.Shortcuts()
	writeJSON(w, map[string]any{
		"shortcuts": []shortcutResponse{
			newShortcutResponse(trigger.SlotAll, all),
			newShortcutResponse(trigger.SlotHighlighted, highlighted),
		},
		"status": s.ctrl.Status(),
	})
}

func decodeSlot(w http.ResponseWriter, r *http.Request) (trigger.Slot, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return 0, false
	}
	if !requireJSON(w, r) {
		return 0, false
	}

	var req struct {
		Slot string `json:"slot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return 0, false
	}

	slot, err := trigger.ParseSlot(req.Slot)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	return slot, true
}

// handleRecord starts recording a shortcut
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	slot, ok := decodeSlot(w, r)
	if !ok {
		return
	}
	s.ctrl.StartRecording(slot)
	writeSuccess(w)
}

// handleCancel cancels an active recording
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.ctrl.CancelRecording()
	writeSuccess(w)
}

// handleReset restores a default shortcut
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	slot, ok := decodeSlot(w, r)
	if !ok {
		return
	}
	if err := s.ctrl.ResetShortcut(slot); err != nil {
		slog.Error("Failed to reset shortcut", "slot", slot, "error", err)
		http.Error(w, "Failed to reset shortcut", http.StatusInternalServerError)
		return
	}
	writeSuccess(w)
}

// handleSetShortcut stores a shortcut captured by the settings page
func (s *Server) handleSetShortcut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !requireJSON(w, r) {
		return
	}

	var req struct {
		Slot string `json:"slot"`
		browserKey
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	slot, err := trigger.ParseSlot(req.Slot)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ev, ok := req.keyEvent()
	if !ok {
		http.Error(w, "Unsupported key", http.StatusBadRequest)
		return
	}

	name := shortcut.NameAll
	if slot == trigger.SlotHighlighted {
		name = shortcut.NameHighlighted
	}
	sc := shortcut.Shortcut{Name: name, KeyCode: ev.KeyCode, Modifiers: ev.Modifiers}
	if err := s.ctrl.SetShortcut(slot, sc); err != nil {
		slog.Error("Failed to set shortcut", "slot", slot, "error", err)
		http.Error(w, "Failed to set shortcut", http.StatusInternalServerError)
		return
	}

	writeJSON(w, newShortcutResponse(slot, sc))
}

// handleAPIKey stores or deletes the API key
func (s *Server) handleAPIKey(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		if !requireJSON(w, r) {
			return
		}
		var req struct {
			APIKey string `json:"apiKey"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.APIKey) == "" {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.ctrl.SetAPIKey(req.APIKey); err != nil {
			slog.Error("Failed to store API key", "error", err)
			http.Error(w, "Failed to store API key", http.StatusInternalServerError)
			return
		}
		writeSuccess(w)

	case http.MethodDelete:
		if err := s.ctrl.DeleteAPIKey(); err != nil {
			slog.Error("Failed to delete API key", "error", err)
			http.Error(w, "Failed to delete API key", http.StatusInternalServerError)
			return
		}
		writeSuccess(w)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleStats returns statistics for the specified time range
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.db == nil {
		http.Error(w, "History is disabled", http.StatusNotFound)
		return
	}

	days := 7 // default to 7 days
	if d, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && d > 0 {
		days = d
	}

	overall, err := s.db.GetOverallStats(days)
	if err != nil {
		slog.Error("Failed to get overall stats", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	daily, err := s.db.GetDailyStats(days)
	if err != nil {
		slog.Error("Failed to get daily stats", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"overall": overall,
		"daily":   daily,
	})
}

// handleHistory handles GET and DELETE requests for rewrite history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.Error(w, "History is disabled", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetHistory(w, r)
	case http.MethodDelete:
		s.handleDeleteHistory(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGetHistory returns paginated rewrite history
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50 // default
	offset := 0

	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		offset = o
	}

	rewrites, err := s.db.GetRewrites(limit, offset)
	if err != nil {
		slog.Error("Failed to get rewrites", "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	total, err := s.db.GetRewriteCount()
	if err != nil {
		slog.Error("Failed to get rewrite count", "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	if rewrites == nil {
		rewrites = []storage.Rewrite{}
	}
	writeJSON(w, map[string]any{
		"rewrites": rewrites,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// handleDeleteHistory deletes a rewrite by ID (e.g., /api/history/123)
func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/history/")
	if idStr == "" || idStr == r.URL.Path {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	if err := s.db.DeleteRewrite(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Rewrite not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to delete rewrite", "error", err, "id", id)
		http.Error(w, "Failed to delete rewrite", http.StatusInternalServerError)
		return
	}

	writeSuccess(w)
}

// handleStatus returns the agent status and the last result
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": s.ctrl.Status(),
	}
	if last, ok := s.ctrl.LastResult(); ok {
		response["last"] = resultMessage(last)
	}

	writeJSON(w, response)
}

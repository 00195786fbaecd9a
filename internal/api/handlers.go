package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yegors/sso-sentinel/internal/dispatch"
	"github.com/yegors/sso-sentinel/internal/monitor"
	"github.com/yegors/sso-sentinel/internal/prefs"
	"github.com/yegors/sso-sentinel/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	monitorService *monitor.Service
	preferences    *prefs.Preferences
	presenter      *dispatch.Presenter
	logger         *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(monitorService *monitor.Service, preferences *prefs.Preferences, presenter *dispatch.Presenter, log *logger.Logger) *Handler {
	return &Handler{
		monitorService: monitorService,
		preferences:    preferences,
		presenter:      presenter,
		logger:         log.Named("api-handler"),
	}
}

// statusResponse is the observable current-state payload
type statusResponse struct {
	Status         string `json:"status"`
	Identity       any    `json:"identity,omitempty"`
	Visual         string `json:"visual"`
	Icon           string `json:"icon"`
	LastChecked    any    `json:"last_checked,omitempty"`
	LastTransition any    `json:"last_transition,omitempty"`
	Settings       any    `json:"settings"`
}

// GetStatus returns the current session status, identity and visual state
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.monitorService.Snapshot()

	resp := statusResponse{
		Status:   string(snap.Status),
		Visual:   string(h.monitorService.CurrentVisual()),
		Icon:     string(h.presenter.CurrentIcon()),
		Settings: h.settingsPayload(),
	}
	if snap.Identity != nil {
		resp.Identity = snap.Identity
	}
	if !snap.LastChecked.IsZero() {
		resp.LastChecked = snap.LastChecked
	}
	if !snap.LastTransition.IsZero() {
		resp.LastTransition = snap.LastTransition
	}

	WriteJSON(w, http.StatusOK, resp)
}

// Refresh triggers an on-demand session check. The accepted flag only
// reflects queue admission; a check already in flight still drops the
// trigger when it is dequeued.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	accepted := h.monitorService.Refresh("api")
	WriteJSON(w, http.StatusAccepted, map[string]any{"accepted": accepted})
}

// Login starts an asynchronous login attempt
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	accepted := h.monitorService.Login()
	WriteJSON(w, http.StatusAccepted, map[string]any{"accepted": accepted})
}

// Logout starts an asynchronous logout attempt
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	accepted := h.monitorService.Logout()
	WriteJSON(w, http.StatusAccepted, map[string]any{"accepted": accepted})
}

// GetSettings returns the full mutable configuration
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.settingsPayload())
}

// UpdateSetting mutates one settings key. Body: {"value": <bool|int>}.
func (h *Handler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		http.Error(w, "Missing settings key", http.StatusBadRequest)
		return
	}

	var body struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	var err error
	switch key {
	case "poll_interval_seconds":
		var seconds int
		if jsonErr := json.Unmarshal(body.Value, &seconds); jsonErr != nil {
			http.Error(w, "Invalid value: expected interval seconds", http.StatusBadRequest)
			return
		}
		err = h.preferences.SetInterval(seconds)

	case "check_on_wake":
		var enabled bool
		if jsonErr := json.Unmarshal(body.Value, &enabled); jsonErr != nil {
			http.Error(w, "Invalid value: expected boolean", http.StatusBadRequest)
			return
		}
		err = h.preferences.SetCheckOnWake(enabled)

	default:
		var enabled bool
		if jsonErr := json.Unmarshal(body.Value, &enabled); jsonErr != nil {
			http.Error(w, "Invalid value: expected boolean", http.StatusBadRequest)
			return
		}
		err = h.preferences.SetAction(prefs.ActionKind(key), enabled)
	}

	if err != nil {
		h.logger.Warn("Failed to update setting",
			logger.String("key", key),
			logger.Error(err))
		if errors.Is(err, prefs.ErrUnknownAction) {
			http.Error(w, "Unknown settings key", http.StatusBadRequest)
		} else {
			http.Error(w, "Failed to persist setting", http.StatusInternalServerError)
		}
		return
	}

	WriteJSON(w, http.StatusOK, h.settingsPayload())
}

// settingsPayload builds the settings map shared by the status and
// settings endpoints
func (h *Handler) settingsPayload() map[string]any {
	payload := map[string]any{
		"poll_interval_seconds": int(h.preferences.Interval()),
		"check_on_wake":         h.preferences.CheckOnWake(),
	}
	for kind, enabled := range h.preferences.Actions() {
		payload[string(kind)] = enabled
	}
	return payload
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

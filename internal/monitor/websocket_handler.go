package monitor

import (
	"fmt"

	"github.com/yegors/sso-sentinel/internal/prefs"
	"github.com/yegors/sso-sentinel/internal/websocket"
	"github.com/yegors/sso-sentinel/pkg/logger"
)

// WebSocketHandler routes presentation-layer commands to the monitor
type WebSocketHandler struct {
	service     *Service
	preferences *prefs.Preferences
	logger      *logger.Logger
}

// NewWebSocketHandler creates a new WebSocket message handler
func NewWebSocketHandler(service *Service, preferences *prefs.Preferences, log *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		service:     service,
		preferences: preferences,
		logger:      log.Named("monitor-ws-handler"),
	}
}

// HandleMessage handles incoming WebSocket messages
func (h *WebSocketHandler) HandleMessage(client *websocket.Client, messageType string, data map[string]any) error {
	switch messageType {
	case websocket.MessageTypeRefresh:
		h.service.Refresh("ws")
		return nil

	case websocket.MessageTypeLogin:
		h.service.Login()
		return nil

	case websocket.MessageTypeLogout:
		h.service.Logout()
		return nil

	case websocket.MessageTypeSetSetting:
		return h.handleSetSetting(data)

	default:
		h.logger.Debug("Unhandled message type", logger.String("type", messageType))
		return nil
	}
}

// handleSetSetting applies one settings mutation from the UI
func (h *WebSocketHandler) handleSetSetting(data map[string]any) error {
	key, ok := data["key"].(string)
	if !ok || key == "" {
		return fmt.Errorf("set_setting message missing key")
	}

	switch key {
	case "poll_interval_seconds":
		seconds, ok := data["value"].(float64)
		if !ok {
			return fmt.Errorf("set_setting %s: expected numeric value", key)
		}
		return h.preferences.SetInterval(int(seconds))

	case "check_on_wake":
		enabled, ok := data["value"].(bool)
		if !ok {
			return fmt.Errorf("set_setting %s: expected boolean value", key)
		}
		return h.preferences.SetCheckOnWake(enabled)

	default:
		enabled, ok := data["value"].(bool)
		if !ok {
			return fmt.Errorf("set_setting %s: expected boolean value", key)
		}
		return h.preferences.SetAction(prefs.ActionKind(key), enabled)
	}
}

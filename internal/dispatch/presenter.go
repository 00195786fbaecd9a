package dispatch

import (
	"sync"

	"github.com/yegors/sso-sentinel/internal/policy"
	"github.com/yegors/sso-sentinel/internal/session"
	"github.com/yegors/sso-sentinel/internal/websocket"
	"github.com/yegors/sso-sentinel/pkg/logger"
)

// Presenter adapts the WebSocket hub into the icon sink and notifier
// consumed by the dispatcher and the pulse scheduler. It remembers the
// last icon pushed so late-connecting clients and the status API can
// read the current presentation state.
type Presenter struct {
	mu       sync.RWMutex
	lastIcon policy.IconState
	wsServer *websocket.Server
	logger   *logger.Logger
}

// NewPresenter creates a presenter over the given hub
func NewPresenter(wsServer *websocket.Server, log *logger.Logger) *Presenter {
	return &Presenter{
		lastIcon: policy.IconInactive,
		wsServer: wsServer,
		logger:   log.Named("presenter"),
	}
}

// SetIcon pushes an icon state change to all clients
func (p *Presenter) SetIcon(state policy.IconState) {
	p.mu.Lock()
	p.lastIcon = state
	p.mu.Unlock()

	p.wsServer.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeIconState,
		Data: map[string]any{"state": string(state)},
	})
}

// CurrentIcon returns the most recently pushed icon state
func (p *Presenter) CurrentIcon() policy.IconState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastIcon
}

// Notify pushes a best-effort notification to all clients
func (p *Presenter) Notify(title, message string) {
	p.wsServer.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeNotification,
		Data: map[string]any{
			"title":   title,
			"message": message,
		},
	})
}

// PushStatus pushes a full status snapshot to all clients
func (p *Presenter) PushStatus(snap session.Snapshot, visual policy.Visual) {
	data := map[string]any{
		"status": string(snap.Status),
		"visual": string(visual),
	}
	if snap.Identity != nil {
		data["identity"] = snap.Identity
	}
	if !snap.LastChecked.IsZero() {
		data["last_checked"] = snap.LastChecked
	}

	p.wsServer.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeStatusUpdate,
		Data: data,
	})
}

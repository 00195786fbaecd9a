package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yegors/sso-sentinel/internal/dispatch"
	"github.com/yegors/sso-sentinel/internal/monitor"
	"github.com/yegors/sso-sentinel/internal/prefs"
	"github.com/yegors/sso-sentinel/internal/websocket"
	"github.com/yegors/sso-sentinel/pkg/logger"
)

// Router wires the API handlers and the websocket endpoint
type Router struct {
	handler  *Handler
	wsServer *websocket.Server
	logger   *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(monitorService *monitor.Service, preferences *prefs.Preferences, presenter *dispatch.Presenter, wsServer *websocket.Server, log *logger.Logger) *Router {
	return &Router{
		handler:  NewHandler(monitorService, preferences, presenter, log),
		wsServer: wsServer,
		logger:   log.Named("api-router"),
	}
}

// Routes returns the HTTP handler for all endpoints
func (r *Router) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)

	mux.Route("/api", func(api chi.Router) {
		api.Get("/status", r.handler.GetStatus)
		api.Post("/refresh", r.handler.Refresh)
		api.Post("/login", r.handler.Login)
		api.Post("/logout", r.handler.Logout)
		api.Get("/settings", r.handler.GetSettings)
		api.Put("/settings/{key}", r.handler.UpdateSetting)
	})

	mux.Get("/ws", r.wsServer.HandleConnection)

	return mux
}

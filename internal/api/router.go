package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/gh-notifier/gh-notifier/internal/metrics"
	"github.com/gh-notifier/gh-notifier/internal/repositories"
	"github.com/gh-notifier/gh-notifier/internal/ws"
)

// RouterConfig holds the dependencies needed to build the control API
// router. Populated in the start command after the store is open.
type RouterConfig struct {
	Notifications repositories.NotificationRepository
	Logger        *zap.Logger

	// Hub, when non-nil, enables the /api/v1/ws live stream endpoint.
	Hub *ws.Hub

	// Metrics, when non-nil, exposes the prometheus registry on /metrics.
	Metrics *metrics.Metrics
}

// NewRouter builds the fully configured Chi router. All resource routes live
// under /api/v1. CORS allows any origin, method and header — the listener
// is bound to loopback, which is the actual access control.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	notificationHandler := NewNotificationHandler(cfg.Notifications, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/notifications", notificationHandler.List)
		r.Get("/notifications/unread", notificationHandler.ListUnread)
		r.Post("/notifications/mark-as-read", notificationHandler.MarkAsRead)
		r.Post("/notifications/mark-all-as-read", notificationHandler.MarkAllAsRead)

		if cfg.Hub != nil {
			r.Get("/ws", streamHandler(cfg.Hub, cfg.Logger))
		}
	})

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	return r
}

// streamHandler upgrades the request to a WebSocket and blocks until the
// client disconnects. Every new notification stored by the engine is pushed
// to the connection through the hub.
func streamHandler(hub *ws.Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := ws.NewClient(hub, w, r, logger.Named("ws"))
		if err != nil {
			// Upgrade already wrote the error response.
			logger.Debug("websocket upgrade failed", zap.Error(err))
			return
		}
		client.Run()
	}
}

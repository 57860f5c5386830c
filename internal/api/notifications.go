package api

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/gh-notifier/gh-notifier/internal/db"
	"github.com/gh-notifier/gh-notifier/internal/repositories"
)

// NotificationHandler groups the notification endpoints. Every handler goes
// through the shared repository, whose single SQLite connection serializes
// access with the sync engine; handlers do no long-running work of their own.
type NotificationHandler struct {
	repo   repositories.NotificationRepository
	logger *zap.Logger
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(repo repositories.NotificationRepository, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		repo:   repo,
		logger: logger.Named("notification_handler"),
	}
}

// markAsReadRequest is the body of POST /api/v1/notifications/mark-as-read.
type markAsReadRequest struct {
	NotificationIDs []string `json:"notification_ids"`
}

// List handles GET /api/v1/notifications: every stored notification,
// newest first, as a JSON array.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list notifications", zap.Error(err))
		ErrInternal(w, "failed to list notifications")
		return
	}
	if items == nil {
		items = []db.Notification{}
	}
	JSON(w, http.StatusOK, items)
}

// ListUnread handles GET /api/v1/notifications/unread.
func (h *NotificationHandler) ListUnread(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListUnread(r.Context())
	if err != nil {
		h.logger.Error("failed to list unread notifications", zap.Error(err))
		ErrInternal(w, "failed to list unread notifications")
		return
	}
	if items == nil {
		items = []db.Notification{}
	}
	JSON(w, http.StatusOK, items)
}

// MarkAsRead handles POST /api/v1/notifications/mark-as-read. Each id is
// marked in turn; the first failure stops the walk and names the failing id
// in a 500, so the caller knows exactly where the batch broke.
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	var req markAsReadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.NotificationIDs) == 0 {
		ErrBadRequest(w, "notification_ids must not be empty")
		return
	}

	for _, id := range req.NotificationIDs {
		if err := h.repo.MarkAsRead(r.Context(), id); err != nil {
			h.logger.Error("failed to mark notification as read",
				zap.String("id", id),
				zap.Error(err),
			)
			ErrInternal(w, fmt.Sprintf("failed to mark notification %s as read", id))
			return
		}
	}

	Ok(w, fmt.Sprintf("marked %d notifications as read", len(req.NotificationIDs)))
}

// MarkAllAsRead handles POST /api/v1/notifications/mark-all-as-read.
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.MarkAllAsRead(r.Context()); err != nil {
		h.logger.Error("failed to mark all notifications as read", zap.Error(err))
		ErrInternal(w, "failed to mark all notifications as read")
		return
	}
	Ok(w, "marked all notifications as read")
}

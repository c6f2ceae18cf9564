package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/zeroup-initiative/partner-backend/internal/model"
	"github.com/zeroup-initiative/partner-backend/internal/service"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

type NotificationResponse struct {
	ID        uint64                 `json:"id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Read      bool                   `json:"read"`
	Link      *string                `json:"link,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt string                 `json:"createdAt"`
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		Link:      n.Link,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toNotificationResponses(list []model.Notification) []NotificationResponse {
	resp := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, toNotificationResponse(n))
	}
	return resp
}

func (h *NotificationHandler) List(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	unreadOnly := c.QueryParam("unread_only") == "true"
	limit := 20
	if lStr := c.QueryParam("limit"); lStr != "" {
		if lParsed, err := strconv.Atoi(lStr); err == nil && lParsed > 0 {
			limit = lParsed
		}
	}
	list, unreadCount, err := h.svc.List(c.Request().Context(), uid, unreadOnly, limit)
	if err != nil {
		return serviceError(c, err, "failed to fetch notifications")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": toNotificationResponses(list),
		"unreadCount":   unreadCount,
	})
}

// Stream pushes event "notifications" carrying the latest list and the
// unread count whenever the user's notifications change.
func (h *NotificationHandler) Stream(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	ctx := c.Request().Context()
	ch := make(latestOnly, 1)
	stop := h.svc.Subscribe(ctx, uid, func(list []model.Notification, err error) {
		if err != nil {
			ch.Push(sseEvent{name: "error", data: NewErrorResponse("internal_error", "failed to load notifications")})
			return
		}
		unread, err := h.svc.UnreadCount(ctx, uid)
		if err != nil {
			ch.Push(sseEvent{name: "error", data: NewErrorResponse("internal_error", "failed to count unread")})
			return
		}
		ch.Push(sseEvent{name: "notifications", data: map[string]interface{}{
			"notifications": toNotificationResponses(list),
			"unreadCount":   unread,
		}})
	})
	return serveSSE(c, ch, stop)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	n, err := h.svc.MarkAllAsRead(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "failed to mark read")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok", "updated": n})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	if err := h.svc.MarkAsRead(c.Request().Context(), uid, id); err != nil {
		return serviceError(c, err, "failed to mark read")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	if err := h.svc.Delete(c.Request().Context(), uid, id); err != nil {
		return serviceError(c, err, "failed to delete notification")
	}
	return c.NoContent(http.StatusNoContent)
}

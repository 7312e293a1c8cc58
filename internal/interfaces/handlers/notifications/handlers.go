package notifications

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	notificationsvc "procurement-portal/internal/application/notifications"
	"procurement-portal/internal/interfaces/handlers"
	"procurement-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const heartbeatInterval = 25 * time.Second

type Handlers struct {
	Service *notificationsvc.Service
}

// List GET /api/v1/notifications?unread=true&limit=
func (h *Handlers) List(c *fiber.Ctx) error {
	out, err := h.Service.List(c.UserContext(), handlers.Actor(c).ID, notificationsvc.ListFilter{
		UnreadOnly: c.QueryBool("unread"),
		Limit:      c.QueryInt("limit"),
	})
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Notifications found", fiber.Map{"notifications": out}, fiber.Map{"count": len(out)})
}

// UnreadCount GET /api/v1/notifications/unread-count
func (h *Handlers) UnreadCount(c *fiber.Ctx) error {
	n, err := h.Service.UnreadCount(c.UserContext(), handlers.Actor(c).ID)
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Unread count", fiber.Map{"unread": n}, nil)
}

// MarkRead PATCH /api/v1/notifications/:id/read
func (h *Handlers) MarkRead(c *fiber.Ctx) error {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil
	}
	if err := h.Service.MarkRead(c.UserContext(), handlers.Actor(c).ID, id); err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Notification marked as read", nil, nil)
}

// MarkAllRead PATCH /api/v1/notifications/read-all
func (h *Handlers) MarkAllRead(c *fiber.Ctx) error {
	n, err := h.Service.MarkAllRead(c.UserContext(), handlers.Actor(c).ID)
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Notifications marked as read", fiber.Map{"updated": n}, nil)
}

// Stream GET /api/v1/notifications/stream: server-sent events, one "notification" event per push.
// The subscription lives until the client disconnects.
func (h *Handlers) Stream(c *fiber.Ctx) error {
	userID := handlers.Actor(c).ID
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := h.Service.Subscribe(ctx, userID)
	if err != nil {
		cancel()
		return handlers.Fail(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		log.Debug().Str("user_id", userID.String()).Msg("notifications: stream opened")
		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case n, ok := <-ch:
				if !ok {
					return
				}
				b, err := json.Marshal(n)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "id: %s\nevent: notification\ndata: %s\n\n", n.ID, b)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				log.Debug().Str("user_id", userID.String()).Msg("notifications: stream closed")
				return
			}
		}
	})
	return nil
}

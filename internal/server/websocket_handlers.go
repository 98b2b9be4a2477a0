package server

import (
	"encoding/json"
	"log/slog"
	"time"

	"socialhub/internal/middleware"
	"socialhub/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler upgrades GET /api/ws and streams realtime events to the
// caller. AuthRequired runs first, so userID is already in the locals.
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("websocket registration rejected",
				slog.Uint64("user_id", uint64(uid)),
				slog.String("error", err.Error()),
			)
			msg, _ := json.Marshal(map[string]string{"error": err.Error()})
			_ = conn.WriteMessage(websocket.TextMessage, msg)
			_ = conn.Close()
			return
		}

		hello, err := json.Marshal(notifications.Event{
			Type:      notifications.EventConnected,
			Payload:   map[string]uint{"user_id": uid},
			Timestamp: time.Now().UTC(),
		})
		if err == nil {
			client.TrySend(hello)
		}

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}

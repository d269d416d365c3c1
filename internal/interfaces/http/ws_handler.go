package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockmaster-api/internal/infrastructure/ws"
)

// WSUpgrade deja pasar solo peticiones de upgrade a WebSocket.
func WSUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WSHandler registra la conexión en el hub y la mantiene hasta que el cliente cierre.
// El canal es de solo lectura para el cliente: lo que envíe se descarta.
func WSHandler(hub *ws.Hub) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		hub.Register(conn)
		defer hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}

package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches a connection to the hub and blocks until it closes.
// greeting, when non-nil, is the first frame the client receives.
func ServeWs(hub *Hub, c *websocket.Conn, sessionID string, greeting []byte, onMessage MessageHandler) {
	client := &Client{Hub: hub, Conn: c, SessionID: sessionID, Send: make(chan []byte, 256), onMessage: onMessage}
	if !client.Hub.join(client) {
		c.Close()
		return
	}
	if greeting != nil {
		hub.Reply(client, greeting)
	}

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}

package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/security"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket authenticates ?token= and registers the connection under
// the token's wallet
func HandleWebSocket(hub *Hub, jwtSecret string) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := security.ParseToken(jwtSecret, c.QueryParam("token"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Success: false,
				Error:   "Invalid or missing token",
			})
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			log.Warn().Err(err).Msg("WebSocket upgrade failed")
			return nil
		}

		client := &Client{
			Wallet: claims.WalletAddress,
			Conn:   conn,
			send:   make(chan Notification, sendBuffer),
		}
		// Queued before registering: once registered only the hub may close send
		client.send <- Notification{
			Type:          NotificationTypeConnected,
			Message:       "WebSocket connection established",
			WalletAddress: claims.WalletAddress,
		}
		if !hub.Register(client) {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			conn.Close()
			return nil
		}

		go client.writePump()
		go client.readPump(hub)

		return nil
	}
}

// readPump only watches for the close; clients do not send commands
func (c *Client) readPump(hub *Hub) {
	defer hub.Unregister(c)

	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer of the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case notification, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(notification); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package websocket

import (
	"context"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/scholarfund_backend/models"
)

// Define notification types
const (
	NotificationTypeConnected         = "connected"
	NotificationTypeApplicationStatus = "application_status"
)

const sendBuffer = 16

// Notification represents a message sent over WebSocket
type Notification struct {
	Type          string      `json:"type"`
	Message       string      `json:"message"`
	Data          interface{} `json:"data,omitempty"`
	WalletAddress string      `json:"walletAddress,omitempty"`
}

// ApplicationStatusData is the payload of an application_status notification
type ApplicationStatusData struct {
	ApplicationID string                   `json:"applicationId"`
	PoolID        string                   `json:"poolId"`
	PoolAddress   string                   `json:"poolAddress"`
	Status        models.ApplicationStatus `json:"status"`
}

// Client represents one connection of a wallet
type Client struct {
	Wallet string
	Conn   *websocket.Conn
	send   chan Notification
}

// Hub maintains the set of active clients per wallet. A wallet may have
// several tabs open, each gets its own client.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	// done is closed once Run has returned
	done chan struct{}
	mu   sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Register adds a client. It returns false once the hub has stopped, in
// which case the caller still owns the client.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its send channel. It does nothing
// after the hub has stopped, since Run closed every channel on the way out.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Run starts the hub's event loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.Wallet] == nil {
				h.clients[client.Wallet] = make(map[*Client]bool)
			}
			h.clients[client.Wallet][client] = true
			h.mu.Unlock()
			log.Debug().Str("wallet", client.Wallet).Int("connections", h.connections(client.Wallet)).Msg("WebSocket client registered")
		case client := <-h.unregister:
			h.remove(client)
		case <-ctx.Done():
			h.mu.Lock()
			for _, set := range h.clients {
				for client := range set {
					close(client.send)
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			close(h.done)
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.Wallet]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.Wallet)
	}
}

// connections returns how many connections a wallet has open
func (h *Hub) connections(wallet string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[strings.ToLower(wallet)])
}

// SendToWallet queues a notification on every connection of the wallet.
// Slow connections drop messages rather than block the caller.
func (h *Hub) SendToWallet(wallet string, notification Notification) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.clients[strings.ToLower(wallet)] {
		select {
		case client.send <- notification:
			delivered++
		default:
			log.Warn().Str("wallet", client.Wallet).Msg("WebSocket send buffer full, dropping notification")
		}
	}
	return delivered
}

// NotifyApplicationStatus tells the applicant their application changed
func (h *Hub) NotifyApplicationStatus(app *models.Application) {
	h.SendToWallet(app.WalletAddress, Notification{
		Type:          NotificationTypeApplicationStatus,
		Message:       "Your application is now " + string(app.Status),
		WalletAddress: app.WalletAddress,
		Data: ApplicationStatusData{
			ApplicationID: app.ID.Hex(),
			PoolID:        app.PoolID,
			PoolAddress:   app.PoolAddress,
			Status:        app.Status,
		},
	})
}

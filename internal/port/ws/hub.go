package ws

import (
	"context"

	"github.com/agromarket/auction-service/internal/platform/logger"
	"github.com/agromarket/auction-service/internal/service"
	"github.com/nats-io/nats.go"
)

type broadcastMessage struct {
	auctionID string
	data      []byte
}

// Hub fans bid events out to websocket subscribers, grouped per auction.
// All room mutation happens on the Run goroutine.
type Hub struct {
	log        logger.Logger
	rooms      map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMessage
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		log:        log,
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMessage, 64),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, room := range h.rooms {
				for client := range room {
					close(client.send)
				}
			}
			return

		case client := <-h.register:
			room, ok := h.rooms[client.auctionID]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[client.auctionID] = room
			}
			room[client] = struct{}{}
			h.log.Debugf("Websocket client joined auction %s (%d in room)", client.auctionID, len(room))

		case client := <-h.unregister:
			if room, ok := h.rooms[client.auctionID]; ok {
				if _, present := room[client]; present {
					delete(room, client)
					close(client.send)
					if len(room) == 0 {
						delete(h.rooms, client.auctionID)
					}
				}
			}

		case msg := <-h.broadcast:
			for client := range h.rooms[msg.auctionID] {
				select {
				case client.send <- msg.data:
				default:
					// Slow consumer, drop it.
					delete(h.rooms[msg.auctionID], client)
					close(client.send)
				}
			}
		}
	}
}

// Broadcast queues a payload for every subscriber of the auction.
func (h *Hub) Broadcast(auctionID string, data []byte) {
	if auctionID == "" {
		return
	}
	h.broadcast <- broadcastMessage{auctionID: auctionID, data: data}
}

// SubscribeBidEvents routes the per-auction bid subjects into the hub. The
// caller owns the returned subscription and should drain it on shutdown.
func (h *Hub) SubscribeBidEvents(conn *nats.Conn) (*nats.Subscription, error) {
	return conn.Subscribe(service.SubjectBidPlacedWildcard, func(msg *nats.Msg) {
		h.Broadcast(service.AuctionIDFromBidSubject(msg.Subject), msg.Data)
	})
}

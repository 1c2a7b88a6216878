package server

import (
	"context"
	"encoding/json"
	"sync"

	"pulse-chat/internal/domain/ids"
	"pulse-chat/internal/repository"
	"pulse-chat/pkg/events"
	"pulse-chat/pkg/logger"
)

// Hub fans broker events out to connected websocket clients. It subscribes
// to the per-conversation channels and the presence channel, resolves each
// conversation event to its participant set, and forwards the raw envelope
// to whoever is connected. Presence transitions go to everyone.
type Hub struct {
	clients    map[ids.UserID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broker     events.Broker
	convRepo   repository.ConversationRepository
	log        *logger.Logger
	mu         sync.RWMutex
	stopChan   chan struct{}
}

func NewHub(broker events.Broker, convRepo repository.ConversationRepository, log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[ids.UserID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broker:     broker,
		convRepo:   convRepo,
		log:        log,
		stopChan:   make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) error {
	// Subscriptions live exactly as long as the loop below; Stop has to end
	// them too, not just the parent context.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if h.broker != nil {
		err := h.broker.Subscribe(ctx, "conv:*", func(ctx context.Context, ev events.Event) error {
			h.routeConversationEvent(ctx, ev)
			return nil
		})
		if err != nil {
			return err
		}
		err = h.broker.Subscribe(ctx, events.PresenceChannel, func(ctx context.Context, ev events.Event) error {
			h.broadcast(ev)
			return nil
		})
		if err != nil {
			return err
		}
	}

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.stopChan:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *Hub) Stop() {
	close(h.stopChan)
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*Client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

// removeClient reports nothing; the caller decides whether the user's last
// socket just closed via HasConnections.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[c.userID]; ok {
		if _, ok := conns[c]; ok {
			delete(conns, c)
			close(c.send)
			if len(conns) == 0 {
				delete(h.clients, c.userID)
			}
		}
	}
}

// HasConnections reports whether the user still has an open socket.
func (h *Hub) HasConnections(userID ids.UserID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

func (h *Hub) routeConversationEvent(ctx context.Context, ev events.Event) {
	convID, ok := conversationIDFromEvent(ev)
	if !ok {
		return
	}
	conv, err := h.convRepo.GetByID(ctx, convID)
	if err != nil {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range conv.Participants {
		for c := range h.clients[p.UserID] {
			c.trySend(data)
		}
	}
}

func (h *Hub) broadcast(ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.clients {
		for c := range conns {
			c.trySend(data)
		}
	}
}

// conversationIDFromEvent digs the conversation id out of the envelope
// payload. Events published by the services always carry one.
func conversationIDFromEvent(ev events.Event) (ids.ConversationID, bool) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return ids.ConversationID{}, false
	}
	var probe struct {
		ConversationID string `json:"conversation_id"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil || probe.ConversationID == "" {
		return ids.ConversationID{}, false
	}
	id, err := ids.ParseConversationID(probe.ConversationID)
	if err != nil {
		return ids.ConversationID{}, false
	}
	return id, true
}

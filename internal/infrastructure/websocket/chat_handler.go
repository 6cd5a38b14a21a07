package websocket

import (
	"context"
	"errors"
	"net/http"
	"time"

	"art-market/internal/domain"
	"art-market/internal/protocol"
	"art-market/internal/services"
	"art-market/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// ChatHandler serves /chat/{userID}: registers the user's connection for
// presence and delivery, and dispatches chat envelopes.
type ChatHandler struct {
	delivery  *services.ChatDelivery
	registry  domain.Registry
	presence  domain.PresenceCache
	writeWait time.Duration
	readLimit int64
	refresh   time.Duration
	log       logger.Logger
}

func NewChatHandler(delivery *services.ChatDelivery, registry domain.Registry,
	presence domain.PresenceCache, writeWait time.Duration, readLimit int64,
	presenceRefresh time.Duration, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		delivery:  delivery,
		registry:  registry,
		presence:  presence,
		writeWait: writeWait,
		readLimit: readLimit,
		refresh:   presenceRefresh,
		log:       log,
	}
}

func (h *ChatHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userID"]
	if userID == "" {
		http.Error(w, "user id required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}
	conn.SetReadLimit(h.readLimit)

	wsConn := NewConnection(conn, userID, userID, h.writeWait)
	h.registry.Admit(userID, wsConn)

	if err := h.presence.SetOnline(r.Context(), userID); err != nil {
		h.log.Error("Failed to publish presence", "user_id", userID, "error", err)
	}

	wsConn.Send(protocol.NewConnection(userID))

	stop := make(chan struct{})
	go h.keepPresence(userID, stop)
	go h.readLoop(wsConn, userID, stop)
}

// keepPresence re-publishes the presence key well inside its TTL, so an
// idle connection stays visible to other instances. The key only expires
// on its own when the process dies without evicting the user.
func (h *ChatHandler) keepPresence(userID string, stop <-chan struct{}) {
	ticker := time.NewTicker(h.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := h.presence.SetOnline(ctx, userID); err != nil {
				h.log.Error("Failed to refresh presence", "user_id", userID, "error", err)
			}
			cancel()
		}
	}
}

func (h *ChatHandler) readLoop(conn *Connection, userID string, stop chan struct{}) {
	defer func() {
		close(stop)
		if remaining := h.registry.Evict(userID, conn); remaining == 0 {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := h.presence.SetOffline(ctx, userID); err != nil {
				h.log.Error("Failed to clear presence", "user_id", userID, "error", err)
			}
			cancel()
		}
		conn.Close()
	}()

	for {
		_, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Error("Failed to read message", "error", err, "conn_id", conn.ID())
			}
			break
		}

		inbound, err := protocol.Decode(data)
		if err != nil {
			if errors.Is(err, protocol.ErrUnknownType) {
				h.log.Warn("Dropping unknown message type", "conn_id", conn.ID(), "error", err)
				continue
			}
			conn.Send(protocol.NewError(err.Error()))
			continue
		}

		switch inbound.Type {
		case protocol.TypeChatMessage:
			h.handleChatMessage(conn, userID, inbound.ChatMessage)
		case protocol.TypeTyping:
			h.delivery.SendTyping(userID, inbound.Typing.ReceiverID, inbound.Typing.IsTyping)
		case protocol.TypeMarkRead:
			h.handleMarkRead(conn, userID, inbound.MarkRead)
		default:
			// Auction kinds have no meaning on a chat connection.
			h.log.Warn("Dropping message type for this endpoint", "type", inbound.Type, "conn_id", conn.ID())
		}
	}
}

func (h *ChatHandler) handleChatMessage(conn *Connection, userID string, payload *protocol.ChatMessagePayload) {
	_, err := h.delivery.SendChatMessage(context.Background(), userID,
		payload.ReceiverID, payload.Content, payload.ArtworkID)
	if err != nil {
		h.log.Error("Failed to send chat message", "error", err, "sender_id", userID)
		conn.Send(protocol.NewError("failed to send message"))
	}
}

func (h *ChatHandler) handleMarkRead(conn *Connection, userID string, payload *protocol.MarkRead) {
	if err := h.delivery.MarkRead(context.Background(), userID, payload.MessageID); err != nil {
		h.log.Error("Failed to mark message read", "error", err, "message_id", payload.MessageID)
		conn.Send(protocol.NewError("failed to mark message read"))
	}
}

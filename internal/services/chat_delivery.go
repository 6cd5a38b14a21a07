package services

import (
	"context"
	"time"

	"art-market/internal/domain"
	"art-market/internal/protocol"
	"art-market/pkg/logger"
	"art-market/pkg/utils"
)

// ChatDelivery routes point-to-point chat events to live connections and
// persists what must outlive them. Delivery is best-effort: an offline
// receiver just means the message waits in storage.
type ChatDelivery struct {
	messages domain.MessageStore
	registry domain.Registry
	log      logger.Logger
}

func NewChatDelivery(messages domain.MessageStore, registry domain.Registry, log logger.Logger) *ChatDelivery {
	return &ChatDelivery{
		messages: messages,
		registry: registry,
		log:      log,
	}
}

// SendChatMessage persists the message, then delivers new_message to the
// receiver if online and message_sent back to the sender's own connections.
func (c *ChatDelivery) SendChatMessage(ctx context.Context, senderID, receiverID, content string, artworkID *string) (*domain.ChatMessage, error) {
	message := &domain.ChatMessage{
		ID:         utils.GenerateID("msg"),
		SenderID:   senderID,
		ReceiverID: receiverID,
		ArtworkID:  artworkID,
		Content:    content,
		CreatedAt:  time.Now(),
	}

	if err := c.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	if c.IsOnline(receiverID) {
		c.registry.Broadcast(receiverID, protocol.NewNewMessage(
			message.ID, senderID, content, artworkID, message.CreatedAt))
	} else {
		c.log.Debug("Receiver offline, stored only", "message_id", message.ID, "receiver_id", receiverID)
	}

	c.registry.Broadcast(senderID, protocol.NewMessageSent(message.ID, receiverID, message.CreatedAt))

	return message, nil
}

// SendTyping is ephemeral: delivered only if the receiver is live, never
// persisted.
func (c *ChatDelivery) SendTyping(senderID, receiverID string, isTyping bool) {
	if !c.IsOnline(receiverID) {
		return
	}
	c.registry.Broadcast(receiverID, protocol.NewTypingIndicator(senderID, isTyping))
}

// MarkRead marks the persisted message read and confirms to the requesting
// user's own connections. Idempotent through the store: a repeat call keeps
// the original read timestamp.
func (c *ChatDelivery) MarkRead(ctx context.Context, userID, messageID string) error {
	readAt, err := c.messages.MarkRead(ctx, messageID, time.Now())
	if err != nil {
		return err
	}

	c.registry.Broadcast(userID, protocol.NewMessageRead(messageID, readAt))
	return nil
}

// IsOnline reports whether the user has a live connection registered.
func (c *ChatDelivery) IsOnline(userID string) bool {
	return len(c.registry.MembersOf(userID)) > 0
}

package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"art-market/internal/domain"
	"art-market/internal/protocol"
	"art-market/internal/services"
	"art-market/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSendChatMessage_OnlineReceiver(t *testing.T) {
	messages := new(MockMessageStore)
	messages.On("Create", mock.AnythingOfType("*domain.ChatMessage")).Return(nil)
	registry := newFakeRegistry()

	sender := newFakeConn("c1", "u1", "u1")
	receiver := newFakeConn("c2", "u2", "u2")
	registry.Admit("u1", sender)
	registry.Admit("u2", receiver)

	delivery := services.NewChatDelivery(messages, registry, logger.Nop())

	message, err := delivery.SendChatMessage(context.Background(), "u1", "u2", "hello", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, message.ID)
	messages.AssertCalled(t, "Create", mock.AnythingOfType("*domain.ChatMessage"))

	received := receiver.Received()
	require.Len(t, received, 1)
	newMsg, ok := received[0].(protocol.NewMessage)
	require.True(t, ok)
	assert.Equal(t, message.ID, newMsg.MessageID)
	assert.Equal(t, "u1", newMsg.SenderID)
	assert.Equal(t, "hello", newMsg.Content)

	confirmations := sender.Received()
	require.Len(t, confirmations, 1)
	sent, ok := confirmations[0].(protocol.MessageSent)
	require.True(t, ok)
	assert.Equal(t, message.ID, sent.MessageID)
	assert.Equal(t, "u2", sent.ReceiverID)
}

func TestSendChatMessage_OfflineReceiverStoredOnly(t *testing.T) {
	messages := new(MockMessageStore)
	messages.On("Create", mock.AnythingOfType("*domain.ChatMessage")).Return(nil)
	registry := newFakeRegistry()

	sender := newFakeConn("c1", "u1", "u1")
	registry.Admit("u1", sender)

	delivery := services.NewChatDelivery(messages, registry, logger.Nop())

	message, err := delivery.SendChatMessage(context.Background(), "u1", "u2", "hello", nil)
	require.NoError(t, err)

	// Persisted, sender confirmed, nothing delivered to the offline user.
	messages.AssertCalled(t, "Create", mock.AnythingOfType("*domain.ChatMessage"))
	require.Len(t, sender.Received(), 1)
	assert.Empty(t, registry.Broadcasts("u2"))
	assert.False(t, delivery.IsOnline("u2"))
	assert.NotEmpty(t, message.ID)
}

func TestSendChatMessage_StoreFailureAbortsDelivery(t *testing.T) {
	messages := new(MockMessageStore)
	messages.On("Create", mock.AnythingOfType("*domain.ChatMessage")).Return(errors.New("db down"))
	registry := newFakeRegistry()

	receiver := newFakeConn("c2", "u2", "u2")
	registry.Admit("u2", receiver)

	delivery := services.NewChatDelivery(messages, registry, logger.Nop())

	_, err := delivery.SendChatMessage(context.Background(), "u1", "u2", "hello", nil)
	require.Error(t, err)
	assert.Empty(t, receiver.Received())
}

func TestSendTyping_EphemeralAndPresenceGated(t *testing.T) {
	messages := new(MockMessageStore)
	registry := newFakeRegistry()

	receiver := newFakeConn("c2", "u2", "u2")
	registry.Admit("u2", receiver)

	delivery := services.NewChatDelivery(messages, registry, logger.Nop())

	delivery.SendTyping("u1", "u2", true)
	received := receiver.Received()
	require.Len(t, received, 1)
	indicator, ok := received[0].(protocol.TypingIndicator)
	require.True(t, ok)
	assert.Equal(t, "u1", indicator.SenderID)
	assert.True(t, indicator.IsTyping)

	// Offline receiver: dropped, never persisted.
	delivery.SendTyping("u1", "u3", true)
	assert.Empty(t, registry.Broadcasts("u3"))
	messages.AssertNotCalled(t, "Create", mock.Anything)
}

func TestMarkRead_RepliesToRequester(t *testing.T) {
	readAt := time.Now().Add(-time.Minute)
	messages := new(MockMessageStore)
	messages.On("MarkRead", "msg_1", mock.AnythingOfType("time.Time")).Return(readAt, nil)
	registry := newFakeRegistry()

	requester := newFakeConn("c1", "u2", "u2")
	registry.Admit("u2", requester)

	delivery := services.NewChatDelivery(messages, registry, logger.Nop())

	// The store keeps the original timestamp, so a second call echoes the
	// same readAt back.
	for i := 0; i < 2; i++ {
		require.NoError(t, delivery.MarkRead(context.Background(), "u2", "msg_1"))
	}

	received := requester.Received()
	require.Len(t, received, 2)
	for _, message := range received {
		read, ok := message.(protocol.MessageRead)
		require.True(t, ok)
		assert.Equal(t, "msg_1", read.MessageID)
		assert.True(t, readAt.Equal(read.ReadAt))
	}
}

func TestMarkRead_UnknownMessage(t *testing.T) {
	messages := new(MockMessageStore)
	messages.On("MarkRead", "msg_missing", mock.AnythingOfType("time.Time")).
		Return(time.Time{}, errors.New("message msg_missing not found"))
	registry := newFakeRegistry()
	delivery := services.NewChatDelivery(messages, registry, logger.Nop())

	err := delivery.MarkRead(context.Background(), "u2", "msg_missing")
	require.Error(t, err)
	assert.Empty(t, registry.Broadcasts("u2"))
}

func TestIsOnline(t *testing.T) {
	registry := newFakeRegistry()
	delivery := services.NewChatDelivery(new(MockMessageStore), registry, logger.Nop())

	assert.False(t, delivery.IsOnline("u1"))

	conn := newFakeConn("c1", "u1", "u1")
	registry.Admit("u1", conn)
	assert.True(t, delivery.IsOnline("u1"))

	registry.Evict("u1", conn)
	assert.False(t, delivery.IsOnline("u1"))
}

var _ domain.MessageStore = (*MockMessageStore)(nil)

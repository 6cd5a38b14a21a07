package protocol

import (
	"time"
)

type AuctionStatus struct {
	Type            string  `json:"type"`
	ArtworkID       string  `json:"artworkId"`
	CurrentBid      float64 `json:"currentBid"`
	HighestBidderID string  `json:"highestBidderId,omitempty"`
	BidCount        int     `json:"bidCount"`
	TimeRemaining   int64   `json:"timeRemaining"`
}

func NewAuctionStatus(artworkID string, currentBid float64, highestBidderID string, bidCount int, timeRemaining int64) AuctionStatus {
	return AuctionStatus{
		Type:            TypeAuctionStatus,
		ArtworkID:       artworkID,
		CurrentBid:      currentBid,
		HighestBidderID: highestBidderID,
		BidCount:        bidCount,
		TimeRemaining:   timeRemaining,
	}
}

type BidUpdate struct {
	Type          string  `json:"type"`
	ArtworkID     string  `json:"artworkId"`
	NewBid        float64 `json:"newBid"`
	BidderID      string  `json:"bidderId"`
	BidCount      int     `json:"bidCount"`
	TimeRemaining int64   `json:"timeRemaining"`
}

func NewBidUpdate(artworkID string, newBid float64, bidderID string, bidCount int, timeRemaining int64) BidUpdate {
	return BidUpdate{
		Type:          TypeBidUpdate,
		ArtworkID:     artworkID,
		NewBid:        newBid,
		BidderID:      bidderID,
		BidCount:      bidCount,
		TimeRemaining: timeRemaining,
	}
}

type TimerUpdate struct {
	Type            string  `json:"type"`
	ArtworkID       string  `json:"artworkId"`
	TimeRemaining   int64   `json:"timeRemaining"`
	CurrentBid      float64 `json:"currentBid"`
	HighestBidderID string  `json:"highestBidderId,omitempty"`
}

func NewTimerUpdate(artworkID string, timeRemaining int64, currentBid float64, highestBidderID string) TimerUpdate {
	return TimerUpdate{
		Type:            TypeTimerUpdate,
		ArtworkID:       artworkID,
		TimeRemaining:   timeRemaining,
		CurrentBid:      currentBid,
		HighestBidderID: highestBidderID,
	}
}

type Connection struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Status string `json:"status"`
}

func NewConnection(userID string) Connection {
	return Connection{Type: TypeConnection, UserID: userID, Status: "connected"}
}

type NewMessage struct {
	Type      string    `json:"type"`
	MessageID string    `json:"messageId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	ArtworkID *string   `json:"artworkId,omitempty"`
	SentAt    time.Time `json:"sentAt"`
}

func NewNewMessage(messageID, senderID, content string, artworkID *string, sentAt time.Time) NewMessage {
	return NewMessage{
		Type:      TypeNewMessage,
		MessageID: messageID,
		SenderID:  senderID,
		Content:   content,
		ArtworkID: artworkID,
		SentAt:    sentAt,
	}
}

type MessageSent struct {
	Type       string    `json:"type"`
	MessageID  string    `json:"messageId"`
	ReceiverID string    `json:"receiverId"`
	SentAt     time.Time `json:"sentAt"`
}

func NewMessageSent(messageID, receiverID string, sentAt time.Time) MessageSent {
	return MessageSent{
		Type:       TypeMessageSent,
		MessageID:  messageID,
		ReceiverID: receiverID,
		SentAt:     sentAt,
	}
}

type TypingIndicator struct {
	Type     string `json:"type"`
	SenderID string `json:"senderId"`
	IsTyping bool   `json:"isTyping"`
}

func NewTypingIndicator(senderID string, isTyping bool) TypingIndicator {
	return TypingIndicator{Type: TypeTypingIndicator, SenderID: senderID, IsTyping: isTyping}
}

type MessageRead struct {
	Type      string    `json:"type"`
	MessageID string    `json:"messageId"`
	ReadAt    time.Time `json:"readAt"`
}

func NewMessageRead(messageID string, readAt time.Time) MessageRead {
	return MessageRead{Type: TypeMessageRead, MessageID: messageID, ReadAt: readAt}
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewError(message string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: message}
}

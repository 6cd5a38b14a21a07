package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound message types
const (
	TypePlaceBid    = "place_bid"
	TypeGetStatus   = "get_status"
	TypeChatMessage = "chat_message"
	TypeTyping      = "typing"
	TypeMarkRead    = "mark_read"
)

// Outbound message types
const (
	TypeAuctionStatus   = "auction_status"
	TypeBidUpdate       = "bid_update"
	TypeTimerUpdate     = "timer_update"
	TypeConnection      = "connection"
	TypeNewMessage      = "new_message"
	TypeMessageSent     = "message_sent"
	TypeTypingIndicator = "typing_indicator"
	TypeMessageRead     = "message_read"
	TypeError           = "error"
)

// ErrUnknownType marks an envelope whose type tag is not in the inbound
// vocabulary. Callers log and drop these; every other decode error gets an
// error reply to the originating connection.
var ErrUnknownType = errors.New("unknown message type")

type PlaceBid struct {
	BidAmount float64 `json:"bidAmount"`
	BidderID  string  `json:"bidderId"`
}

type ChatMessagePayload struct {
	ReceiverID string  `json:"receiverId"`
	Content    string  `json:"content"`
	ArtworkID  *string `json:"artworkId,omitempty"`
}

type Typing struct {
	ReceiverID string `json:"receiverId"`
	IsTyping   bool   `json:"isTyping"`
}

type MarkRead struct {
	MessageID string `json:"messageId"`
}

// Inbound is the decoded envelope. Exactly one payload pointer is set,
// matching Type; get_status carries no payload.
type Inbound struct {
	Type        string
	PlaceBid    *PlaceBid
	ChatMessage *ChatMessagePayload
	Typing      *Typing
	MarkRead    *MarkRead
}

type rawEnvelope struct {
	Type       string   `json:"type"`
	BidAmount  *float64 `json:"bidAmount"`
	BidderID   string   `json:"bidderId"`
	ReceiverID string   `json:"receiverId"`
	Content    string   `json:"content"`
	ArtworkID  *string  `json:"artworkId"`
	IsTyping   *bool    `json:"isTyping"`
	MessageID  string   `json:"messageId"`
}

// Decode parses an inbound frame into its typed envelope. The type tag is a
// closed set; missing mandatory fields fail the decode.
func Decode(data []byte) (*Inbound, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}
	if raw.Type == "" {
		return nil, errors.New("envelope missing type")
	}

	switch raw.Type {
	case TypePlaceBid:
		if raw.BidAmount == nil {
			return nil, errors.New("place_bid missing bidAmount")
		}
		if raw.BidderID == "" {
			return nil, errors.New("place_bid missing bidderId")
		}
		return &Inbound{Type: raw.Type, PlaceBid: &PlaceBid{
			BidAmount: *raw.BidAmount,
			BidderID:  raw.BidderID,
		}}, nil

	case TypeGetStatus:
		return &Inbound{Type: raw.Type}, nil

	case TypeChatMessage:
		if raw.ReceiverID == "" {
			return nil, errors.New("chat_message missing receiverId")
		}
		if raw.Content == "" {
			return nil, errors.New("chat_message missing content")
		}
		return &Inbound{Type: raw.Type, ChatMessage: &ChatMessagePayload{
			ReceiverID: raw.ReceiverID,
			Content:    raw.Content,
			ArtworkID:  raw.ArtworkID,
		}}, nil

	case TypeTyping:
		if raw.ReceiverID == "" {
			return nil, errors.New("typing missing receiverId")
		}
		if raw.IsTyping == nil {
			return nil, errors.New("typing missing isTyping")
		}
		return &Inbound{Type: raw.Type, Typing: &Typing{
			ReceiverID: raw.ReceiverID,
			IsTyping:   *raw.IsTyping,
		}}, nil

	case TypeMarkRead:
		if raw.MessageID == "" {
			return nil, errors.New("mark_read missing messageId")
		}
		return &Inbound{Type: raw.Type, MarkRead: &MarkRead{
			MessageID: raw.MessageID,
		}}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, raw.Type)
	}
}

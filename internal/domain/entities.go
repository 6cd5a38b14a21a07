package domain

import (
	"time"
)

type SaleType string

const (
	SaleFixed      SaleType = "fixed"
	SaleNegotiable SaleType = "negotiable"
	SaleAuction    SaleType = "auction"
)

type Artwork struct {
	ID              string
	Title           string
	ArtistID        string
	SaleType        SaleType
	Price           float64
	StartingBid     float64
	CurrentBid      *float64
	HighestBidderID *string
	BidCount        int
	AuctionEndTime  *time.Time
	Settled         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HighestPrice is the price a new bid must strictly exceed: the current bid
// when one exists, otherwise the starting bid.
func (a *Artwork) HighestPrice() float64 {
	if a.CurrentBid != nil {
		return *a.CurrentBid
	}
	return a.StartingBid
}

// AuctionTimeRemaining reports whole seconds until the auction ends, floored
// at zero. Returns 0 when the artwork carries no end time.
func (a *Artwork) AuctionTimeRemaining(now time.Time) int64 {
	if a.AuctionEndTime == nil {
		return 0
	}
	remaining := int64(a.AuctionEndTime.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

type ChatMessage struct {
	ID         string
	SenderID   string
	ReceiverID string
	ArtworkID  *string
	Content    string
	IsRead     bool
	ReadAt     *time.Time
	CreatedAt  time.Time
}

// Bid is the ephemeral submission handed to the arbitrator. Accepted bids
// mutate the artwork's auction state; bids are never stored standalone.
type Bid struct {
	ArtworkID   string
	BidderID    string
	Amount      float64
	SubmittedAt time.Time
}

type RejectReason string

const (
	RejectArtworkNotFound RejectReason = "artwork not found"
	RejectNotAuction      RejectReason = "artwork is not up for auction"
	RejectAuctionEnded    RejectReason = "auction has ended"
	RejectBidTooLow       RejectReason = "bid must be higher than current bid"
	RejectBidConflict     RejectReason = "a newer bid was committed first"
)

type BidOutcome struct {
	Accepted      bool
	Reason        RejectReason
	ArtworkID     string
	BidderID      string
	NewBid        float64
	BidCount      int
	TimeRemaining int64
}

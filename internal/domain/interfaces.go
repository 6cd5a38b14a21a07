package domain

import (
	"context"
	"time"
)

// Repository interfaces
type ArtworkStore interface {
	Create(ctx context.Context, artwork *Artwork) error
	// FindByID returns (nil, nil) when no artwork exists for the id.
	FindByID(ctx context.Context, artworkID string) (*Artwork, error)
	// CommitBid applies an accepted bid to the artwork's auction state. The
	// update only matches when the stored current bid still equals prevBid,
	// so a commit computed from a stale read affects zero rows and reports
	// false. Increments the bid count on success.
	CommitBid(ctx context.Context, prevBid *float64, bid Bid) (bool, error)
	// MarkSettled flips the settled flag and reports whether this call was
	// the one that flipped it.
	MarkSettled(ctx context.Context, artworkID string) (bool, error)
	ListUnsettledEnded(ctx context.Context, before time.Time) ([]*Artwork, error)
}

type MessageStore interface {
	Create(ctx context.Context, message *ChatMessage) error
	// MarkRead sets the read flag and returns the effective read timestamp.
	// Calling it again returns the original timestamp unchanged.
	MarkRead(ctx context.Context, messageID string, at time.Time) (time.Time, error)
}

// AuctionSettler hands an ended auction to the external settlement workflow.
// Idempotent from this core's perspective; fire-and-forget.
type AuctionSettler interface {
	ProcessEndedAuction(ctx context.Context, artworkID string) error
}

// Presence interfaces
type PresenceCache interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
	IsOnline(ctx context.Context, userID string) (bool, error)
}

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// WebSocket interfaces
type Conn interface {
	Send(message interface{}) error
	Close() error
	ID() string
	UserID() string
	Key() string
}

// Registry groups live connections by key: artwork id for auction rooms,
// user id for chat. One instance per subsystem, injected at startup.
type Registry interface {
	Admit(key string, conn Conn)
	// Evict returns the number of members left under the key; the last
	// eviction removes the key entry entirely.
	Evict(key string, conn Conn) int
	MembersOf(key string) []Conn
	// Broadcast delivers to a snapshot of the members at call time. Failed
	// recipients are logged and skipped.
	Broadcast(key string, message interface{}) error
}

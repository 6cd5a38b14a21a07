package services

import (
	"context"
	"sync"
	"time"

	"art-market/internal/domain"
	"art-market/internal/protocol"
	"art-market/pkg/logger"
)

// keyedMutex hands out one mutex per artwork id so bids on unrelated
// artworks never contend. Entries are reference counted and dropped when
// the last holder releases, so the table only ever holds artworks with a
// bid in flight.
type keyedMutex struct {
	entries map[string]*keyedEntry
	mu      sync.Mutex
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[string]*keyedEntry)}
}

// lock blocks until the key's critical section is free and returns the
// matching release.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.entries[key]
	if !ok {
		entry = &keyedEntry{}
		k.entries[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

// BidArbitrator validates and commits bids against an artwork's live auction
// state. The whole read-validate-write cycle for one artwork runs inside
// that artwork's critical section, so two concurrent acceptances can never
// be computed from the same prior state.
type BidArbitrator struct {
	artworks domain.ArtworkStore
	rooms    domain.Registry
	locks    *keyedMutex
	log      logger.Logger
}

func NewBidArbitrator(artworks domain.ArtworkStore, rooms domain.Registry, log logger.Logger) *BidArbitrator {
	return &BidArbitrator{
		artworks: artworks,
		rooms:    rooms,
		locks:    newKeyedMutex(),
		log:      log,
	}
}

// PlaceBid runs the read-validate-write cycle and, on acceptance, announces
// the bid_update to the room before releasing the artwork's critical
// section, so broadcasts observe commit order.
func (a *BidArbitrator) PlaceBid(ctx context.Context, artworkID, bidderID string, amount float64) (*domain.BidOutcome, error) {
	a.log.Debug("Placing bid", "artwork_id", artworkID, "bidder_id", bidderID, "amount", amount)

	unlock := a.locks.lock(artworkID)
	defer unlock()

	artwork, err := a.artworks.FindByID(ctx, artworkID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	reject := func(reason domain.RejectReason) *domain.BidOutcome {
		return &domain.BidOutcome{
			Accepted:  false,
			Reason:    reason,
			ArtworkID: artworkID,
			BidderID:  bidderID,
		}
	}

	if artwork == nil {
		return reject(domain.RejectArtworkNotFound), nil
	}
	if artwork.SaleType != domain.SaleAuction {
		return reject(domain.RejectNotAuction), nil
	}
	if artwork.AuctionEndTime == nil || !artwork.AuctionEndTime.After(now) {
		return reject(domain.RejectAuctionEnded), nil
	}
	if amount <= artwork.HighestPrice() {
		return reject(domain.RejectBidTooLow), nil
	}

	committed, err := a.artworks.CommitBid(ctx, artwork.CurrentBid, domain.Bid{
		ArtworkID:   artworkID,
		BidderID:    bidderID,
		Amount:      amount,
		SubmittedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if !committed {
		// The store's guarded update saw a newer current bid than the one
		// validated against. Can only happen when another process shares
		// the database; inside one process the critical section prevents it.
		return reject(domain.RejectBidConflict), nil
	}

	outcome := &domain.BidOutcome{
		Accepted:      true,
		ArtworkID:     artworkID,
		BidderID:      bidderID,
		NewBid:        amount,
		BidCount:      artwork.BidCount + 1,
		TimeRemaining: artwork.AuctionTimeRemaining(now),
	}

	// Rejections go back to the submitting connection only; the room hears
	// nothing.
	a.rooms.Broadcast(artworkID, protocol.NewBidUpdate(
		artworkID, outcome.NewBid, bidderID, outcome.BidCount, outcome.TimeRemaining))
	a.log.Info("Bid accepted", "artwork_id", artworkID, "bidder_id", bidderID,
		"amount", amount, "bid_count", outcome.BidCount)

	return outcome, nil
}

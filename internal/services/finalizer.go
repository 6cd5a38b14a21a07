package services

import (
	"context"

	"art-market/internal/domain"
	"art-market/pkg/logger"
)

// Finalizer performs the one-time transition of an auction from active to
// ended. The settled flag in the store is the finalize-once marker: both the
// per-room timer and the settlement sweeper route through here, and only the
// caller that flips the flag delegates to the settlement collaborator.
type Finalizer struct {
	artworks domain.ArtworkStore
	settler  domain.AuctionSettler
	log      logger.Logger
}

func NewFinalizer(artworks domain.ArtworkStore, settler domain.AuctionSettler, log logger.Logger) *Finalizer {
	return &Finalizer{
		artworks: artworks,
		settler:  settler,
		log:      log,
	}
}

// Finalize reports whether this call performed the finalization.
func (f *Finalizer) Finalize(ctx context.Context, artworkID string) bool {
	settled, err := f.artworks.MarkSettled(ctx, artworkID)
	if err != nil {
		f.log.Error("Failed to mark auction settled", "artwork_id", artworkID, "error", err)
		return false
	}
	if !settled {
		return false
	}

	// Settlement failure is logged, not retried; the worker behind the
	// settlement channel owns recovery of its own intake.
	if err := f.settler.ProcessEndedAuction(ctx, artworkID); err != nil {
		f.log.Error("Failed to hand auction to settlement", "artwork_id", artworkID, "error", err)
	} else {
		f.log.Info("Auction finalized", "artwork_id", artworkID)
	}
	return true
}

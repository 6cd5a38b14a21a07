package services

import (
	"context"
	"time"

	"art-market/internal/domain"
	"art-market/pkg/logger"

	"github.com/robfig/cron/v3"
)

// SettlementSweeper finalizes auctions that ended without a live room: the
// per-room timer only runs while connections are present, so an auction that
// expires unwatched (or across a restart) is picked up here. Leadership
// gating keeps a multi-instance deployment to one sweeper; the finalizer's
// settled CAS makes overlap harmless regardless.
type SettlementSweeper struct {
	cron       *cron.Cron
	artworks   domain.ArtworkStore
	finalizer  *Finalizer
	leader     domain.LeaderElection
	instanceID string
	spec       string
	log        logger.Logger
}

func NewSettlementSweeper(artworks domain.ArtworkStore, finalizer *Finalizer,
	leader domain.LeaderElection, instanceID, spec string, log logger.Logger) *SettlementSweeper {
	return &SettlementSweeper{
		cron:       cron.New(cron.WithSeconds()),
		artworks:   artworks,
		finalizer:  finalizer,
		leader:     leader,
		instanceID: instanceID,
		spec:       spec,
		log:        log,
	}
}

func (s *SettlementSweeper) Start(ctx context.Context) error {
	s.log.Info("Starting settlement sweeper", "spec", s.spec)

	_, err := s.cron.AddFunc(s.spec, func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *SettlementSweeper) Stop() error {
	s.log.Info("Stopping settlement sweeper")
	s.cron.Stop()
	return nil
}

func (s *SettlementSweeper) Sweep(ctx context.Context) {
	isLeader, err := s.leader.IsLeader(ctx, s.instanceID)
	if err != nil {
		s.log.Error("Failed to check leadership", "error", err)
		return
	}
	if !isLeader {
		return
	}

	ended, err := s.artworks.ListUnsettledEnded(ctx, time.Now())
	if err != nil {
		s.log.Error("Failed to list ended auctions", "error", err)
		return
	}

	for _, artwork := range ended {
		if s.finalizer.Finalize(ctx, artwork.ID) {
			s.log.Info("Swept ended auction", "artwork_id", artwork.ID)
		}
	}
}

package services

import (
	"context"
	"sync"
	"time"

	"art-market/internal/domain"
	"art-market/internal/protocol"
	"art-market/pkg/logger"
)

type timerTask struct {
	stop     chan struct{}
	stopOnce sync.Once
}

func (t *timerTask) cancel() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// AuctionTimer runs one ticking task per artwork with an active room. Each
// tick re-reads the auction state, broadcasts a countdown update, and
// triggers finalization when the end time has passed. The task table is the
// single source of truth: check-and-insert under the mutex makes Start
// idempotent per artwork id.
type AuctionTimer struct {
	artworks  domain.ArtworkStore
	rooms     domain.Registry
	finalizer *Finalizer
	interval  time.Duration
	log       logger.Logger

	tasks map[string]*timerTask
	mutex sync.Mutex
}

func NewAuctionTimer(artworks domain.ArtworkStore, rooms domain.Registry,
	finalizer *Finalizer, interval time.Duration, log logger.Logger) *AuctionTimer {
	return &AuctionTimer{
		artworks:  artworks,
		rooms:     rooms,
		finalizer: finalizer,
		interval:  interval,
		log:       log,
		tasks:     make(map[string]*timerTask),
	}
}

// Start launches the ticking task for the artwork if none is running.
func (t *AuctionTimer) Start(artworkID string) {
	t.mutex.Lock()
	if _, exists := t.tasks[artworkID]; exists {
		t.mutex.Unlock()
		return
	}
	task := &timerTask{stop: make(chan struct{})}
	t.tasks[artworkID] = task
	t.mutex.Unlock()

	t.log.Info("Auction timer started", "artwork_id", artworkID)
	go t.run(artworkID, task)
}

// Stop cancels the artwork's ticking task, if any. Called when a departing
// member leaves the room empty; the next admission lazily restarts the
// timer. Membership is re-checked under the task mutex: another member may
// have been admitted between the caller's eviction and this call, and their
// admission already owns the running task.
func (t *AuctionTimer) Stop(artworkID string) {
	t.mutex.Lock()
	if len(t.rooms.MembersOf(artworkID)) > 0 {
		t.mutex.Unlock()
		return
	}
	task, exists := t.tasks[artworkID]
	if exists {
		delete(t.tasks, artworkID)
	}
	t.mutex.Unlock()

	if exists {
		task.cancel()
		t.log.Info("Auction timer stopped", "artwork_id", artworkID)
	}
}

// Running reports whether a task is active for the artwork.
func (t *AuctionTimer) Running(artworkID string) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	_, exists := t.tasks[artworkID]
	return exists
}

// remove clears the task entry only if it is still this task, so a task
// retiring late cannot tear down a successor started in the meantime.
func (t *AuctionTimer) remove(artworkID string, task *timerTask) {
	t.mutex.Lock()
	if current, exists := t.tasks[artworkID]; exists && current == task {
		delete(t.tasks, artworkID)
	}
	t.mutex.Unlock()
}

func (t *AuctionTimer) run(artworkID string, task *timerTask) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-task.stop:
			return
		case <-ticker.C:
			if done := t.tick(artworkID); done {
				t.remove(artworkID, task)
				task.cancel()
				return
			}
		}
	}
}

// tick reports true when the task should retire.
func (t *AuctionTimer) tick(artworkID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), t.interval)
	defer cancel()

	artwork, err := t.artworks.FindByID(ctx, artworkID)
	if err != nil {
		t.log.Error("Timer failed to read auction state", "artwork_id", artworkID, "error", err)
		return false
	}
	if artwork == nil || artwork.SaleType != domain.SaleAuction || artwork.AuctionEndTime == nil {
		t.log.Warn("Timer running for non-auction artwork", "artwork_id", artworkID)
		return true
	}
	if artwork.Settled {
		return true
	}

	now := time.Now()
	if !artwork.AuctionEndTime.After(now) {
		t.finalizer.Finalize(ctx, artworkID)
		return true
	}

	highestBidder := ""
	if artwork.HighestBidderID != nil {
		highestBidder = *artwork.HighestBidderID
	}
	t.rooms.Broadcast(artworkID, protocol.NewTimerUpdate(
		artworkID, artwork.AuctionTimeRemaining(now), artwork.HighestPrice(), highestBidder))
	return false
}

package services_test

import (
	"context"
	"sync"
	"time"

	"art-market/internal/domain"

	"github.com/stretchr/testify/mock"
)

// memArtworkStore is an in-memory ArtworkStore with the same guarded-update
// commit semantics as the MySQL repository.
type memArtworkStore struct {
	mu       sync.Mutex
	artworks map[string]*domain.Artwork
}

func newMemArtworkStore(artworks ...*domain.Artwork) *memArtworkStore {
	s := &memArtworkStore{artworks: make(map[string]*domain.Artwork)}
	for _, a := range artworks {
		s.artworks[a.ID] = a
	}
	return s
}

func (s *memArtworkStore) Create(ctx context.Context, artwork *domain.Artwork) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artworks[artwork.ID] = artwork
	return nil
}

func (s *memArtworkStore) FindByID(ctx context.Context, artworkID string) (*domain.Artwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	artwork, ok := s.artworks[artworkID]
	if !ok {
		return nil, nil
	}
	copied := *artwork
	return &copied, nil
}

func (s *memArtworkStore) CommitBid(ctx context.Context, prevBid *float64, bid domain.Bid) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	artwork, ok := s.artworks[bid.ArtworkID]
	if !ok || artwork.SaleType != domain.SaleAuction || artwork.Settled {
		return false, nil
	}
	if (artwork.CurrentBid == nil) != (prevBid == nil) {
		return false, nil
	}
	if artwork.CurrentBid != nil && *artwork.CurrentBid != *prevBid {
		return false, nil
	}

	amount := bid.Amount
	bidder := bid.BidderID
	artwork.CurrentBid = &amount
	artwork.HighestBidderID = &bidder
	artwork.BidCount++
	artwork.UpdatedAt = bid.SubmittedAt
	return true, nil
}

func (s *memArtworkStore) MarkSettled(ctx context.Context, artworkID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	artwork, ok := s.artworks[artworkID]
	if !ok || artwork.Settled {
		return false, nil
	}
	artwork.Settled = true
	return true, nil
}

func (s *memArtworkStore) ListUnsettledEnded(ctx context.Context, before time.Time) ([]*domain.Artwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ended []*domain.Artwork
	for _, artwork := range s.artworks {
		if artwork.SaleType != domain.SaleAuction || artwork.Settled || artwork.AuctionEndTime == nil {
			continue
		}
		if !artwork.AuctionEndTime.After(before) {
			copied := *artwork
			ended = append(ended, &copied)
		}
	}
	return ended, nil
}

// MockMessageStore mocks the MessageStore interface.
type MockMessageStore struct {
	mock.Mock
}

func (m *MockMessageStore) Create(ctx context.Context, message *domain.ChatMessage) error {
	args := m.Called(message)
	return args.Error(0)
}

func (m *MockMessageStore) MarkRead(ctx context.Context, messageID string, at time.Time) (time.Time, error) {
	args := m.Called(messageID, at)
	return args.Get(0).(time.Time), args.Error(1)
}

// MockSettler mocks the AuctionSettler interface.
type MockSettler struct {
	mock.Mock
}

func (m *MockSettler) ProcessEndedAuction(ctx context.Context, artworkID string) error {
	args := m.Called(artworkID)
	return args.Error(0)
}

// MockLeader mocks the LeaderElection interface.
type MockLeader struct {
	mock.Mock
}

func (m *MockLeader) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	args := m.Called(instanceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeader) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	args := m.Called(instanceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeader) ReleaseLeadership(ctx context.Context, instanceID string) error {
	args := m.Called(instanceID)
	return args.Error(0)
}

// fakeConn is a test double for domain.Conn that records what it was sent.
type fakeConn struct {
	id     string
	userID string
	key    string

	mu       sync.Mutex
	received []interface{}
	sendErr  error
}

func newFakeConn(id, userID, key string) *fakeConn {
	return &fakeConn{id: id, userID: userID, key: key}
}

func (c *fakeConn) Send(message interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.received = append(c.received, message)
	return nil
}

func (c *fakeConn) Close() error   { return nil }
func (c *fakeConn) ID() string     { return c.id }
func (c *fakeConn) UserID() string { return c.userID }
func (c *fakeConn) Key() string    { return c.key }

func (c *fakeConn) Received() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]interface{}(nil), c.received...)
}

// fakeRegistry is an in-memory domain.Registry recording broadcasts per key.
type fakeRegistry struct {
	mu      sync.Mutex
	members map[string][]domain.Conn
	sent    map[string][]interface{}
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		members: make(map[string][]domain.Conn),
		sent:    make(map[string][]interface{}),
	}
}

func (r *fakeRegistry) Admit(key string, conn domain.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[key] = append(r.members[key], conn)
}

func (r *fakeRegistry) Evict(key string, conn domain.Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []domain.Conn
	for _, c := range r.members[key] {
		if c.ID() != conn.ID() {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(r.members, key)
		return 0
	}
	r.members[key] = kept
	return len(kept)
}

func (r *fakeRegistry) MembersOf(key string) []domain.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Conn(nil), r.members[key]...)
}

func (r *fakeRegistry) Broadcast(key string, message interface{}) error {
	r.mu.Lock()
	members := append([]domain.Conn(nil), r.members[key]...)
	r.sent[key] = append(r.sent[key], message)
	r.mu.Unlock()

	for _, conn := range members {
		conn.Send(message)
	}
	return nil
}

func (r *fakeRegistry) Broadcasts(key string) []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]interface{}(nil), r.sent[key]...)
}

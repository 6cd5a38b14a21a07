package websocket

import (
	"sync"

	"art-market/internal/domain"
	"art-market/pkg/logger"
)

// Registry maps a grouping key to its set of live connections. Auction rooms
// key by artwork id, chat by user id; one Registry instance serves each
// subsystem. Entries are created lazily on first admission and removed when
// the last member leaves.
type Registry struct {
	groups map[string]map[string]domain.Conn // key -> connID -> connection
	mutex  sync.RWMutex
	log    logger.Logger
}

func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		groups: make(map[string]map[string]domain.Conn),
		log:    log,
	}
}

func (r *Registry) Admit(key string, conn domain.Conn) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.groups[key] == nil {
		r.groups[key] = make(map[string]domain.Conn)
	}
	r.groups[key][conn.ID()] = conn

	r.log.Info("Connection admitted", "key", key, "conn_id", conn.ID(), "user_id", conn.UserID())
}

func (r *Registry) Evict(key string, conn domain.Conn) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	members, exists := r.groups[key]
	if !exists {
		return 0
	}

	delete(members, conn.ID())
	remaining := len(members)
	if remaining == 0 {
		delete(r.groups, key)
	}

	r.log.Info("Connection evicted", "key", key, "conn_id", conn.ID(), "remaining", remaining)
	return remaining
}

func (r *Registry) MembersOf(key string) []domain.Conn {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var members []domain.Conn
	for _, conn := range r.groups[key] {
		members = append(members, conn)
	}
	return members
}

// Broadcast delivers to the snapshot of members at call time. Each delivery
// is attempted independently; a failed recipient is logged and skipped so it
// cannot abort delivery to the others.
func (r *Registry) Broadcast(key string, message interface{}) error {
	members := r.MembersOf(key)

	for _, conn := range members {
		if err := conn.Send(message); err != nil {
			r.log.Error("Failed to deliver broadcast", "key", key,
				"conn_id", conn.ID(), "user_id", conn.UserID(), "error", err)
			// Continue to other connections
		}
	}
	return nil
}

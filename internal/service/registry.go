package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/opsatya/cinemaSync/internal/model"
	apperrors "github.com/opsatya/cinemaSync/internal/pkg/errors"
)

// Registry is the in-memory view of live rooms: one entry per room, each with
// an exclusive critical section serializing that room's mutations and a cached
// projection of the last committed state. One Registry instance per process,
// constructed in main and injected. The store stays the system of record; the
// projection is advisory.
type Registry struct {
	mu       sync.Mutex
	rooms    map[string]*roomEntry
	lockWait time.Duration
}

type roomEntry struct {
	// sem has capacity 1; holding the token is holding the room's critical
	// section. Entries are never removed from the map, so a waiter can never
	// race a concurrently created duplicate entry for the same room. Evicted
	// rooms become cheap tombstones (nil projection).
	sem  chan struct{}
	mu   sync.RWMutex
	room *model.Room
}

// NewRegistry creates a registry with the given bound on lock acquisition
func NewRegistry(lockWait time.Duration) *Registry {
	if lockWait <= 0 {
		lockWait = 5 * time.Second
	}
	return &Registry{
		rooms:    make(map[string]*roomEntry),
		lockWait: lockWait,
	}
}

func (r *Registry) entry(roomID string) *roomEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rooms[roomID]
	if !ok {
		e = &roomEntry{sem: make(chan struct{}, 1)}
		r.rooms[roomID] = e
	}
	return e
}

// Acquire enters the room's critical section. The wait is bounded: callers
// that cannot get in within the configured window receive a retryable
// timeout instead of blocking indefinitely.
func (r *Registry) Acquire(ctx context.Context, roomID string) (release func(), err error) {
	e := r.entry(roomID)

	timer := time.NewTimer(r.lockWait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		return func() { <-e.sem }, nil
	case <-timer.C:
		return nil, apperrors.ErrLockTimeout
	case <-ctx.Done():
		return nil, apperrors.Wrap(ctx.Err(), http.StatusServiceUnavailable, "Request cancelled while waiting for room")
	}
}

// Commit stores the latest committed state for a room. The caller must hold
// the room's critical section.
func (r *Registry) Commit(room *model.Room) {
	e := r.entry(room.RoomID)
	e.mu.Lock()
	e.room = room
	e.mu.Unlock()
}

// Peek returns the cached projection, or nil if the room has not been
// touched (or was evicted) in this process.
func (r *Registry) Peek(roomID string) *model.Room {
	r.mu.Lock()
	e, ok := r.rooms[roomID]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.room
}

// Evict drops a room's projection, typically on deactivation
func (r *Registry) Evict(roomID string) {
	r.mu.Lock()
	e, ok := r.rooms[roomID]
	r.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	e.room = nil
	e.mu.Unlock()
}

// LiveCount reports how many rooms currently carry a projection
func (r *Registry) LiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.rooms {
		e.mu.RLock()
		if e.room != nil {
			n++
		}
		e.mu.RUnlock()
	}
	return n
}

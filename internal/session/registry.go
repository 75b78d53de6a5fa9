package session

import (
	"context"
	"sync"
)

// Registry hands out one Manager per user and serializes calls against it.
// The first call for a user resumes any workout left in progress, so a
// restarted server picks up where the user left off. A user's slot is
// dropped once no call holds it and no workout is active, so the map is
// bounded by the users with a workout in flight.
type Registry struct {
	backend Backend

	mu       sync.Mutex
	managers map[string]*slot
}

type slot struct {
	mu      sync.Mutex
	m       *Manager
	resumed bool
	// idle is written under mu at the end of each call and read under the
	// registry lock once refs is zero.
	idle bool
	// refs counts callers holding the slot; guarded by Registry.mu.
	refs int
}

// NewRegistry creates an empty Registry over b.
func NewRegistry(b Backend) *Registry {
	return &Registry{backend: b, managers: make(map[string]*slot)}
}

// With runs fn with exclusive access to the caller's Manager.
func (r *Registry) With(ctx context.Context, fn func(*Manager) error) error {
	uid, err := requireUser(ctx)
	if err != nil {
		return err
	}
	s := r.acquire(uid)
	defer r.release(uid, s)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.idle = !s.m.Store().IsActive() }()

	if !s.resumed {
		if _, err := s.m.Resume(ctx); err != nil {
			return err
		}
		s.resumed = true
	}
	return fn(s.m)
}

// Snapshot returns a copy of the caller's active workout state.
func (r *Registry) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := r.With(ctx, func(m *Manager) error {
		snap = m.Store().Snapshot()
		return nil
	})
	return snap, err
}

// Len reports how many users currently hold a slot.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.managers)
}

func (r *Registry) acquire(uid string) *slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.managers[uid]
	if !ok {
		s = &slot{m: NewManager(r.backend)}
		r.managers[uid] = s
	}
	s.refs++
	return s
}

func (r *Registry) release(uid string, s *slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.refs--
	if s.refs == 0 && s.idle {
		delete(r.managers, uid)
	}
}

package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const sweepInterval = 1 * time.Minute

// MemStore keeps sessions in a map and evicts expired ones from a
// background sweeper. Get also checks expiry itself, so a session never
// outlives its TTL even between sweeps.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string]Session

	stopSweep chan struct{}
	wg        sync.WaitGroup
}

func NewMemStore() *MemStore {
	s := &MemStore{
		sessions:  make(map[string]Session),
		stopSweep: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.sweepLoop()
	return s
}

func (s *MemStore) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(time.Now())
		case <-s.stopSweep:
			return
		}
	}
}

func (s *MemStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
		}
	}
}

func (s *MemStore) Create(ctx context.Context, userID int, ttl time.Duration) (Session, error) {
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess, nil
}

func (s *MemStore) Get(ctx context.Context, id string) (Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return Session{}, ErrNotFound
	}
	if sess.Expired(time.Now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *MemStore) Destroy(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

// Close stops the sweeper and waits for it to finish.
func (s *MemStore) Close() error {
	close(s.stopSweep)
	s.wg.Wait()
	return nil
}

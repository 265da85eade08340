package strava

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// stateTTL is how long an OAuth state stays redeemable after initiation.
const stateTTL = 10 * time.Minute

type pendingState struct {
	userID    int64
	createdAt time.Time
}

// StateStore tracks pending OAuth states between initiation and callback.
// States are single use and expire after stateTTL. The store is in-memory,
// so in-flight handshakes do not survive a restart.
type StateStore struct {
	mu     sync.Mutex
	states map[uuid.UUID]pendingState

	now func() time.Time
}

func NewStateStore() *StateStore {
	return &StateStore{
		states: make(map[uuid.UUID]pendingState),
		now:    time.Now,
	}
}

// Put registers a new state for the given user and returns it.
func (s *StateStore) Put(userID int64) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purge()

	state := uuid.New()
	s.states[state] = pendingState{userID: userID, createdAt: s.now()}
	return state
}

// Take redeems a state and returns the user it belongs to. A state can be
// taken at most once; expired or unknown states return false.
func (s *StateStore) Take(state uuid.UUID) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purge()

	pending, ok := s.states[state]
	if !ok {
		return 0, false
	}
	delete(s.states, state)
	return pending.userID, true
}

// purge drops expired states. Callers must hold s.mu.
func (s *StateStore) purge() {
	cutoff := s.now().Add(-stateTTL)
	for state, pending := range s.states {
		if pending.createdAt.Before(cutoff) {
			delete(s.states, state)
		}
	}
}

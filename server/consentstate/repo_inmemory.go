package consentstate

import (
	"errors"
	"sync"
	"time"
)

// stateTTL bounds how long a consent redirect may stay in flight.
const stateTTL = 15 * time.Minute

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.RWMutex
	states map[string]*State
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		states: make(map[string]*State),
	}
}

func (r *InMemoryRepo) Upsert(state string, consentState *State) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if consentState == nil {
		return errors.New("consentState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *consentState
	r.states[state] = &copied
	return nil
}

func (r *InMemoryRepo) Get(state string) (*State, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	consentState, exists := r.states[state]
	if !exists {
		return nil, errors.New("state not found")
	}
	if time.Since(consentState.CreatedAt) > stateTTL {
		return nil, errors.New("state expired")
	}

	copied := *consentState
	return &copied, nil
}

func (r *InMemoryRepo) Delete(state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, state)
	return nil
}

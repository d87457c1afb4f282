package progress

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

type stateKey struct {
	userID    string
	missionID string
}

// MemoryStore is an in-process Store. Units of work are serialized by a
// mutex and applied to copies, so a failed unit leaves nothing behind.
type MemoryStore struct {
	mu      sync.Mutex
	states  map[stateKey]MissionState
	credits map[stateKey]Credit
	events  []Event
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:  make(map[stateKey]MissionState),
		credits: make(map[stateKey]Credit),
	}
}

func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		states:  maps.Clone(s.states),
		credits: maps.Clone(s.credits),
		nextSeq: int64(len(s.events)) + 1,
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.states = tx.states
	s.credits = tx.credits
	s.events = append(s.events, tx.events...)
	return nil
}

// Credits returns every credit granted to the user.
func (s *MemoryStore) Credits(userID string) []Credit {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Credit
	for k, c := range s.credits {
		if k.userID == userID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b Credit) int { return a.CreditedAt.Compare(b.CreditedAt) })
	return out
}

// Events returns the user's events in append order.
func (s *MemoryStore) Events(userID string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of state records across all users.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

type memoryTx struct {
	states  map[stateKey]MissionState
	credits map[stateKey]Credit
	events  []Event
	nextSeq int64
}

func (tx *memoryTx) State(_ context.Context, userID, missionID string) (MissionState, bool, error) {
	st, ok := tx.states[stateKey{userID, missionID}]
	return st, ok, nil
}

func (tx *memoryTx) States(_ context.Context, userID string, missionIDs []string) (map[string]MissionState, error) {
	out := make(map[string]MissionState, len(missionIDs))
	for _, id := range missionIDs {
		if st, ok := tx.states[stateKey{userID, id}]; ok {
			out[id] = st
		}
	}
	return out, nil
}

func (tx *memoryTx) CreateState(_ context.Context, st MissionState) (bool, error) {
	k := stateKey{st.UserID, st.MissionID}
	if _, exists := tx.states[k]; exists {
		return false, nil
	}
	tx.states[k] = st
	return true, nil
}

func (tx *memoryTx) UpdateStatus(_ context.Context, userID, missionID string, from, to Status, at time.Time) (bool, error) {
	k := stateKey{userID, missionID}
	st, ok := tx.states[k]
	if !ok || st.Status != from {
		return false, nil
	}
	st.Status = to
	st.EnteredAt = at
	tx.states[k] = st
	return true, nil
}

func (tx *memoryTx) CreditReward(_ context.Context, c Credit) (bool, error) {
	k := stateKey{c.UserID, c.MissionID}
	if _, exists := tx.credits[k]; exists {
		return false, nil
	}
	tx.credits[k] = c
	return true, nil
}

func (tx *memoryTx) AppendEvent(_ context.Context, e Event) error {
	e.Sequence = tx.nextSeq
	tx.nextSeq++
	tx.events = append(tx.events, e)
	return nil
}

package progress

import (
	"context"
	"time"
)

// MissionState is one row of the flat (user, mission) state table.
type MissionState struct {
	UserID     string    `json:"user_id"`
	MissionID  string    `json:"mission_id"`
	CampaignID string    `json:"campaign_id"`
	Status     Status    `json:"status"`
	EnteredAt  time.Time `json:"entered_at"` // when the current status was entered
	CreatedAt  time.Time `json:"created_at"`
}

// Credit is the reward granted for completing a mission. At most one exists
// per (user, mission).
type Credit struct {
	UserID     string    `json:"user_id"`
	MissionID  string    `json:"mission_id"`
	CampaignID string    `json:"campaign_id"`
	Experience int       `json:"experience"`
	Currency   int       `json:"currency"`
	CreditedAt time.Time `json:"credited_at"`
}

// EventKind identifies what a progress event records.
type EventKind string

const (
	EventTransition EventKind = "transition"
	EventUnlocked   EventKind = "unlocked"
	EventRewarded   EventKind = "rewarded"
)

// Event is an append-only record of a state change. The event feed doubles
// as the cadet's notification inbox.
type Event struct {
	Sequence   int64     `json:"sequence"`
	UserID     string    `json:"user_id"`
	CampaignID string    `json:"campaign_id"`
	MissionID  string    `json:"mission_id"`
	Kind       EventKind `json:"kind"`
	From       Status    `json:"from,omitempty"`
	To         Status    `json:"to,omitempty"`
	Experience int       `json:"experience,omitempty"`
	Currency   int       `json:"currency,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Store persists per-user mission state. Atomic runs fn as one unit of work:
// either every write made through tx is kept, or none is.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of operations available inside a unit of work.
type Tx interface {
	// State returns the state record, or ok=false if none exists.
	State(ctx context.Context, userID, missionID string) (st MissionState, ok bool, err error)

	// States returns the existing records among missionIDs, keyed by mission ID.
	States(ctx context.Context, userID string, missionIDs []string) (map[string]MissionState, error)

	// CreateState inserts st unless a record already exists. Reports whether
	// a row was created.
	CreateState(ctx context.Context, st MissionState) (bool, error)

	// UpdateStatus moves the record from -> to only if it is currently in
	// from. Reports whether the record changed.
	UpdateStatus(ctx context.Context, userID, missionID string, from, to Status, at time.Time) (bool, error)

	// CreditReward records c unless the (user, mission) pair was already
	// credited. Reports whether the credit was new.
	CreditReward(ctx context.Context, c Credit) (bool, error)

	// AppendEvent adds e to the event log.
	AppendEvent(ctx context.Context, e Event) error
}

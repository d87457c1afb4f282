package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/missionhq/internal/logger"
	"github.com/abhisek/missionhq/internal/missiongraph"
)

// maxCASAttempts bounds how often a transition re-reads state after losing a
// compare-and-set race to a concurrent writer.
const maxCASAttempts = 3

// GraphSource resolves the campaign graph a mission belongs to. It returns a
// *NotFoundError for unknown missions.
type GraphSource interface {
	GraphForMission(ctx context.Context, missionID string) (*missiongraph.Graph, error)
}

// Tracker applies lifecycle transitions to per-user mission state.
type Tracker struct {
	store  Store
	graphs GraphSource
	now    func() time.Time
	log    *logger.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger used for transition audit lines.
func WithLogger(log *logger.Logger) Option {
	return func(t *Tracker) { t.log = log }
}

// NewTracker creates a Tracker over the given store and graph source.
func NewTracker(store Store, graphs GraphSource, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		graphs: graphs,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// InitResult summarizes an Initialize call.
type InitResult struct {
	UserID     string `json:"user_id"`
	CampaignID string `json:"campaign_id"`
	Created    int    `json:"created"`
	Existing   int    `json:"existing"`
	Unlocked   int    `json:"unlocked"` // existing LOCKED records released by a revision
}

// Transition is the outcome of RequestTransition.
type Transition struct {
	UserID     string      `json:"user_id"`
	MissionID  string      `json:"mission_id"`
	From       Status      `json:"from"`
	To         Status      `json:"to"`
	Changed    bool        `json:"changed"`
	Completion *Completion `json:"completion,omitempty"`
}

// Completion is the outcome of the completion hook.
type Completion struct {
	UserID     string   `json:"user_id"`
	MissionID  string   `json:"mission_id"`
	Credited   bool     `json:"credited"`
	Experience int      `json:"experience"`
	Currency   int      `json:"currency"`
	Unlocked   []string `json:"unlocked"`
}

// Initialize creates a state record for every mission of g that the user
// does not have yet. Missions whose prerequisites are all completed start
// AVAILABLE, the rest LOCKED; for a new user that means exactly the root
// missions are available. Existing records keep their status, except that a
// LOCKED record whose prerequisites are now all completed (a campaign
// revision dropped an edge) is moved to AVAILABLE. Progress is never reset:
// a prerequisite added by a revision does not re-lock a started mission.
func (t *Tracker) Initialize(ctx context.Context, userID string, g *missiongraph.Graph) (InitResult, error) {
	if userID == "" {
		return InitResult{}, errors.New("initialize: user id is required")
	}
	res := InitResult{UserID: userID, CampaignID: g.CampaignID()}
	missions := g.Missions()
	ids := make([]string, len(missions))
	for i, m := range missions {
		ids[i] = m.ID
	}

	err := t.store.Atomic(ctx, func(tx Tx) error {
		res.Created, res.Existing, res.Unlocked = 0, 0, 0
		existing, err := tx.States(ctx, userID, ids)
		if err != nil {
			return fmt.Errorf("load states: %w", err)
		}
		completed := make(map[string]bool)
		for id, st := range existing {
			if st.Status == StatusCompleted {
				completed[id] = true
			}
		}

		now := t.now().UTC()
		for _, m := range missions {
			if st, ok := existing[m.ID]; ok {
				res.Existing++
				if st.Status != StatusLocked || !g.IsUnlocked(m.ID, completed) {
					continue
				}
				changed, err := tx.UpdateStatus(ctx, userID, m.ID, StatusLocked, StatusAvailable, now)
				if err != nil {
					return fmt.Errorf("unlock %q: %w", m.ID, err)
				}
				if !changed {
					continue
				}
				res.Unlocked++
				if err := tx.AppendEvent(ctx, Event{
					UserID: userID, CampaignID: g.CampaignID(), MissionID: m.ID,
					Kind: EventUnlocked, From: StatusLocked, To: StatusAvailable, Timestamp: now,
				}); err != nil {
					return fmt.Errorf("append event: %w", err)
				}
				continue
			}
			status := StatusLocked
			if g.IsUnlocked(m.ID, completed) {
				status = StatusAvailable
			}
			created, err := tx.CreateState(ctx, MissionState{
				UserID:     userID,
				MissionID:  m.ID,
				CampaignID: g.CampaignID(),
				Status:     status,
				EnteredAt:  now,
				CreatedAt:  now,
			})
			if err != nil {
				return fmt.Errorf("create state for %q: %w", m.ID, err)
			}
			if created {
				res.Created++
			} else {
				res.Existing++
			}
		}
		return nil
	})
	if err != nil {
		return InitResult{}, err
	}

	t.log.Info("cadet initialized", "user_id", userID, "campaign_id", res.CampaignID,
		"created", res.Created, "existing", res.Existing, "unlocked", res.Unlocked)
	return res, nil
}

// RequestTransition moves the user's mission to target if the lifecycle
// allows it. Requesting COMPLETED on an already completed mission is a
// no-op. A transition into COMPLETED runs the completion hook in the same
// unit of work, so rewards and unlocks commit together with the status.
func (t *Tracker) RequestTransition(ctx context.Context, userID, missionID string, target Status) (Transition, error) {
	res := Transition{UserID: userID, MissionID: missionID, To: target}
	if !target.Valid() {
		return res, &InvalidTransitionError{UserID: userID, MissionID: missionID, To: target, Reason: "unknown status"}
	}
	g, m, err := t.resolve(ctx, missionID)
	if err != nil {
		return res, err
	}

	err = t.store.Atomic(ctx, func(tx Tx) error {
		res = Transition{UserID: userID, MissionID: missionID, To: target}
		for range maxCASAttempts {
			st, ok, err := tx.State(ctx, userID, missionID)
			if err != nil {
				return fmt.Errorf("load state: %w", err)
			}
			if !ok {
				return &NotFoundError{UserID: userID, MissionID: missionID}
			}
			res.From = st.Status

			if st.Status == StatusCompleted && target == StatusCompleted {
				return nil
			}
			if reason := checkTransition(st.Status, target, m.Confirmation); reason != "" {
				return &InvalidTransitionError{
					UserID: userID, MissionID: missionID,
					From: st.Status, To: target, Reason: reason,
				}
			}

			now := t.now().UTC()
			changed, err := tx.UpdateStatus(ctx, userID, missionID, st.Status, target, now)
			if err != nil {
				return fmt.Errorf("update status: %w", err)
			}
			if !changed {
				// Lost a race with a concurrent writer; re-read and re-validate.
				continue
			}
			res.Changed = true

			if err := tx.AppendEvent(ctx, Event{
				UserID: userID, CampaignID: m.CampaignID, MissionID: missionID,
				Kind: EventTransition, From: st.Status, To: target, Timestamp: now,
			}); err != nil {
				return fmt.Errorf("append event: %w", err)
			}

			if target == StatusCompleted {
				c, err := t.complete(ctx, tx, g, userID, m, now)
				if err != nil {
					return err
				}
				res.Completion = c
			}
			return nil
		}
		return fmt.Errorf("mission %q: state changed concurrently, retry the request", missionID)
	})
	if err != nil {
		var invalid *InvalidTransitionError
		if errors.As(err, &invalid) {
			t.log.Debug("transition rejected", "user_id", userID, "mission_id", missionID,
				"from", invalid.From, "to", invalid.To, "reason", invalid.Reason)
		}
		return res, err
	}

	if res.Changed {
		t.log.Info("mission transition", "user_id", userID, "mission_id", missionID,
			"from", res.From, "to", res.To)
	}
	return res, nil
}

// OnMissionCompleted credits the mission's reward, at most once per user,
// and unlocks every direct dependent whose prerequisites are now all
// completed. Unlocking stops at AVAILABLE. Safe to call repeatedly.
func (t *Tracker) OnMissionCompleted(ctx context.Context, userID, missionID string) (Completion, error) {
	g, m, err := t.resolve(ctx, missionID)
	if err != nil {
		return Completion{}, err
	}

	var res *Completion
	err = t.store.Atomic(ctx, func(tx Tx) error {
		st, ok, err := tx.State(ctx, userID, missionID)
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		if !ok {
			return &NotFoundError{UserID: userID, MissionID: missionID}
		}
		if st.Status != StatusCompleted {
			return &InvalidTransitionError{
				UserID: userID, MissionID: missionID,
				From: st.Status, To: StatusCompleted,
				Reason: "completion hook requires a completed mission",
			}
		}
		res, err = t.complete(ctx, tx, g, userID, m, t.now().UTC())
		return err
	})
	if err != nil {
		return Completion{}, err
	}
	return *res, nil
}

// Progress returns the user's state records for g in topological order.
// Missions the user was never initialized for are omitted.
func (t *Tracker) Progress(ctx context.Context, userID string, g *missiongraph.Graph) ([]MissionState, error) {
	missions := g.Missions()
	ids := make([]string, len(missions))
	for i, m := range missions {
		ids[i] = m.ID
	}

	var states map[string]MissionState
	err := t.store.Atomic(ctx, func(tx Tx) error {
		var err error
		states, err = tx.States(ctx, userID, ids)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	out := make([]MissionState, 0, len(states))
	for _, id := range ids {
		if st, ok := states[id]; ok {
			out = append(out, st)
		}
	}
	return out, nil
}

func (t *Tracker) resolve(ctx context.Context, missionID string) (*missiongraph.Graph, missiongraph.Mission, error) {
	g, err := t.graphs.GraphForMission(ctx, missionID)
	if err != nil {
		return nil, missiongraph.Mission{}, err
	}
	m, ok := g.Mission(missionID)
	if !ok {
		return nil, missiongraph.Mission{}, &NotFoundError{MissionID: missionID}
	}
	return g, m, nil
}

// complete runs inside a unit of work after m reached COMPLETED.
func (t *Tracker) complete(ctx context.Context, tx Tx, g *missiongraph.Graph, userID string, m missiongraph.Mission, now time.Time) (*Completion, error) {
	res := &Completion{UserID: userID, MissionID: m.ID, Unlocked: []string{}}

	credited, err := tx.CreditReward(ctx, Credit{
		UserID: userID, MissionID: m.ID, CampaignID: m.CampaignID,
		Experience: m.Experience, Currency: m.Currency, CreditedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("credit reward: %w", err)
	}
	if credited {
		res.Credited = true
		res.Experience = m.Experience
		res.Currency = m.Currency
		if err := tx.AppendEvent(ctx, Event{
			UserID: userID, CampaignID: m.CampaignID, MissionID: m.ID,
			Kind: EventRewarded, Experience: m.Experience, Currency: m.Currency, Timestamp: now,
		}); err != nil {
			return nil, fmt.Errorf("append event: %w", err)
		}
	}

	dependents := g.DependentsOf(m.ID)
	if len(dependents) == 0 {
		return res, nil
	}

	// One snapshot covers every dependent and all of their prerequisites.
	// Unlocking only ever writes AVAILABLE, which never satisfies a
	// prerequisite, so the snapshot stays valid for the whole pass and the
	// outcome does not depend on evaluation order.
	var ids []string
	seen := make(map[string]bool)
	for _, d := range dependents {
		for _, id := range append([]string{d}, g.PrerequisitesOf(d)...) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	states, err := tx.States(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("load dependent states: %w", err)
	}

	for _, d := range dependents {
		st, ok := states[d]
		if !ok || st.Status != StatusLocked {
			continue
		}
		ready := true
		for _, p := range g.PrerequisitesOf(d) {
			if states[p].Status != StatusCompleted {
				ready = false
				break
			}
		}
		if !ready {
			continue
		}
		changed, err := tx.UpdateStatus(ctx, userID, d, StatusLocked, StatusAvailable, now)
		if err != nil {
			return nil, fmt.Errorf("unlock %q: %w", d, err)
		}
		if !changed {
			continue
		}
		res.Unlocked = append(res.Unlocked, d)
		if err := tx.AppendEvent(ctx, Event{
			UserID: userID, CampaignID: m.CampaignID, MissionID: d,
			Kind: EventUnlocked, From: StatusLocked, To: StatusAvailable, Timestamp: now,
		}); err != nil {
			return nil, fmt.Errorf("append event: %w", err)
		}
	}
	return res, nil
}

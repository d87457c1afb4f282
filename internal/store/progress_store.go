package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/missionhq/internal/progress"
)

// ProgressStore returns the progress.Store backed by this store.
func (s *Store) ProgressStore() progress.Store {
	return &progressStore{s: s}
}

type progressStore struct {
	s *Store
}

var _ progress.Store = (*progressStore)(nil)

func (p *progressStore) Atomic(ctx context.Context, fn func(tx progress.Tx) error) error {
	return p.s.atomic(ctx, nil, func(tx dialect.Tx) error {
		return fn(&progressTx{b: p.s.builder(), q: tx})
	})
}

// progressTx implements progress.Tx over one SQL transaction.
type progressTx struct {
	b *entsql.DialectBuilder
	q querier
}

var stateSelectColumns = []string{"user_id", "mission_id", "campaign_id", "status", "entered_at", "created_at"}

func (t *progressTx) State(ctx context.Context, userID, missionID string) (progress.MissionState, bool, error) {
	var (
		st    progress.MissionState
		found bool
	)
	err := query(ctx, t.q, t.b.Select(stateSelectColumns...).
		From(t.b.Table(tableStates)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("mission_id", missionID))),
		func(rows *entsql.Rows) error {
			found = true
			var err error
			st, err = scanState(rows)
			return err
		})
	if err != nil {
		return progress.MissionState{}, false, err
	}
	return st, found, nil
}

func (t *progressTx) States(ctx context.Context, userID string, missionIDs []string) (map[string]progress.MissionState, error) {
	out := make(map[string]progress.MissionState, len(missionIDs))
	if len(missionIDs) == 0 {
		return out, nil
	}
	err := query(ctx, t.q, t.b.Select(stateSelectColumns...).
		From(t.b.Table(tableStates)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.In("mission_id", toAny(missionIDs)...))),
		func(rows *entsql.Rows) error {
			st, err := scanState(rows)
			if err != nil {
				return err
			}
			out[st.MissionID] = st
			return nil
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (t *progressTx) CreateState(ctx context.Context, st progress.MissionState) (bool, error) {
	n, err := exec(ctx, t.q, t.b.Insert(tableStates).
		Columns(stateSelectColumns...).
		Values(st.UserID, st.MissionID, st.CampaignID, string(st.Status), utc(st.EnteredAt), utc(st.CreatedAt)).
		OnConflict(entsql.ConflictColumns("user_id", "mission_id"), entsql.DoNothing()))
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *progressTx) UpdateStatus(ctx context.Context, userID, missionID string, from, to progress.Status, at time.Time) (bool, error) {
	n, err := exec(ctx, t.q, t.b.Update(tableStates).
		Set("status", string(to)).
		Set("entered_at", utc(at)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("mission_id", missionID),
			entsql.EQ("status", string(from)),
		)))
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *progressTx) CreditReward(ctx context.Context, c progress.Credit) (bool, error) {
	n, err := exec(ctx, t.q, t.b.Insert(tableCredits).
		Columns("user_id", "mission_id", "campaign_id", "experience", "currency", "credited_at").
		Values(c.UserID, c.MissionID, c.CampaignID, c.Experience, c.Currency, utc(c.CreditedAt)).
		OnConflict(entsql.ConflictColumns("user_id", "mission_id"), entsql.DoNothing()))
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *progressTx) AppendEvent(ctx context.Context, e progress.Event) error {
	_, err := exec(ctx, t.q, t.b.Insert(tableEvents).
		Columns("user_id", "campaign_id", "mission_id", "kind", "from_status", "to_status", "experience", "currency", "created_at").
		Values(e.UserID, e.CampaignID, e.MissionID, string(e.Kind), string(e.From), string(e.To), e.Experience, e.Currency, utc(e.Timestamp)))
	if err != nil {
		return fmt.Errorf("insert progress event: %w", err)
	}
	return nil
}

func scanState(rows *entsql.Rows) (progress.MissionState, error) {
	var (
		st     progress.MissionState
		status string
	)
	if err := rows.Scan(&st.UserID, &st.MissionID, &st.CampaignID, &status, &st.EnteredAt, &st.CreatedAt); err != nil {
		return progress.MissionState{}, err
	}
	st.Status = progress.Status(status)
	st.EnteredAt = st.EnteredAt.UTC()
	st.CreatedAt = st.CreatedAt.UTC()
	return st, nil
}

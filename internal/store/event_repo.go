package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/missionhq/internal/progress"
)

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{s: s, now: time.Now}
}

// eventRepo implements EventRepo. Progress events are written by the
// progress store inside its units of work; this repo only reads them.
type eventRepo struct {
	s   *Store
	now func() time.Time
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	b := r.s.builder()
	_, err := exec(ctx, r.s.drv, b.Insert(tableLLMRequests).
		Columns("provider", "model", "purpose", "input_tokens", "output_tokens", "latency_ms", "success", "error_message", "created_at").
		Values(data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens,
			data.LatencyMs, data.Success, data.ErrorMessage, utc(r.now())))
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) ProgressEvents(ctx context.Context, userID string, opts QueryOpts) ([]progress.Event, error) {
	b := r.s.builder()
	preds := []*entsql.Predicate{entsql.EQ("user_id", userID)}
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", utc(opts.From)))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("created_at", utc(opts.To)))
	}

	sel := b.Select("sequence", "user_id", "campaign_id", "mission_id", "kind", "from_status", "to_status", "experience", "currency", "created_at").
		From(b.Table(tableEvents)).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}

	var out []progress.Event
	err := query(ctx, r.s.drv, sel, func(rows *entsql.Rows) error {
		var (
			e              progress.Event
			kind, from, to string
		)
		if err := rows.Scan(&e.Sequence, &e.UserID, &e.CampaignID, &e.MissionID, &kind, &from, &to,
			&e.Experience, &e.Currency, &e.Timestamp); err != nil {
			return err
		}
		e.Kind = progress.EventKind(kind)
		e.From = progress.Status(from)
		e.To = progress.Status(to)
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query progress events: %w", err)
	}
	return out, nil
}

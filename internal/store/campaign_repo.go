package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/missionhq/internal/missiongraph"
)

// CampaignRepo returns a CampaignRepo backed by this store.
func (s *Store) CampaignRepo() CampaignRepo {
	return &campaignRepo{s: s}
}

type campaignRepo struct {
	s *Store
}

func (r *campaignRepo) SaveCampaign(ctx context.Context, data CampaignData, previous string) error {
	b := r.s.builder()
	c := data.Campaign
	theme := string(c.Theme)
	if theme == "" {
		theme = "{}"
	}

	return r.s.atomic(ctx, nil, func(tx dialect.Tx) error {
		var (
			n   int64
			err error
		)
		if previous == "" {
			n, err = exec(ctx, tx, b.Insert(tableCampaigns).
				Columns("id", "title", "revision", "theme", "created_at", "updated_at").
				Values(c.ID, c.Title, c.Revision, theme, utc(c.CreatedAt), utc(c.UpdatedAt)).
				OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()))
		} else {
			n, err = exec(ctx, tx, b.Update(tableCampaigns).
				Set("title", c.Title).
				Set("revision", c.Revision).
				Set("theme", theme).
				Set("updated_at", utc(c.UpdatedAt)).
				Where(entsql.And(entsql.EQ("id", c.ID), entsql.EQ("revision", previous))))
		}
		if err != nil {
			return fmt.Errorf("save campaign: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("campaign %q: %w", c.ID, ErrRevisionConflict)
		}

		for i, m := range data.Missions {
			if _, err := exec(ctx, tx, b.Insert(tableMissions).
				Columns("id", "campaign_id", "position", "title", "description", "experience", "currency", "confirmation").
				Values(m.ID, c.ID, i, m.Title, m.Description, m.Experience, m.Currency, string(m.Confirmation)).
				OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())); err != nil {
				return fmt.Errorf("save mission %q: %w", m.ID, err)
			}
		}

		if _, err := exec(ctx, tx, b.Delete(tableDependencies).
			Where(entsql.EQ("campaign_id", c.ID))); err != nil {
			return fmt.Errorf("clear dependencies: %w", err)
		}
		for _, d := range data.Dependencies {
			if _, err := exec(ctx, tx, b.Insert(tableDependencies).
				Columns("source_id", "target_id", "campaign_id").
				Values(d.Source, d.Target, c.ID)); err != nil {
				return fmt.Errorf("save dependency %s -> %s: %w", d.Source, d.Target, err)
			}
		}
		return nil
	})
}

func (r *campaignRepo) LoadCampaign(ctx context.Context, campaignID string) (CampaignData, bool, error) {
	b := r.s.builder()
	var (
		data  CampaignData
		found bool
	)
	err := query(ctx, r.s.drv, b.Select("id", "title", "revision", "theme", "created_at", "updated_at").
		From(b.Table(tableCampaigns)).
		Where(entsql.EQ("id", campaignID)),
		func(rows *entsql.Rows) error {
			found = true
			rec, err := scanCampaign(rows)
			data.Campaign = rec
			return err
		})
	if err != nil {
		return CampaignData{}, false, fmt.Errorf("load campaign: %w", err)
	}
	if !found {
		return CampaignData{}, false, nil
	}

	err = query(ctx, r.s.drv, b.Select("id", "campaign_id", "title", "description", "experience", "currency", "confirmation").
		From(b.Table(tableMissions)).
		Where(entsql.EQ("campaign_id", campaignID)).
		OrderBy("position", "id"),
		func(rows *entsql.Rows) error {
			var (
				m            missiongraph.Mission
				confirmation string
			)
			if err := rows.Scan(&m.ID, &m.CampaignID, &m.Title, &m.Description, &m.Experience, &m.Currency, &confirmation); err != nil {
				return err
			}
			m.Confirmation = missiongraph.Confirmation(confirmation)
			data.Missions = append(data.Missions, m)
			return nil
		})
	if err != nil {
		return CampaignData{}, false, fmt.Errorf("load missions: %w", err)
	}

	err = query(ctx, r.s.drv, b.Select("source_id", "target_id").
		From(b.Table(tableDependencies)).
		Where(entsql.EQ("campaign_id", campaignID)).
		OrderBy("source_id", "target_id"),
		func(rows *entsql.Rows) error {
			var d missiongraph.Dependency
			if err := rows.Scan(&d.Source, &d.Target); err != nil {
				return err
			}
			data.Dependencies = append(data.Dependencies, d)
			return nil
		})
	if err != nil {
		return CampaignData{}, false, fmt.Errorf("load dependencies: %w", err)
	}
	return data, true, nil
}

func (r *campaignRepo) ListCampaigns(ctx context.Context) ([]CampaignRecord, error) {
	b := r.s.builder()
	var out []CampaignRecord
	err := query(ctx, r.s.drv, b.Select("id", "title", "revision", "theme", "created_at", "updated_at").
		From(b.Table(tableCampaigns)).
		OrderBy("id"),
		func(rows *entsql.Rows) error {
			rec, err := scanCampaign(rows)
			out = append(out, rec)
			return err
		})
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return out, nil
}

func (r *campaignRepo) MissionCampaigns(ctx context.Context, missionIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(missionIDs))
	if len(missionIDs) == 0 {
		return out, nil
	}
	b := r.s.builder()
	err := query(ctx, r.s.drv, b.Select("id", "campaign_id").
		From(b.Table(tableMissions)).
		Where(entsql.In("id", toAny(missionIDs)...)),
		func(rows *entsql.Rows) error {
			var id, campaignID string
			if err := rows.Scan(&id, &campaignID); err != nil {
				return err
			}
			out[id] = campaignID
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("load mission owners: %w", err)
	}
	return out, nil
}

func scanCampaign(rows *entsql.Rows) (CampaignRecord, error) {
	var (
		rec   CampaignRecord
		theme string
	)
	if err := rows.Scan(&rec.ID, &rec.Title, &rec.Revision, &theme, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return CampaignRecord{}, err
	}
	rec.Theme = []byte(theme)
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// utc normalizes times before they are written so both drivers round-trip
// the same instant.
func utc(t time.Time) time.Time {
	return t.UTC()
}

package catalog

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/mod/semver"

	"github.com/abhisek/missionhq/internal/logger"
	"github.com/abhisek/missionhq/internal/missiongraph"
	"github.com/abhisek/missionhq/internal/progress"
	"github.com/abhisek/missionhq/internal/store"
)

// DefaultCacheSize is the number of campaign graphs kept in memory.
const DefaultCacheSize = 64

// ErrCampaignNotFound is returned for unknown campaign ids.
var ErrCampaignNotFound = errors.New("campaign not found")

// Campaign is a published campaign with its validated graph.
type Campaign struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Revision  string              `json:"revision"`
	Theme     ThemeConfig         `json:"theme"`
	Graph     *missiongraph.Graph `json:"-"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Summary is a campaign list entry.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Revision  string    `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ImportResult describes what Import did.
type ImportResult struct {
	CampaignID string `json:"campaign_id"`
	Revision   string `json:"revision"`
	Previous   string `json:"previous_revision,omitempty"`
	Missions   int    `json:"missions"`
	Created    bool   `json:"created"`
	Unchanged  bool   `json:"unchanged"`
}

// Service publishes campaign definitions and serves their graphs.
type Service struct {
	repo   store.CampaignRepo
	graphs *lru.Cache // campaign id -> *Campaign
	owners *lru.Cache // mission id -> campaign id
	now    func() time.Time
	log    *logger.Logger
}

var _ progress.GraphSource = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService creates a catalog over repo with an LRU cache holding up to
// cacheSize campaigns (DefaultCacheSize when <= 0).
func NewService(repo store.CampaignRepo, cacheSize int, opts ...Option) (*Service, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	graphs, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create graph cache: %w", err)
	}
	owners, err := lru.New(cacheSize * 32)
	if err != nil {
		return nil, fmt.Errorf("create owner cache: %w", err)
	}
	s := &Service{repo: repo, graphs: graphs, owners: owners, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Import validates and publishes a definition. Revisions must not go
// backwards, a published revision cannot change content, published
// missions cannot be removed, and mission ids cannot be taken from another
// campaign. Violations are reported as *missiongraph.ValidationError.
// If another import publishes the campaign first, Import returns
// store.ErrRevisionConflict and writes nothing.
func (s *Service) Import(ctx context.Context, def *Definition) (ImportResult, error) {
	g, err := def.Graph()
	if err != nil {
		return ImportResult{}, err
	}
	res := ImportResult{CampaignID: def.ID, Revision: def.Revision, Missions: g.Len()}

	theme, err := json.Marshal(def.Theme)
	if err != nil {
		return ImportResult{}, fmt.Errorf("encode theme: %w", err)
	}
	missions, deps := def.parts()
	now := s.now().UTC()
	data := store.CampaignData{
		Campaign: store.CampaignRecord{
			ID: def.ID, Title: def.Title, Revision: def.Revision,
			Theme: theme, CreatedAt: now, UpdatedAt: now,
		},
		Missions:     missions,
		Dependencies: deps,
	}

	existing, ok, err := s.repo.LoadCampaign(ctx, def.ID)
	if err != nil {
		return ImportResult{}, err
	}
	if ok {
		res.Previous = existing.Campaign.Revision
		data.Campaign.CreatedAt = existing.Campaign.CreatedAt
		var problems []string
		switch c := semver.Compare(def.Revision, existing.Campaign.Revision); {
		case c < 0:
			problems = append(problems, fmt.Sprintf("revision %s is older than published revision %s",
				def.Revision, existing.Campaign.Revision))
		case c == 0 && sameContent(existing, data):
			res.Unchanged = true
			return res, nil
		case c == 0:
			problems = append(problems, fmt.Sprintf("revision %s is already published with different content; bump the revision",
				def.Revision))
		}
		for _, m := range existing.Missions {
			if !g.Has(m.ID) {
				problems = append(problems, fmt.Sprintf("mission %q is published and cannot be removed", m.ID))
			}
		}
		if len(problems) > 0 {
			return ImportResult{}, missiongraph.Invalid(def.ID, problems...)
		}
	} else {
		res.Created = true
	}

	ids := make([]string, len(missions))
	for i, m := range missions {
		ids[i] = m.ID
	}
	owners, err := s.repo.MissionCampaigns(ctx, ids)
	if err != nil {
		return ImportResult{}, err
	}
	var problems []string
	for _, id := range ids {
		if owner, ok := owners[id]; ok && owner != def.ID {
			problems = append(problems, fmt.Sprintf("mission %q already belongs to campaign %q", id, owner))
		}
	}
	if len(problems) > 0 {
		return ImportResult{}, missiongraph.Invalid(def.ID, problems...)
	}

	if err := s.repo.SaveCampaign(ctx, data, res.Previous); err != nil {
		return ImportResult{}, fmt.Errorf("save campaign: %w", err)
	}
	s.graphs.Remove(def.ID)

	s.log.Info("campaign imported", "campaign_id", def.ID, "revision", def.Revision,
		"previous", res.Previous, "missions", res.Missions)
	return res, nil
}

// Campaign returns a published campaign.
func (s *Service) Campaign(ctx context.Context, campaignID string) (*Campaign, error) {
	if v, ok := s.graphs.Get(campaignID); ok {
		return v.(*Campaign), nil
	}

	data, ok, err := s.repo.LoadCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCampaignNotFound, campaignID)
	}
	g, err := missiongraph.Build(campaignID, data.Missions, data.Dependencies)
	if err != nil {
		return nil, fmt.Errorf("stored campaign %q is invalid: %w", campaignID, err)
	}
	var theme ThemeConfig
	if len(data.Campaign.Theme) > 0 {
		if err := json.Unmarshal(data.Campaign.Theme, &theme); err != nil {
			s.log.Warn("ignoring unreadable campaign theme", "campaign_id", campaignID, "error", err)
		}
	}

	c := &Campaign{
		ID:        campaignID,
		Title:     data.Campaign.Title,
		Revision:  data.Campaign.Revision,
		Theme:     theme,
		Graph:     g,
		CreatedAt: data.Campaign.CreatedAt,
		UpdatedAt: data.Campaign.UpdatedAt,
	}
	s.graphs.Add(campaignID, c)
	for _, m := range data.Missions {
		s.owners.Add(m.ID, campaignID)
	}
	return c, nil
}

// Graph returns a campaign's mission graph.
func (s *Service) Graph(ctx context.Context, campaignID string) (*missiongraph.Graph, error) {
	c, err := s.Campaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return c.Graph, nil
}

// GraphForMission returns the graph of the campaign owning missionID, or a
// *progress.NotFoundError if no campaign has it.
func (s *Service) GraphForMission(ctx context.Context, missionID string) (*missiongraph.Graph, error) {
	campaignID, ok := "", false
	if v, hit := s.owners.Get(missionID); hit {
		campaignID, ok = v.(string), true
	} else {
		owners, err := s.repo.MissionCampaigns(ctx, []string{missionID})
		if err != nil {
			return nil, err
		}
		campaignID, ok = owners[missionID]
	}
	if !ok {
		return nil, &progress.NotFoundError{MissionID: missionID}
	}
	// Missions never move between campaigns, so the owner entry stays valid.
	s.owners.Add(missionID, campaignID)
	return s.Graph(ctx, campaignID)
}

// Campaigns lists published campaigns ordered by id.
func (s *Service) Campaigns(ctx context.Context) ([]Summary, error) {
	recs, err := s.repo.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, len(recs))
	for i, r := range recs {
		out[i] = Summary{ID: r.ID, Title: r.Title, Revision: r.Revision, UpdatedAt: r.UpdatedAt}
	}
	return out, nil
}

// sameContent compares everything but timestamps.
func sameContent(a, b store.CampaignData) bool {
	if a.Campaign.Title != b.Campaign.Title || !sameTheme(a.Campaign.Theme, b.Campaign.Theme) {
		return false
	}
	if !slices.Equal(a.Missions, b.Missions) {
		return false
	}
	byPair := func(x, y missiongraph.Dependency) int {
		if c := cmp.Compare(x.Source, y.Source); c != 0 {
			return c
		}
		return cmp.Compare(x.Target, y.Target)
	}
	da, db := slices.Clone(a.Dependencies), slices.Clone(b.Dependencies)
	slices.SortFunc(da, byPair)
	slices.SortFunc(db, byPair)
	return slices.Equal(da, db)
}

func sameTheme(a, b []byte) bool {
	var ta, tb ThemeConfig
	if json.Unmarshal(a, &ta) != nil || json.Unmarshal(b, &tb) != nil {
		return false
	}
	ja, _ := json.Marshal(ta)
	jb, _ := json.Marshal(tb)
	return string(ja) == string(jb)
}

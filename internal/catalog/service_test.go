package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/missionhq/internal/missiongraph"
	"github.com/abhisek/missionhq/internal/progress"
	"github.com/abhisek/missionhq/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	s, err := store.Open(store.DriverSQLite, "file:catalog_"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	svc, err := NewService(s.CampaignRepo(), 4)
	require.NoError(t, err)
	return svc
}

func mustParse(t *testing.T, doc string) *Definition {
	t.Helper()
	def, err := ParseDefinition(strings.NewReader(doc))
	require.NoError(t, err)
	return def
}

func requireProblem(t *testing.T, err error, substr string) {
	t.Helper()
	var verr *missiongraph.ValidationError
	require.True(t, errors.As(err, &verr), "error = %v, want *ValidationError", err)
	assert.Contains(t, strings.Join(verr.Problems, "\n"), substr)
}

func TestImportAndLookup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.Import(ctx, mustParse(t, welcomeYAML))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 3, res.Missions)

	c, err := svc.Campaign(ctx, "welcome")
	require.NoError(t, err)
	assert.Equal(t, "Welcome aboard", c.Title)
	assert.Equal(t, "nebula", c.Theme.Preset)
	assert.Equal(t, "Top secret", c.Theme.Label(progress.StatusLocked))

	g, err := svc.GraphForMission(ctx, "deploy")
	require.NoError(t, err)
	assert.Equal(t, "welcome", g.CampaignID())

	_, err = svc.GraphForMission(ctx, "ghost")
	var nf *progress.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost", nf.MissionID)

	_, err = svc.Graph(ctx, "nope")
	require.ErrorIs(t, err, ErrCampaignNotFound)

	list, err := svc.Campaigns(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "v1.0.0", list[0].Revision)
}

func TestImportSameRevisionIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, mustParse(t, welcomeYAML))
	require.NoError(t, err)
	res, err := svc.Import(ctx, mustParse(t, welcomeYAML))
	require.NoError(t, err)
	assert.True(t, res.Unchanged)

	changed := strings.Replace(welcomeYAML, "First deploy", "First production deploy", 1)
	_, err = svc.Import(ctx, mustParse(t, changed))
	requireProblem(t, err, "bump the revision")
}

func TestImportNewRevisionRefreshesCache(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, mustParse(t, welcomeYAML))
	require.NoError(t, err)
	before, err := svc.Graph(ctx, "welcome")
	require.NoError(t, err)
	require.Equal(t, 3, before.Len())

	next := strings.Replace(welcomeYAML, "revision: 1.0.0", "revision: 1.1.0", 1) + `  - id: retro
    title: Join a retro
    requires: [deploy]
`
	res, err := svc.Import(ctx, mustParse(t, next))
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0", res.Previous)

	after, err := svc.Graph(ctx, "welcome")
	require.NoError(t, err)
	assert.Equal(t, 4, after.Len())
	assert.Equal(t, []string{"retro"}, after.DependentsOf("deploy"))
}

func TestImportRejects(t *testing.T) {
	ctx := context.Background()

	t.Run("older revision", func(t *testing.T) {
		svc := newTestService(t)
		_, err := svc.Import(ctx, mustParse(t, strings.Replace(welcomeYAML, "1.0.0", "2.0.0", 1)))
		require.NoError(t, err)
		_, err = svc.Import(ctx, mustParse(t, welcomeYAML))
		requireProblem(t, err, "older than published")
	})

	t.Run("removing a published mission", func(t *testing.T) {
		svc := newTestService(t)
		_, err := svc.Import(ctx, mustParse(t, welcomeYAML))
		require.NoError(t, err)
		_, err = svc.Import(ctx, mustParse(t, `
id: welcome
title: Welcome aboard
revision: 1.1.0
missions:
  - id: badge
    title: Pick up your badge
  - id: laptop
    title: Set up your laptop
`))
		requireProblem(t, err, `mission "deploy" is published`)
	})

	t.Run("mission owned by another campaign", func(t *testing.T) {
		svc := newTestService(t)
		_, err := svc.Import(ctx, mustParse(t, welcomeYAML))
		require.NoError(t, err)
		_, err = svc.Import(ctx, mustParse(t, `
id: advanced
title: Advanced
revision: 0.1.0
missions:
  - id: laptop
    title: Borrowed laptop mission
`))
		requireProblem(t, err, `belongs to campaign "welcome"`)
	})

	t.Run("cycle", func(t *testing.T) {
		svc := newTestService(t)
		_, err := svc.Import(ctx, mustParse(t, `
id: loop
title: Loop
revision: 1.0.0
missions:
  - id: a
    title: A
    requires: [b]
  - id: b
    title: B
    requires: [a]
`))
		requireProblem(t, err, "cycle")
		_, err = svc.Graph(ctx, "loop")
		require.ErrorIs(t, err, ErrCampaignNotFound, "nothing is persisted on failure")
	})
}

// racingRepo publishes a rival revision just before the first save it sees,
// as a second importer would between Import's load and save.
type racingRepo struct {
	store.CampaignRepo
	raced bool
}

func (r *racingRepo) SaveCampaign(ctx context.Context, data store.CampaignData, previous string) error {
	if !r.raced {
		r.raced = true
		rival := data
		rival.Campaign.Revision = "v9.0.0"
		if err := r.CampaignRepo.SaveCampaign(ctx, rival, previous); err != nil {
			return err
		}
	}
	return r.CampaignRepo.SaveCampaign(ctx, data, previous)
}

func TestImportLosesConcurrentPublish(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(store.DriverSQLite, "file:catalog_race?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	base, err := NewService(s.CampaignRepo(), 4)
	require.NoError(t, err)
	_, err = base.Import(ctx, mustParse(t, welcomeYAML))
	require.NoError(t, err)

	svc, err := NewService(&racingRepo{CampaignRepo: s.CampaignRepo()}, 4)
	require.NoError(t, err)
	_, err = svc.Import(ctx, mustParse(t, strings.Replace(welcomeYAML, "revision: 1.0.0", "revision: 1.1.0", 1)))
	require.ErrorIs(t, err, store.ErrRevisionConflict)

	list, err := svc.Campaigns(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "v9.0.0", list[0].Revision, "the later save must not overwrite the rival")
}

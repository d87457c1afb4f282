package board

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/missionhq/internal/catalog"
	"github.com/abhisek/missionhq/internal/confirm"
	"github.com/abhisek/missionhq/internal/missiongraph"
	"github.com/abhisek/missionhq/internal/progress"
)

const testSecret = "board-test-secret-0123456789"

type oneGraph struct{ g *missiongraph.Graph }

func (o oneGraph) GraphForMission(_ context.Context, id string) (*missiongraph.Graph, error) {
	if !o.g.Has(id) {
		return nil, &progress.NotFoundError{MissionID: id}
	}
	return o.g, nil
}

type fixture struct {
	campaign *catalog.Campaign
	tracker  *progress.Tracker
	signer   *confirm.Signer
	redeemer *confirm.Service
}

// newFixture builds brief (auto) -> badge (qr) -> laptop (manual).
func newFixture(t *testing.T) fixture {
	t.Helper()
	g, err := missiongraph.Build("onboarding", []missiongraph.Mission{
		{ID: "brief", CampaignID: "onboarding", Title: "Read the briefing", Experience: 100, Currency: 10, Confirmation: missiongraph.ConfirmAuto},
		{ID: "badge", CampaignID: "onboarding", Title: "Pick up your badge", Experience: 50, Currency: 5, Confirmation: missiongraph.ConfirmQR},
		{ID: "laptop", CampaignID: "onboarding", Title: "Set up your laptop", Experience: 200, Confirmation: missiongraph.ConfirmManual},
	}, []missiongraph.Dependency{
		{Source: "brief", Target: "badge"},
		{Source: "badge", Target: "laptop"},
	})
	require.NoError(t, err)

	tr := progress.NewTracker(progress.NewMemoryStore(), oneGraph{g})
	_, err = tr.Initialize(context.Background(), "cadet", g)
	require.NoError(t, err)

	signer, err := confirm.NewSigner(testSecret, time.Hour, nil)
	require.NoError(t, err)

	return fixture{
		campaign: &catalog.Campaign{
			ID:    "onboarding",
			Title: "Onboarding",
			Theme: catalog.ThemeConfig{Preset: "nebula"},
			Graph: g,
		},
		tracker:  tr,
		signer:   signer,
		redeemer: confirm.NewService(signer, oneGraph{g}, tr, nil),
	}
}

func (f fixture) board(t *testing.T) Model {
	t.Helper()
	m := New(context.Background(), "cadet", f.campaign, f.tracker, f.redeemer, nil)
	return settle(t, m, m.Init())
}

// settle runs board commands until the board is idle. Commands from other
// components (cursor blink, quit) are not executed.
func settle(t *testing.T, m tea.Model, cmd tea.Cmd) Model {
	t.Helper()
	for i := 0; cmd != nil && i < 10; i++ {
		msg := cmd()
		switch msg.(type) {
		case loadedMsg, transitionMsg:
		default:
			return m.(Model)
		}
		m, cmd = m.Update(msg)
	}
	return m.(Model)
}

func press(t *testing.T, m Model, key string) Model {
	t.Helper()
	var msg tea.KeyPressMsg
	switch key {
	case "up":
		msg = tea.KeyPressMsg{Code: tea.KeyUp}
	case "down":
		msg = tea.KeyPressMsg{Code: tea.KeyDown}
	case "enter":
		msg = tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		msg = tea.KeyPressMsg{Code: tea.KeyEscape}
	default:
		r := []rune(key)[0]
		msg = tea.KeyPressMsg{Code: r, Text: key}
	}
	next, cmd := m.Update(msg)
	return settle(t, next, cmd)
}

func statuses(m Model) map[string]progress.Status {
	out := make(map[string]progress.Status, len(m.rows))
	for _, r := range m.rows {
		out[r.mission.ID] = r.state.Status
	}
	return out
}

func TestBoardLoadsInGraphOrder(t *testing.T) {
	m := newFixture(t).board(t)

	require.Len(t, m.rows, 3)
	assert.Equal(t, "brief", m.rows[0].mission.ID)
	assert.Equal(t, "badge", m.rows[1].mission.ID)
	assert.Equal(t, "laptop", m.rows[2].mission.ID)
	assert.Equal(t, 0, m.rows[0].depth)
	assert.Equal(t, 2, m.rows[2].depth)
	assert.Equal(t, map[string]progress.Status{
		"brief":  progress.StatusAvailable,
		"badge":  progress.StatusLocked,
		"laptop": progress.StatusLocked,
	}, statuses(m))
	assert.Equal(t, "nebula", m.theme.Name)
}

func TestBoardNavigation(t *testing.T) {
	m := newFixture(t).board(t)

	m = press(t, m, "up")
	assert.Equal(t, 0, m.cursor)
	m = press(t, m, "down")
	m = press(t, m, "down")
	m = press(t, m, "down")
	assert.Equal(t, 2, m.cursor)
	m = press(t, m, "k")
	assert.Equal(t, 1, m.cursor)
}

func TestBoardStartAndFinishAutoMission(t *testing.T) {
	m := newFixture(t).board(t)

	m = press(t, m, "s")
	assert.Equal(t, progress.StatusInProgress, statuses(m)["brief"])
	assert.False(t, m.noticeErr)

	m = press(t, m, "d")
	st := statuses(m)
	assert.Equal(t, progress.StatusCompleted, st["brief"])
	assert.Equal(t, progress.StatusAvailable, st["badge"])
	assert.Equal(t, progress.StatusLocked, st["laptop"])
	assert.Contains(t, m.notice, "+100 XP")
	assert.Contains(t, m.notice, "1 unlocked")
	assert.Equal(t, 1, m.completed())
}

func TestBoardRejectedTransitionShowsReason(t *testing.T) {
	m := newFixture(t).board(t)

	m = press(t, m, "d")
	assert.True(t, m.noticeErr)
	assert.Equal(t, "mission must be started first", m.notice)
	assert.Equal(t, progress.StatusAvailable, statuses(m)["brief"])

	m = press(t, m, "down")
	m = press(t, m, "s")
	assert.True(t, m.noticeErr)
	assert.Contains(t, m.notice, "locked")
}

func TestBoardRedeemQRCode(t *testing.T) {
	f := newFixture(t)
	m := f.board(t)
	m = press(t, m, "s")
	m = press(t, m, "d")
	m = press(t, m, "down")
	m = press(t, m, "s")

	m = press(t, m, "d")
	assert.Equal(t, progress.StatusPendingReview, statuses(m)["badge"])

	// Done again only points at the QR code.
	m = press(t, m, "d")
	assert.Contains(t, m.notice, "press r")

	m = press(t, m, "r")
	require.True(t, m.redeeming)

	code, err := f.signer.Issue("badge")
	require.NoError(t, err)
	m.input.Model.SetValue(code.Token)
	m = press(t, m, "enter")

	assert.False(t, m.redeeming)
	assert.False(t, m.noticeErr, m.notice)
	st := statuses(m)
	assert.Equal(t, progress.StatusCompleted, st["badge"])
	assert.Equal(t, progress.StatusAvailable, st["laptop"])
}

func TestBoardRedeemRejectsForeignCode(t *testing.T) {
	f := newFixture(t)
	m := f.board(t)
	m = press(t, m, "s")
	m = press(t, m, "d")
	m = press(t, m, "down")

	m = press(t, m, "r")
	require.True(t, m.redeeming)
	code, err := f.signer.Issue("laptop")
	require.NoError(t, err)
	m.input.Model.SetValue(code.Token)
	m = press(t, m, "enter")

	assert.True(t, m.noticeErr)
	assert.Equal(t, progress.StatusAvailable, statuses(m)["badge"])
}

func TestBoardRedeemOnlyForQRMissions(t *testing.T) {
	m := newFixture(t).board(t)

	m = press(t, m, "r")
	assert.False(t, m.redeeming)
	assert.True(t, m.noticeErr)
	assert.Contains(t, m.notice, "not confirmed by QR code")
}

func TestBoardRedeemCancel(t *testing.T) {
	f := newFixture(t)
	m := f.board(t)
	m = press(t, m, "down")
	m = press(t, m, "r")
	require.True(t, m.redeeming)

	m = press(t, m, "esc")
	assert.False(t, m.redeeming)
	// q types into the input while redeeming, but quits from the list.
	_, cmd := m.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestBoardWithoutRedeemer(t *testing.T) {
	f := newFixture(t)
	m := New(context.Background(), "cadet", f.campaign, f.tracker, nil, nil)
	m = settle(t, m, m.Init())
	m = press(t, m, "down")
	m = press(t, m, "r")
	assert.False(t, m.redeeming)
	assert.Equal(t, "QR redemption is not configured", m.notice)
}

func TestBoardUninitializedCadet(t *testing.T) {
	f := newFixture(t)
	m := New(context.Background(), "stranger", f.campaign, f.tracker, f.redeemer, nil)
	m = settle(t, m, m.Init())
	assert.Empty(t, m.rows)

	m = press(t, m, "s")
	assert.Empty(t, m.notice)
}

func TestBoardRenderContent(t *testing.T) {
	m := newFixture(t).board(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)

	out := m.renderContent(24)
	assert.Contains(t, out, "Read the briefing")
	assert.Contains(t, out, "Pick up your badge")
	assert.Contains(t, out, "Ready for launch")
	assert.Contains(t, out, "Classified")
	assert.True(t, strings.Contains(out, "🔒"))
}

func TestBoardReloadKeepsEarlierModelIntact(t *testing.T) {
	before := newFixture(t).board(t)

	after := press(t, before, "s")
	require.Equal(t, progress.StatusInProgress, statuses(after)["brief"])

	assert.Equal(t, progress.StatusAvailable, statuses(before)["brief"],
		"a reload must not rewrite rows held by an earlier model")
}

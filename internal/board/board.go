// Package board is the terminal mission board: a cadet's missions in graph
// order, rendered with the campaign theme, with keys to start, finish and
// redeem missions.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/missionhq/internal/catalog"
	"github.com/abhisek/missionhq/internal/confirm"
	"github.com/abhisek/missionhq/internal/logger"
	"github.com/abhisek/missionhq/internal/missiongraph"
	"github.com/abhisek/missionhq/internal/progress"
	"github.com/abhisek/missionhq/internal/ui/components"
	"github.com/abhisek/missionhq/internal/ui/layout"
	"github.com/abhisek/missionhq/internal/ui/theme"
)

// Tracker is the part of the progress tracker the board drives.
type Tracker interface {
	Progress(ctx context.Context, userID string, g *missiongraph.Graph) ([]progress.MissionState, error)
	RequestTransition(ctx context.Context, userID, missionID string, target progress.Status) (progress.Transition, error)
}

// Redeemer completes QR-confirmed missions.
type Redeemer interface {
	Redeem(ctx context.Context, userID, missionID, token string) (progress.Transition, error)
}

type row struct {
	mission missiongraph.Mission
	state   progress.MissionState
	depth   int
}

type loadedMsg struct {
	states []progress.MissionState
	err    error
}

type transitionMsg struct {
	tr  progress.Transition
	err error
}

// Model is the bubbletea model for the board.
type Model struct {
	ctx      context.Context
	userID   string
	campaign *catalog.Campaign
	tracker  Tracker
	redeemer Redeemer
	theme    theme.Theme
	log      *logger.Logger

	rows   []row
	cursor int

	redeeming bool
	input     components.TextInput

	notice    string
	noticeErr bool

	width, height int
}

// New creates a board for the user's progress in campaign. redeemer may be
// nil, in which case QR redemption is unavailable.
func New(ctx context.Context, userID string, campaign *catalog.Campaign, tracker Tracker, redeemer Redeemer, log *logger.Logger) Model {
	return Model{
		ctx:      ctx,
		userID:   userID,
		campaign: campaign,
		tracker:  tracker,
		redeemer: redeemer,
		theme:    theme.Resolve(campaign.Theme),
		log:      log,
	}
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		states, err := m.tracker.Progress(m.ctx, m.userID, m.campaign.Graph)
		return loadedMsg{states: states, err: err}
	}
}

func (m Model) transition(missionID string, target progress.Status) tea.Cmd {
	return func() tea.Msg {
		tr, err := m.tracker.RequestTransition(m.ctx, m.userID, missionID, target)
		return transitionMsg{tr: tr, err: err}
	}
}

func (m Model) redeem(missionID, token string) tea.Cmd {
	return func() tea.Msg {
		tr, err := m.redeemer.Redeem(m.ctx, m.userID, missionID, token)
		return transitionMsg{tr: tr, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setRows(msg.states)
		return m, nil

	case transitionMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.notice, m.noticeErr = m.describe(msg.tr), false
		return m, m.load()

	case tea.KeyMsg:
		if m.redeeming {
			return m.updateRedeem(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "s":
		if r, ok := m.selected(); ok {
			return m, m.transition(r.mission.ID, progress.StatusInProgress)
		}
	case "d":
		if r, ok := m.selected(); ok {
			return m.done(r)
		}
	case "r":
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		switch {
		case m.redeemer == nil:
			m.notice, m.noticeErr = "QR redemption is not configured", true
		case r.mission.Confirmation != missiongraph.ConfirmQR:
			m.notice, m.noticeErr = fmt.Sprintf("%q is not confirmed by QR code", r.mission.Title), true
		default:
			m.redeeming = true
			m.input = components.NewTextInput(m.theme, "paste the QR code", 0)
			m.notice = ""
			return m, m.input.Init()
		}
	}
	return m, nil
}

// done finishes the selected mission: auto missions complete, the others
// are submitted for review.
func (m Model) done(r row) (tea.Model, tea.Cmd) {
	c := r.mission.Confirmation
	if r.state.Status == progress.StatusPendingReview {
		if c == missiongraph.ConfirmQR {
			m.notice, m.noticeErr = "press r to redeem the mission's QR code", false
		} else {
			m.notice, m.noticeErr = "waiting for an architect to review the submission", false
		}
		return m, nil
	}
	target := progress.StatusCompleted
	if c.RequiresReview() {
		target = progress.StatusPendingReview
	}
	return m, m.transition(r.mission.ID, target)
}

func (m Model) updateRedeem(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.redeeming = false
		return m, nil
	case "enter":
		token := m.input.Value()
		r, ok := m.selected()
		if token == "" || !ok {
			return m, nil
		}
		m.redeeming = false
		return m, m.redeem(r.mission.ID, token)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) setRows(states []progress.MissionState) {
	g := m.campaign.Graph
	// Earlier Model values share the old slice.
	rows := make([]row, 0, len(states))
	for _, st := range states {
		mission, ok := g.Mission(st.MissionID)
		if !ok {
			continue
		}
		rows = append(rows, row{mission: mission, state: st, depth: g.Depth(st.MissionID)})
	}
	m.rows = rows
	if m.cursor >= len(m.rows) {
		m.cursor = max(0, len(m.rows)-1)
	}
}

func (m *Model) setError(err error) {
	m.noticeErr = true
	var invalid *progress.InvalidTransitionError
	var notFound *progress.NotFoundError
	switch {
	case errors.As(err, &invalid):
		m.notice = invalid.Reason
	case errors.As(err, &notFound):
		m.notice = "not enrolled in this campaign yet, run `missionhq cadet init` first"
	case errors.Is(err, confirm.ErrInvalidCode),
		errors.Is(err, confirm.ErrExpiredCode),
		errors.Is(err, confirm.ErrMissionMismatch):
		m.notice = err.Error()
	default:
		m.notice = err.Error()
		m.log.Warn("board action failed", "user_id", m.userID, "error", err)
	}
}

func (m Model) describe(tr progress.Transition) string {
	title := tr.MissionID
	if mission, ok := m.campaign.Graph.Mission(tr.MissionID); ok {
		title = mission.Title
	}
	if !tr.Changed {
		return fmt.Sprintf("%s is already %s", title, m.theme.Label(tr.From))
	}
	msg := fmt.Sprintf("%s: %s", title, m.theme.Label(tr.To))
	if c := tr.Completion; c != nil {
		if c.Credited {
			msg += fmt.Sprintf("  +%d XP  +%d credits", c.Experience, c.Currency)
		}
		if len(c.Unlocked) > 0 {
			msg += fmt.Sprintf("  %d unlocked", len(c.Unlocked))
		}
	}
	return msg
}

func (m Model) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m Model) completed() int {
	n := 0
	for _, r := range m.rows {
		if r.state.Status == progress.StatusCompleted {
			n++
		}
	}
	return n
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.theme, m.width, m.height))
		return v
	}

	header := layout.RenderHeader(m.theme, m.campaign.Title,
		fmt.Sprintf("%d/%d", m.completed(), len(m.rows)), m.width)

	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "s", Description: "Start"},
		{Key: "d", Description: "Done"},
		{Key: "r", Description: "Redeem QR"},
		{Key: "q", Description: "Quit"},
	}
	if m.redeeming {
		hints = []layout.KeyHint{
			{Key: "Enter", Description: "Redeem"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	footer := layout.RenderFooter(m.theme, hints, m.width)

	content := m.renderContent(layout.ContentHeight(m.height))
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

func (m Model) renderContent(height int) string {
	var b strings.Builder

	ratio := 0.0
	if len(m.rows) > 0 {
		ratio = float64(m.completed()) / float64(len(m.rows))
	}
	b.WriteString(components.NewProgressBar(m.theme, "Campaign", ratio, true, min(m.width-4, 60)).View())
	b.WriteString("\n\n")

	if len(m.rows) == 0 && !m.noticeErr {
		b.WriteString(m.theme.Hint().Render("  loading missions..."))
	}

	// Reserve lines for the progress bar, the notice and the input.
	visible := max(1, height-6)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	for i := start; i < len(m.rows) && i < start+visible; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	if m.redeeming {
		b.WriteString("\n  " + m.input.View() + "\n")
	}
	if m.notice != "" {
		style := m.theme.Hint()
		if m.noticeErr {
			style = m.theme.Error()
		}
		b.WriteString("\n  " + style.Render(m.notice))
	}
	return b.String()
}

func (m Model) renderRow(i int) string {
	r := m.rows[i]
	pointer := "  "
	title := m.theme.Body().Render(r.mission.Title)
	if i == m.cursor {
		pointer = m.theme.Selected().Render("▸ ")
		title = m.theme.Selected().Render(r.mission.Title)
	}
	indent := strings.Repeat("  ", r.depth)
	label := m.theme.Status(r.state.Status).Render(m.theme.Label(r.state.Status))
	reward := m.theme.Hint().Italic(false).Render(fmt.Sprintf("%d XP", r.mission.Experience))
	return fmt.Sprintf("%s%s%s %s  %s  %s", pointer, indent, r.state.Status.Icon(), title, label, reward)
}

package theme

import (
	"image/color"
	"regexp"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/missionhq/internal/catalog"
	"github.com/abhisek/missionhq/internal/progress"
)

// DefaultPreset is used when a campaign names no preset or an unknown one.
const DefaultPreset = "starship"

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Palette is the set of colors a campaign renders with.
type Palette struct {
	Primary   color.Color
	Secondary color.Color
	Accent    color.Color
	Success   color.Color
	Warning   color.Color
	Error     color.Color
	Text      color.Color
	TextDim   color.Color
	BgCard    color.Color
	Border    color.Color
}

var presets = map[string]Palette{
	"starship": {
		Primary:   lipgloss.Color("#8B5CF6"), // Vivid Purple
		Secondary: lipgloss.Color("#14B8A6"), // Teal
		Accent:    lipgloss.Color("#F97316"), // Orange
		Success:   lipgloss.Color("#22C55E"),
		Warning:   lipgloss.Color("#EAB308"),
		Error:     lipgloss.Color("#F43F5E"),
		Text:      lipgloss.Color("#F8FAFC"),
		TextDim:   lipgloss.Color("#94A3B8"),
		BgCard:    lipgloss.Color("#1E293B"),
		Border:    lipgloss.Color("#334155"),
	},
	"nebula": {
		Primary:   lipgloss.Color("#EC4899"), // Pink
		Secondary: lipgloss.Color("#6366F1"), // Indigo
		Accent:    lipgloss.Color("#A855F7"),
		Success:   lipgloss.Color("#34D399"),
		Warning:   lipgloss.Color("#FBBF24"),
		Error:     lipgloss.Color("#FB7185"),
		Text:      lipgloss.Color("#FDF4FF"),
		TextDim:   lipgloss.Color("#A78BFA"),
		BgCard:    lipgloss.Color("#2E1065"),
		Border:    lipgloss.Color("#4C1D95"),
	},
	"mission-control": {
		Primary:   lipgloss.Color("#38BDF8"), // Sky
		Secondary: lipgloss.Color("#22D3EE"),
		Accent:    lipgloss.Color("#FACC15"),
		Success:   lipgloss.Color("#4ADE80"),
		Warning:   lipgloss.Color("#FB923C"),
		Error:     lipgloss.Color("#EF4444"),
		Text:      lipgloss.Color("#E2E8F0"),
		TextDim:   lipgloss.Color("#64748B"),
		BgCard:    lipgloss.Color("#0F172A"),
		Border:    lipgloss.Color("#1E3A5F"),
	},
}

// Presets returns the known preset names, sorted.
func Presets() []string {
	return []string{"mission-control", "nebula", "starship"}
}

// Theme is a resolved campaign theme: colors plus the status labels.
type Theme struct {
	Name    string
	Palette Palette
	config  catalog.ThemeConfig
}

// Resolve turns a campaign's theme configuration into a Theme. Unknown
// presets fall back to DefaultPreset; a valid accent overrides the preset's.
func Resolve(cfg catalog.ThemeConfig) Theme {
	name := strings.ToLower(strings.TrimSpace(cfg.Preset))
	p, ok := presets[name]
	if !ok {
		name = DefaultPreset
		p = presets[DefaultPreset]
	}
	if hexColor.MatchString(cfg.Accent) {
		p.Accent = lipgloss.Color(cfg.Accent)
	}
	return Theme{Name: name, Palette: p, config: cfg}
}

// Label returns the motivation label for a status.
func (t Theme) Label(s progress.Status) string {
	return t.config.Label(s)
}

// StatusColor returns the color a status is drawn in.
func (t Theme) StatusColor(s progress.Status) color.Color {
	switch s {
	case progress.StatusAvailable:
		return t.Palette.Secondary
	case progress.StatusInProgress:
		return t.Palette.Accent
	case progress.StatusPendingReview:
		return t.Palette.Warning
	case progress.StatusCompleted:
		return t.Palette.Success
	default:
		return t.Palette.TextDim
	}
}

func (t Theme) Title() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.Palette.Primary)
}

func (t Theme) Body() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Palette.Text)
}

func (t Theme) Hint() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Palette.TextDim).Italic(true)
}

func (t Theme) Selected() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Palette.Primary).Bold(true)
}

func (t Theme) Status(s progress.Status) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.StatusColor(s))
}

func (t Theme) Error() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Palette.Error).Bold(true)
}

func (t Theme) Success() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Palette.Success).Bold(true)
}

// Card is the bordered box used for headers, footers and panels.
func (t Theme) Card() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(t.Palette.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Palette.Border)
}

func (t Theme) ProgressFilled() lipgloss.Style {
	return lipgloss.NewStyle().Background(t.Palette.Secondary)
}

func (t Theme) ProgressEmpty() lipgloss.Style {
	return lipgloss.NewStyle().Background(t.Palette.Border)
}

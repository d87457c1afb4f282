package theme

import (
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/stretchr/testify/assert"

	"github.com/abhisek/missionhq/internal/catalog"
	"github.com/abhisek/missionhq/internal/progress"
)

func TestResolvePresets(t *testing.T) {
	tests := []struct {
		preset string
		want   string
	}{
		{"", DefaultPreset},
		{"nebula", "nebula"},
		{" Nebula ", "nebula"},
		{"mission-control", "mission-control"},
		{"unknown", DefaultPreset},
	}
	for _, tt := range tests {
		got := Resolve(catalog.ThemeConfig{Preset: tt.preset})
		assert.Equal(t, tt.want, got.Name, "preset %q", tt.preset)
		assert.Equal(t, presets[tt.want], got.Palette)
	}
}

func TestResolveAccentOverride(t *testing.T) {
	th := Resolve(catalog.ThemeConfig{Preset: "nebula", Accent: "#123456"})
	assert.Equal(t, lipgloss.Color("#123456"), th.Palette.Accent)
	assert.Equal(t, presets["nebula"].Primary, th.Palette.Primary)

	// Invalid accents leave the preset untouched.
	th = Resolve(catalog.ThemeConfig{Preset: "nebula", Accent: "pink"})
	assert.Equal(t, presets["nebula"].Accent, th.Palette.Accent)
}

func TestResolveDoesNotMutatePresets(t *testing.T) {
	before := presets[DefaultPreset].Accent
	Resolve(catalog.ThemeConfig{Accent: "#000000"})
	assert.Equal(t, before, presets[DefaultPreset].Accent)
}

func TestLabels(t *testing.T) {
	th := Resolve(catalog.ThemeConfig{Labels: map[string]string{"COMPLETED": "Nailed it"}})
	assert.Equal(t, "Nailed it", th.Label(progress.StatusCompleted))
	assert.Equal(t, "Classified", th.Label(progress.StatusLocked))
}

func TestStatusColors(t *testing.T) {
	th := Resolve(catalog.ThemeConfig{})
	assert.Equal(t, th.Palette.Success, th.StatusColor(progress.StatusCompleted))
	assert.Equal(t, th.Palette.Accent, th.StatusColor(progress.StatusInProgress))
	assert.Equal(t, th.Palette.TextDim, th.StatusColor(progress.StatusLocked))
}

func TestPresetsListed(t *testing.T) {
	for _, name := range Presets() {
		_, ok := presets[name]
		assert.True(t, ok, name)
	}
	assert.Len(t, Presets(), len(presets))
}

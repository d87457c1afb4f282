package catalog

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/abhisek/missionhq/internal/progress"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ThemeConfig is a campaign's presentation configuration. It is passed
// explicitly to presentation code.
type ThemeConfig struct {
	Preset string            `yaml:"preset,omitempty" json:"preset,omitempty"`
	Accent string            `yaml:"accent,omitempty" json:"accent,omitempty"`
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"` // keyed by status name
}

var defaultLabels = map[progress.Status]string{
	progress.StatusLocked:        "Classified",
	progress.StatusAvailable:     "Ready for launch",
	progress.StatusInProgress:    "In flight",
	progress.StatusPendingReview: "Awaiting clearance",
	progress.StatusCompleted:     "Mission accomplished",
}

// Label returns the motivation label for a status.
func (c ThemeConfig) Label(s progress.Status) string {
	if l := c.Labels[string(s)]; l != "" {
		return l
	}
	if l, ok := defaultLabels[s]; ok {
		return l
	}
	return string(s)
}

// AllLabels returns the label for every status.
func (c ThemeConfig) AllLabels() map[progress.Status]string {
	out := make(map[progress.Status]string, len(defaultLabels))
	for _, s := range progress.AllStatuses() {
		out[s] = c.Label(s)
	}
	return out
}

// normalize rewrites label keys to canonical status names. Unknown keys are
// kept so validation can report them.
func (c *ThemeConfig) normalize() {
	if len(c.Labels) == 0 {
		return
	}
	labels := make(map[string]string, len(c.Labels))
	for k, v := range c.Labels {
		if st, err := progress.ParseStatus(k); err == nil {
			k = string(st)
		}
		labels[k] = strings.TrimSpace(v)
	}
	c.Labels = labels
}

func (c ThemeConfig) problems() []string {
	var problems []string
	if c.Accent != "" && !hexColor.MatchString(c.Accent) {
		problems = append(problems, fmt.Sprintf("theme accent %q is not a #RRGGBB color", c.Accent))
	}
	keys := make([]string, 0, len(c.Labels))
	for k := range c.Labels {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if _, err := progress.ParseStatus(k); err != nil {
			problems = append(problems, fmt.Sprintf("theme label for unknown status %q", strings.TrimSpace(k)))
		}
	}
	return problems
}

package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/missionhq/internal/missiongraph"
)

// Definition is a campaign as architects write it. JSON is accepted too,
// since it is valid YAML.
type Definition struct {
	ID       string              `yaml:"id" json:"id"`
	Title    string              `yaml:"title" json:"title"`
	Revision string              `yaml:"revision" json:"revision"`
	Theme    ThemeConfig         `yaml:"theme" json:"theme"`
	Missions []MissionDefinition `yaml:"missions" json:"missions"`
}

// MissionDefinition is one mission entry of a Definition.
type MissionDefinition struct {
	ID           string   `yaml:"id" json:"id"`
	Title        string   `yaml:"title" json:"title"`
	Description  string   `yaml:"description" json:"description"`
	Experience   int      `yaml:"experience" json:"experience"`
	Currency     int      `yaml:"currency" json:"currency"`
	Confirmation string   `yaml:"confirmation" json:"confirmation"`
	Requires     []string `yaml:"requires" json:"requires"`
}

// ParseDefinition decodes a YAML or JSON campaign definition. Unknown keys
// are rejected so typos do not silently drop data.
func ParseDefinition(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("parse definition: empty document")
		}
		return nil, fmt.Errorf("parse definition: %w", err)
	}
	def.normalize()
	return &def, nil
}

// LoadDefinition reads a definition file.
func LoadDefinition(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open definition: %w", err)
	}
	defer f.Close()
	return ParseDefinition(f)
}

func (d *Definition) normalize() {
	d.ID = strings.TrimSpace(d.ID)
	d.Revision = canonicalRevision(d.Revision)
	d.Theme.normalize()
	for i := range d.Missions {
		m := &d.Missions[i]
		m.ID = strings.TrimSpace(m.ID)
		m.Confirmation = strings.ToLower(strings.TrimSpace(m.Confirmation))
		if m.Confirmation == "" {
			m.Confirmation = string(missiongraph.ConfirmAuto)
		}
	}
}

// canonicalRevision accepts "1.2.0" as shorthand for "v1.2.0".
func canonicalRevision(rev string) string {
	rev = strings.TrimSpace(rev)
	if rev != "" && !strings.HasPrefix(rev, "v") {
		rev = "v" + rev
	}
	return rev
}

// Graph builds the mission graph. Every structural problem of the
// definition is reported in one *missiongraph.ValidationError and no graph
// is returned.
func (d *Definition) Graph() (*missiongraph.Graph, error) {
	var problems []string
	if d.ID == "" {
		problems = append(problems, "campaign id is required")
	}
	if strings.TrimSpace(d.Title) == "" {
		problems = append(problems, "campaign title is required")
	}
	if !semver.IsValid(d.Revision) {
		problems = append(problems, fmt.Sprintf("revision %q is not a semantic version", d.Revision))
	}
	problems = append(problems, d.Theme.problems()...)
	for _, m := range d.Missions {
		if strings.TrimSpace(m.Title) == "" {
			problems = append(problems, fmt.Sprintf("mission %q: title is required", m.ID))
		}
	}

	missions, deps := d.parts()
	g, err := missiongraph.Build(d.ID, missions, deps)
	if err != nil {
		var verr *missiongraph.ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		problems = append(problems, verr.Problems...)
	}
	if len(problems) > 0 {
		return nil, missiongraph.Invalid(d.ID, problems...)
	}
	return g, nil
}

func (d *Definition) parts() ([]missiongraph.Mission, []missiongraph.Dependency) {
	missions := make([]missiongraph.Mission, len(d.Missions))
	var deps []missiongraph.Dependency
	for i, m := range d.Missions {
		missions[i] = missiongraph.Mission{
			ID:           m.ID,
			CampaignID:   d.ID,
			Title:        m.Title,
			Description:  m.Description,
			Experience:   m.Experience,
			Currency:     m.Currency,
			Confirmation: missiongraph.Confirmation(m.Confirmation),
		}
		for _, req := range m.Requires {
			deps = append(deps, missiongraph.Dependency{Source: strings.TrimSpace(req), Target: m.ID})
		}
	}
	return missions, deps
}

package missiongraph

import (
	"fmt"
	"slices"
	"strings"
)

// Graph is the validated dependency structure of one campaign. Missions live
// in an arena slice; adjacency is kept as id-keyed lists in both directions.
// A Graph is immutable once built and safe for concurrent readers.
type Graph struct {
	campaignID string
	missions   []Mission      // definition order
	index      map[string]int // mission ID -> position in missions

	prerequisites map[string][]string
	dependents    map[string][]string

	topoOrder []int
	depth     map[string]int
}

// Build validates missions and dependencies and constructs the graph.
// Every structural problem is collected into a single *ValidationError.
func Build(campaignID string, missions []Mission, deps []Dependency) (*Graph, error) {
	var problems []string

	g := &Graph{
		campaignID:    campaignID,
		missions:      make([]Mission, 0, len(missions)),
		index:         make(map[string]int, len(missions)),
		prerequisites: make(map[string][]string),
		dependents:    make(map[string][]string),
		depth:         make(map[string]int, len(missions)),
	}

	for _, m := range missions {
		if m.ID == "" {
			problems = append(problems, "mission with empty ID")
			continue
		}
		if m.CampaignID != campaignID {
			problems = append(problems, fmt.Sprintf("mission %q belongs to campaign %q", m.ID, m.CampaignID))
			continue
		}
		if _, dup := g.index[m.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate mission ID: %q", m.ID))
			continue
		}
		if !m.Confirmation.Valid() {
			problems = append(problems, fmt.Sprintf("mission %q has unknown confirmation %q", m.ID, m.Confirmation))
		}
		if m.Experience < 0 || m.Currency < 0 {
			problems = append(problems, fmt.Sprintf("mission %q has a negative reward", m.ID))
		}
		g.index[m.ID] = len(g.missions)
		g.missions = append(g.missions, m)
	}

	seen := make(map[Dependency]bool, len(deps))
	for _, d := range deps {
		bad := false
		for _, id := range []string{d.Source, d.Target} {
			if _, ok := g.index[id]; !ok {
				problems = append(problems, fmt.Sprintf("dependency %q -> %q references mission %q outside the campaign", d.Source, d.Target, id))
				bad = true
				break
			}
		}
		switch {
		case bad:
			continue
		case d.Source == d.Target:
			problems = append(problems, fmt.Sprintf("mission %q depends on itself", d.Source))
			continue
		case seen[d]:
			problems = append(problems, fmt.Sprintf("duplicate dependency %q -> %q", d.Source, d.Target))
			continue
		}
		seen[d] = true
		g.prerequisites[d.Target] = append(g.prerequisites[d.Target], d.Source)
		g.dependents[d.Source] = append(g.dependents[d.Source], d.Target)
	}

	// Keep adjacency in definition order so every query is deterministic.
	byIndex := func(a, b string) int { return g.index[a] - g.index[b] }
	for _, ids := range g.prerequisites {
		slices.SortFunc(ids, byIndex)
	}
	for _, ids := range g.dependents {
		slices.SortFunc(ids, byIndex)
	}

	if cycle := g.sortTopologically(); len(cycle) > 0 {
		problems = append(problems, fmt.Sprintf("cycle detected involving missions: %s", strings.Join(cycle, ", ")))
	}

	if len(problems) > 0 {
		return nil, &ValidationError{CampaignID: campaignID, Problems: problems}
	}
	return g, nil
}

// sortTopologically fills topoOrder and depth using Kahn's algorithm and
// returns the IDs left unsorted, which are exactly the missions on or behind
// a cycle.
func (g *Graph) sortTopologically() []string {
	inDegree := make([]int, len(g.missions))
	var queue []int
	for i, m := range g.missions {
		inDegree[i] = len(g.prerequisites[m.ID])
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, len(g.missions))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)

		id := g.missions[i].ID
		for _, depID := range g.dependents[id] {
			j := g.index[depID]
			if d := g.depth[id] + 1; d > g.depth[depID] {
				g.depth[depID] = d
			}
			inDegree[j]--
			if inDegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	g.topoOrder = order

	if len(order) == len(g.missions) {
		return nil
	}
	var cycle []string
	for i, m := range g.missions {
		if inDegree[i] > 0 {
			cycle = append(cycle, m.ID)
		}
	}
	return cycle
}

// CampaignID returns the campaign this graph belongs to.
func (g *Graph) CampaignID() string {
	return g.campaignID
}

// Len returns the number of missions.
func (g *Graph) Len() int {
	return len(g.missions)
}

// Has reports whether the mission belongs to this graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Mission returns a mission by ID.
func (g *Graph) Mission(id string) (Mission, bool) {
	i, ok := g.index[id]
	if !ok {
		return Mission{}, false
	}
	return g.missions[i], true
}

// Missions returns all missions in topological order. Ties keep the order in
// which the campaign defined them.
func (g *Graph) Missions() []Mission {
	out := make([]Mission, len(g.topoOrder))
	for i, idx := range g.topoOrder {
		out[i] = g.missions[idx]
	}
	return out
}

// Dependencies returns every edge, grouped by target in topological order.
func (g *Graph) Dependencies() []Dependency {
	var out []Dependency
	for _, idx := range g.topoOrder {
		target := g.missions[idx].ID
		for _, src := range g.prerequisites[target] {
			out = append(out, Dependency{Source: src, Target: target})
		}
	}
	return out
}

// PrerequisitesOf returns the missions that must be completed before id can
// become available.
func (g *Graph) PrerequisitesOf(id string) []string {
	return slices.Clone(g.prerequisites[id])
}

// DependentsOf returns the missions to re-evaluate when id completes.
func (g *Graph) DependentsOf(id string) []string {
	return slices.Clone(g.dependents[id])
}

// RootMissions returns the missions without prerequisites.
func (g *Graph) RootMissions() []Mission {
	var roots []Mission
	for _, idx := range g.topoOrder {
		m := g.missions[idx]
		if len(g.prerequisites[m.ID]) == 0 {
			roots = append(roots, m)
		}
	}
	return roots
}

// Depth returns the length of the longest prerequisite chain leading to id.
// Roots have depth 0.
func (g *Graph) Depth(id string) int {
	return g.depth[id]
}

// IsUnlocked reports whether every prerequisite of id is in the completed set.
func (g *Graph) IsUnlocked(id string, completed map[string]bool) bool {
	if !g.Has(id) {
		return false
	}
	for _, p := range g.prerequisites[id] {
		if !completed[p] {
			return false
		}
	}
	return true
}

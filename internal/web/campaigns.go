package web

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/missionhq/internal/catalog"
	"github.com/abhisek/missionhq/internal/missiongraph"
)

// maxDefinitionBytes caps uploaded campaign definitions.
const maxDefinitionBytes = 1 << 20

// CampaignHandler publishes and describes campaigns.
type CampaignHandler struct {
	catalog *catalog.Service
}

// NewCampaignHandler creates a CampaignHandler over the catalog.
func NewCampaignHandler(c *catalog.Service) *CampaignHandler {
	return &CampaignHandler{catalog: c}
}

type missionView struct {
	missiongraph.Mission
	Depth         int      `json:"depth"`
	Prerequisites []string `json:"prerequisites"`
	Dependents    []string `json:"dependents"`
}

type campaignView struct {
	ID           string                    `json:"id"`
	Title        string                    `json:"title"`
	Revision     string                    `json:"revision"`
	Theme        catalog.ThemeConfig       `json:"theme"`
	Missions     []missionView             `json:"missions"` // topological order
	Dependencies []missiongraph.Dependency `json:"dependencies"`
	Roots        []string                  `json:"roots"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// GET /api/campaigns
func (h *CampaignHandler) List(c *gin.Context) {
	list, err := h.catalog.Campaigns(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": list})
}

// POST /api/campaigns
// body: campaign definition, YAML or JSON
func (h *CampaignHandler) Import(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDefinitionBytes+1))
	if err != nil {
		respondError(c, invalidInput(fmt.Errorf("read body: %w", err)))
		return
	}
	if len(body) > maxDefinitionBytes {
		respondError(c, invalidInput(fmt.Errorf("definition exceeds %d bytes", maxDefinitionBytes)))
		return
	}
	def, err := catalog.ParseDefinition(bytes.NewReader(body))
	if err != nil {
		respondError(c, invalidInput(err))
		return
	}
	res, err := h.catalog.Import(c.Request.Context(), def)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

// GET /api/campaigns/:id
func (h *CampaignHandler) Get(c *gin.Context) {
	camp, err := h.catalog.Campaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	g := camp.Graph
	view := campaignView{
		ID:           camp.ID,
		Title:        camp.Title,
		Revision:     camp.Revision,
		Theme:        camp.Theme,
		Dependencies: g.Dependencies(),
		UpdatedAt:    camp.UpdatedAt,
	}
	for _, m := range g.Missions() {
		view.Missions = append(view.Missions, missionView{
			Mission:       m,
			Depth:         g.Depth(m.ID),
			Prerequisites: g.PrerequisitesOf(m.ID),
			Dependents:    g.DependentsOf(m.ID),
		})
	}
	for _, m := range g.RootMissions() {
		view.Roots = append(view.Roots, m.ID)
	}
	c.JSON(http.StatusOK, view)
}

package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/missionhq/internal/catalog"
	"github.com/abhisek/missionhq/internal/progress"
	"github.com/abhisek/missionhq/internal/store"
	"github.com/abhisek/missionhq/internal/wallet"
)

// CadetHandler serves a cadet's progress, standing and event feed.
type CadetHandler struct {
	catalog *catalog.Service
	tracker *progress.Tracker
	wallet  *wallet.Service
	events  store.EventRepo
}

// NewCadetHandler creates a CadetHandler. events backs the event feed.
func NewCadetHandler(c *catalog.Service, t *progress.Tracker, w *wallet.Service, events store.EventRepo) *CadetHandler {
	return &CadetHandler{catalog: c, tracker: t, wallet: w, events: events}
}

type stateView struct {
	progress.MissionState
	Title string `json:"title"`
	Icon  string `json:"icon"`
	Label string `json:"label"`
}

// POST /api/campaigns/:id/cadets/:user
func (h *CadetHandler) Initialize(c *gin.Context) {
	g, err := h.catalog.Graph(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.tracker.Initialize(c.Request.Context(), c.Param("user"), g)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/campaigns/:id/cadets/:user/progress
func (h *CadetHandler) Progress(c *gin.Context) {
	camp, err := h.catalog.Campaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	states, err := h.tracker.Progress(c.Request.Context(), c.Param("user"), camp.Graph)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]stateView, len(states))
	counts := make(map[progress.Status]int)
	for i, st := range states {
		m, _ := camp.Graph.Mission(st.MissionID)
		views[i] = stateView{
			MissionState: st,
			Title:        m.Title,
			Icon:         st.Status.Icon(),
			Label:        camp.Theme.Label(st.Status),
		}
		counts[st.Status]++
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":     c.Param("user"),
		"campaign_id": camp.ID,
		"missions":    views,
		"counts":      counts,
	})
}

// POST /api/cadets/:user/missions/:mission/transitions
// body: { "status": "IN_PROGRESS" }
func (h *CadetHandler) Transition(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidInput(err))
		return
	}
	target, err := progress.ParseStatus(req.Status)
	if err != nil {
		respondError(c, invalidInput(err))
		return
	}
	res, err := h.tracker.RequestTransition(c.Request.Context(), c.Param("user"), c.Param("mission"), target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/cadets/:user/missions/:mission/reconcile
func (h *CadetHandler) Reconcile(c *gin.Context) {
	res, err := h.tracker.OnMissionCompleted(c.Request.Context(), c.Param("user"), c.Param("mission"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/cadets/:user/standing
func (h *CadetHandler) Standing(c *gin.Context) {
	st, err := h.wallet.Standing(c.Request.Context(), c.Param("user"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /api/cadets/:user/events?limit=&after=&before=&from=&to=
func (h *CadetHandler) Events(c *gin.Context) {
	opts, err := queryOpts(c)
	if err != nil {
		respondError(c, invalidInput(err))
		return
	}
	events, err := h.events.ProgressEvents(c.Request.Context(), c.Param("user"), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	if events == nil {
		events = []progress.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func queryOpts(c *gin.Context) (store.QueryOpts, error) {
	opts := store.QueryOpts{Limit: 50}
	ints := []struct {
		key string
		dst *int64
	}{{"after", &opts.After}, {"before", &opts.Before}}
	for _, q := range ints {
		if v := c.Query(q.key); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return opts, errors.New(q.key + " must be an integer")
			}
			*q.dst = n
		}
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 500 {
			return opts, errors.New("limit must be between 0 and 500")
		}
		opts.Limit = n
	}
	times := []struct {
		key string
		dst *time.Time
	}{{"from", &opts.From}, {"to", &opts.To}}
	for _, q := range times {
		if v := c.Query(q.key); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return opts, errors.New(q.key + " must be an RFC 3339 timestamp")
			}
			*q.dst = t
		}
	}
	return opts, nil
}

package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/missionhq/internal/briefs"
	"github.com/abhisek/missionhq/internal/catalog"
	"github.com/abhisek/missionhq/internal/confirm"
	"github.com/abhisek/missionhq/internal/progress"
	"github.com/abhisek/missionhq/internal/store"
	"github.com/abhisek/missionhq/internal/wallet"
)

const welcomeYAML = `
id: welcome
title: Welcome aboard
revision: 1.0.0
theme:
  labels:
    locked: Top secret
missions:
  - id: badge
    title: Pick up your badge
    confirmation: qr
    experience: 50
    currency: 10
  - id: laptop
    title: Set up your laptop
    experience: 100
    currency: 20
  - id: deploy
    title: First deploy
    confirmation: manual
    experience: 300
    currency: 50
    requires: [badge, laptop]
`

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.Open(store.DriverSQLite, "file:web_"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	cat, err := catalog.NewService(s.CampaignRepo(), 8)
	require.NoError(t, err)
	tracker := progress.NewTracker(s.ProgressStore(), cat)
	w := wallet.NewService(s.Ledger())
	signer, err := confirm.NewSigner("0123456789abcdef-web", time.Hour, nil)
	require.NoError(t, err)

	return NewRouter(RouterConfig{
		Ping:      func(ctx context.Context) error { return s.DB().PingContext(ctx) },
		Campaigns: NewCampaignHandler(cat),
		Cadets:    NewCadetHandler(cat, tracker, w, s.EventRepo()),
		Shop:      NewShopHandler(w),
		QR:        NewQRHandler(confirm.NewService(signer, cat, tracker, nil)),
		Briefs:    NewBriefHandler(briefs.NewService(nil, briefs.DefaultConfig(), nil)),
	})
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" && strings.HasPrefix(strings.TrimSpace(body), "{") {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorEnvelope](t, rec).Error.Code
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestRequestIDIsPropagated(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(headerRequestID))
}

func TestCampaignImportAndGet(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/campaigns", welcomeYAML)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[catalog.ImportResult](t, rec)
	assert.Equal(t, "v1.0.0", res.Revision)
	assert.Equal(t, 3, res.Missions)

	rec = do(t, r, http.MethodPost, "/api/campaigns", welcomeYAML)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[catalog.ImportResult](t, rec).Unchanged)

	rec = do(t, r, http.MethodGet, "/api/campaigns/welcome", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[campaignView](t, rec)
	assert.Equal(t, []string{"badge", "laptop"}, view.Roots)
	require.Len(t, view.Missions, 3)
	assert.Equal(t, "deploy", view.Missions[2].ID)
	assert.Equal(t, 1, view.Missions[2].Depth)
	assert.Len(t, view.Dependencies, 2)

	rec = do(t, r, http.MethodGet, "/api/campaigns", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"welcome"`)
}

func TestCampaignImportErrors(t *testing.T) {
	r := newTestRouter(t)

	cyclic := `{"id": "loop", "title": "Loop", "revision": "1.0.0", "missions": [` +
		`{"id": "a", "title": "A", "requires": ["b"]}, ` +
		`{"id": "b", "title": "B", "requires": ["a"]}]}`
	rec := do(t, r, http.MethodPost, "/api/campaigns", cyclic)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode[ErrorEnvelope](t, rec)
	assert.Equal(t, "invalid_campaign", env.Error.Code)
	assert.NotEmpty(t, env.Error.Problems)

	rec = do(t, r, http.MethodPost, "/api/campaigns", "id: x\nunknown_key: 1\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/campaigns/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "campaign_not_found", errorCode(t, rec))
}

func TestCadetJourney(t *testing.T) {
	r := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/campaigns", welcomeYAML).Code)

	rec := do(t, r, http.MethodPost, "/api/campaigns/welcome/cadets/ada", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 3, decode[progress.InitResult](t, rec).Created)

	rec = do(t, r, http.MethodGet, "/api/campaigns/welcome/cadets/ada/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	prog := decode[struct {
		Missions []stateView `json:"missions"`
	}](t, rec)
	require.Len(t, prog.Missions, 3)
	assert.Equal(t, progress.StatusLocked, prog.Missions[2].Status)
	assert.Equal(t, "Top secret", prog.Missions[2].Label)

	// Locked missions cannot be completed.
	rec = do(t, r, http.MethodPost, "/api/cadets/ada/missions/deploy/transitions", `{"status":"completed"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", errorCode(t, rec))

	for _, status := range []string{"in-progress", "COMPLETED"} {
		rec = do(t, r, http.MethodPost, "/api/cadets/ada/missions/laptop/transitions", `{"status":"`+status+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	// Badge is confirmed by QR.
	rec = do(t, r, http.MethodPost, "/api/cadets/ada/missions/badge/transitions", `{"status":"IN_PROGRESS"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, r, http.MethodPost, "/api/missions/badge/qr", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	code := decode[confirm.Code](t, rec)

	rec = do(t, r, http.MethodPost, "/api/cadets/ada/missions/badge/qr", `{"token":"garbage"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/cadets/ada/missions/badge/qr", `{"token":"`+code.Token+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tr := decode[progress.Transition](t, rec)
	require.NotNil(t, tr.Completion)
	assert.Equal(t, []string{"deploy"}, tr.Completion.Unlocked)

	rec = do(t, r, http.MethodPost, "/api/cadets/ada/missions/badge/reconcile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[progress.Completion](t, rec).Credited)

	rec = do(t, r, http.MethodGet, "/api/cadets/ada/standing", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[wallet.Standing](t, rec)
	assert.Equal(t, 150, st.Balance.Experience)
	assert.Equal(t, 30, st.Balance.Currency)

	rec = do(t, r, http.MethodGet, "/api/cadets/ada/events?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[struct {
		Events []progress.Event `json:"events"`
	}](t, rec).Events
	require.Len(t, events, 2)
	assert.Greater(t, events[0].Sequence, events[1].Sequence)

	rec = do(t, r, http.MethodGet, "/api/cadets/ada/events?limit=lots", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShop(t *testing.T) {
	r := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/campaigns", welcomeYAML).Code)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/campaigns/welcome/cadets/ada", "").Code)
	for _, status := range []string{"IN_PROGRESS", "COMPLETED"} {
		require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/cadets/ada/missions/laptop/transitions", `{"status":"`+status+`"}`).Code)
	}

	rec := do(t, r, http.MethodPost, "/api/shop", `{"id":"mug","title":"Team mug","price":15,"stock":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, r, http.MethodPost, "/api/shop", `{"id":"","title":"Nameless","price":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/cadets/ada/purchases", `{"item_id":"mug"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, r, http.MethodPost, "/api/cadets/ada/purchases", `{"item_id":"mug"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "out_of_stock", errorCode(t, rec))

	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/shop", `{"id":"hoodie","title":"Hoodie","price":500}`).Code)
	rec = do(t, r, http.MethodPost, "/api/cadets/ada/purchases", `{"item_id":"hoodie"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "insufficient_funds", errorCode(t, rec))

	rec = do(t, r, http.MethodPost, "/api/cadets/ada/purchases", `{"item_id":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/cadets/ada/purchases", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Purchases []wallet.Purchase `json:"purchases"`
	}](t, rec).Purchases, 1)

	rec = do(t, r, http.MethodGet, "/api/shop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stock":0`)
}

func TestMissionErrors(t *testing.T) {
	r := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/campaigns", welcomeYAML).Code)

	rec := do(t, r, http.MethodPost, "/api/cadets/ada/missions/ghost/transitions", `{"status":"IN_PROGRESS"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/cadets/ada/missions/laptop/transitions", `{"status":"DONE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/cadets/ada/missions/laptop/transitions", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Not initialized for this cadet.
	rec = do(t, r, http.MethodPost, "/api/cadets/ada/missions/laptop/transitions", `{"status":"IN_PROGRESS"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/missions/laptop/qr", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not_qr_mission", errorCode(t, rec))

	rec = do(t, r, http.MethodGet, "/api/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDraftBrief(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/briefs", `{"topic":"on-call"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	b := decode[briefs.Brief](t, rec)
	assert.Equal(t, "Explore on-call", b.Title)
	assert.False(t, b.Generated)

	rec = do(t, r, http.MethodPost, "/api/briefs", `{"topic":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(nil))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	rec := do(t, r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal", errorCode(t, rec))
}

func TestConcurrentPublishIsConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/race", func(c *gin.Context) {
		respondError(c, fmt.Errorf("save campaign: %w", store.ErrRevisionConflict))
	})

	rec := do(t, r, http.MethodPost, "/race", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "revision_conflict", errorCode(t, rec))
}

func TestRouterMountsOnlyGivenHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterConfig{})

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/campaigns", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/shop", "").Code)
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/missionhq/internal/missiongraph"
	"github.com/abhisek/missionhq/internal/progress"
)

// ErrRevisionConflict means the campaign was published by someone else
// between loading it and saving it.
var ErrRevisionConflict = errors.New("campaign revision changed concurrently")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// CampaignRecord is a published campaign's header row.
type CampaignRecord struct {
	ID        string
	Title     string
	Revision  string
	Theme     []byte // JSON-encoded presentation config
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CampaignData is a campaign with its full mission set.
type CampaignData struct {
	Campaign     CampaignRecord
	Missions     []missiongraph.Mission // definition order
	Dependencies []missiongraph.Dependency
}

// CampaignRepo stores campaign definitions.
type CampaignRepo interface {
	// SaveCampaign replaces the campaign, its missions and its dependencies
	// in one transaction. Missions absent from data are not deleted.
	// previous is the revision the caller loaded, empty for a new campaign;
	// if the stored revision no longer matches, nothing is written and
	// ErrRevisionConflict is returned.
	SaveCampaign(ctx context.Context, data CampaignData, previous string) error

	// LoadCampaign returns the campaign, or ok=false if it does not exist.
	LoadCampaign(ctx context.Context, campaignID string) (data CampaignData, ok bool, err error)

	// ListCampaigns returns every campaign header ordered by id.
	ListCampaigns(ctx context.Context) ([]CampaignRecord, error)

	// MissionCampaigns maps each known mission id among ids to its campaign.
	MissionCampaigns(ctx context.Context, missionIDs []string) (map[string]string, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// EventRepo provides append access to audit events and read access to the
// progress feed.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// ProgressEvents returns a cadet's progress events, newest first.
	ProgressEvents(ctx context.Context, userID string, opts QueryOpts) ([]progress.Event, error)
}

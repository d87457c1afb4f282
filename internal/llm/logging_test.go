package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/missionhq/internal/logger"
	"github.com/abhisek/missionhq/internal/progress"
	"github.com/abhisek/missionhq/internal/store"
)

type recordingRepo struct {
	requests []store.LLMRequestEventData
	err      error
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.requests = append(r.requests, data)
	return r.err
}

func (r *recordingRepo) ProgressEvents(context.Context, string, store.QueryOpts) ([]progress.Event, error) {
	return nil, nil
}

func observed() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.FromZap(zap.New(core)), logs
}

func TestLoggingProvider_RecordsSuccess(t *testing.T) {
	repo := &recordingRepo{}
	log, logs := observed()
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"title":"x"}`),
		Usage:   Usage{InputTokens: 100, OutputTokens: 20, TotalTokens: 120},
	})
	p := WithLogging(mock, ProviderMock, repo, log).(*LoggingProvider)
	ticks := []time.Time{time.Unix(0, 0), time.Unix(0, 0).Add(250 * time.Millisecond)}
	p.now = func() time.Time { t := ticks[0]; ticks = ticks[1:]; return t }

	ctx := WithPurpose(context.Background(), "mission-brief")
	_, err := p.Generate(ctx, Request{Messages: UserPrompt("hi"), Schema: &testSchema})
	require.NoError(t, err)

	require.Len(t, repo.requests, 1)
	got := repo.requests[0]
	assert.Equal(t, store.LLMRequestEventData{
		Provider:     ProviderMock,
		Model:        "mock",
		Purpose:      "mission-brief",
		InputTokens:  100,
		OutputTokens: 20,
		LatencyMs:    250,
		Success:      true,
	}, got)

	entries := logs.FilterMessage("llm request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "mission-brief", entries[0].ContextMap()["purpose"])
}

func TestLoggingProvider_RecordsFailure(t *testing.T) {
	repo := &recordingRepo{err: errors.New("disk full")}
	log, logs := observed()
	p := WithLogging(NewMockProvider(), ProviderOpenAI, repo, log)

	_, err := p.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	require.ErrorAs(t, err, &unavail)

	require.Len(t, repo.requests, 1)
	assert.False(t, repo.requests[0].Success)
	assert.Equal(t, "unknown", repo.requests[0].Purpose)
	assert.NotEmpty(t, repo.requests[0].ErrorMessage)
	assert.Equal(t, 1, logs.FilterMessage("llm request failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("failed to record llm request").Len())
}

func TestLoggingProvider_NilRepoAndLogger(t *testing.T) {
	p := WithLogging(NewMockProvider(MockResponse{Content: json.RawMessage(`"ok"`)}), ProviderMock, nil, nil)
	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `"ok"`, string(resp.Content))
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4o-mini")
	require.NotNil(t, c)
	assert.InDelta(t, 0.15+0.6, c.Cost(1_000_000, 1_000_000), 1e-9)
	assert.Nil(t, LookupCost("no-such-model"))
}

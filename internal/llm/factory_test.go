package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), DefaultConfig(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNewProvider_MissingKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderAnthropic
	_, err := NewProvider(context.Background(), cfg, nil, nil)
	assert.ErrorContains(t, err, "MISSIONHQ_ANTHROPIC_API_KEY")
}

func TestNewProvider_Mock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderMock
	p, err := NewProvider(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
}

func TestNewProvider_WrapsBase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenRouter
	cfg.OpenRouter.APIKey = "k"

	p, err := NewProvider(context.Background(), cfg, &recordingRepo{}, nil)
	require.NoError(t, err)
	retry, ok := p.(*RetryProvider)
	require.True(t, ok, "outermost layer should retry, got %T", p)
	assert.Equal(t, "google/gemini-2.0-flash-001", retry.ModelID())
}

func TestMockProvider_ValidatesAgainstSchema(t *testing.T) {
	m := NewMockProvider(MockResponse{Content: json.RawMessage(`{"nope":1}`)})
	_, err := m.Generate(context.Background(), Request{Schema: &testSchema})
	var inv *ErrInvalidResponse
	require.ErrorAs(t, err, &inv)

	m.AddResponse(MockResponse{Content: json.RawMessage(`{"title":"ok"}`)})
	resp, err := m.Generate(context.Background(), Request{Schema: &testSchema})
	require.NoError(t, err)
	assert.Equal(t, "end", resp.StopReason)
	assert.Len(t, m.Calls(), 2)
}

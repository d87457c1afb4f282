package briefs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/missionhq/internal/llm"
	"github.com/abhisek/missionhq/internal/logger"
)

// Service drafts briefs with an LLM provider. A nil provider yields the
// deterministic placeholder.
type Service struct {
	provider llm.Provider
	config   Config
	log      *logger.Logger
}

// NewService creates a Service. provider and log may be nil.
func NewService(provider llm.Provider, cfg Config, log *logger.Logger) *Service {
	return &Service{provider: provider, config: cfg, log: log}
}

// Enabled reports whether drafts come from a model.
func (s *Service) Enabled() bool {
	return s.provider != nil
}

// Draft produces a brief for req.
func (s *Service) Draft(ctx context.Context, req Request) (*Brief, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return nil, ErrTopicRequired
	}
	if s.provider == nil {
		return placeholder(req), nil
	}

	ctx = llm.WithPurpose(ctx, "mission-brief")
	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserPrompt(buildUserMessage(req, s.config)),
		Schema:      BriefSchema,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("draft brief: %w", err)
	}

	var b Brief
	if err := json.Unmarshal(resp.Content, &b); err != nil {
		return nil, fmt.Errorf("parse brief: %w", err)
	}
	b.Title = strings.TrimSpace(b.Title)
	b.Description = strings.TrimSpace(b.Description)
	for i := range b.Steps {
		b.Steps[i] = strings.TrimSpace(b.Steps[i])
	}
	b.Generated = true

	if qerr := s.config.check(&b); qerr != nil {
		s.log.Warn("rejected drafted brief", "topic", req.Topic, "field", qerr.Field, "reason", qerr.Message)
		return nil, qerr
	}
	s.log.Debug("drafted brief", "topic", req.Topic, "model", resp.Model)
	return &b, nil
}

// placeholder is the offline draft: the same request always gets the same
// brief.
func placeholder(req Request) *Brief {
	steps := []string{
		fmt.Sprintf("Read the team notes on %s", req.Topic),
		fmt.Sprintf("Pair with a teammate on %s for one session", req.Topic),
		"Write down one question and bring it to your next check-in",
	}
	switch req.Confirmation {
	case "manual":
		steps = append(steps, "Ask your mentor to confirm the mission")
	case "qr":
		steps = append(steps, "Scan the mission code with your mentor")
	}
	desc := fmt.Sprintf("Get familiar with %s.", req.Topic)
	if req.CampaignTitle != "" {
		desc = fmt.Sprintf("Get familiar with %s as part of %s.", req.Topic, req.CampaignTitle)
	}
	return &Brief{
		Title:       "Explore " + req.Topic,
		Description: desc,
		Steps:       steps,
		Experience:  100,
		Currency:    10,
	}
}

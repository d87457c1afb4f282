// Package briefs drafts mission copy for campaign architects.
package briefs

import (
	"errors"
	"fmt"
)

// ErrTopicRequired is returned when a draft request has no topic.
var ErrTopicRequired = errors.New("brief topic is required")

// Request describes the mission an architect wants drafted.
type Request struct {
	Topic         string   `json:"topic"`
	CampaignTitle string   `json:"campaign_title,omitempty"`
	Audience      string   `json:"audience,omitempty"` // e.g. "backend engineers"
	Confirmation  string   `json:"confirmation,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty"` // titles of earlier missions
}

// Brief is a drafted mission. Generated is false for the offline
// placeholder.
type Brief struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
	Experience  int      `json:"experience"`
	Currency    int      `json:"currency"`
	Generated   bool     `json:"generated"`
}

// QualityError describes why a drafted brief was rejected.
type QualityError struct {
	Field   string
	Message string
}

func (e *QualityError) Error() string {
	return fmt.Sprintf("brief %s: %s", e.Field, e.Message)
}

// Config controls drafting.
type Config struct {
	MaxTokens     int
	Temperature   float64
	MaxSteps      int
	MaxExperience int
	MaxCurrency   int
}

// DefaultConfig returns the recommended drafting limits.
func DefaultConfig() Config {
	return Config{
		MaxTokens:     768,
		Temperature:   0.7,
		MaxSteps:      6,
		MaxExperience: 1000,
		MaxCurrency:   500,
	}
}

// check enforces the limits the schema cannot express.
func (c Config) check(b *Brief) *QualityError {
	switch {
	case len(b.Title) > 80:
		return &QualityError{Field: "title", Message: "exceeds 80 characters"}
	case len(b.Description) > 1000:
		return &QualityError{Field: "description", Message: "exceeds 1000 characters"}
	case len(b.Steps) > c.MaxSteps:
		return &QualityError{Field: "steps", Message: fmt.Sprintf("more than %d steps", c.MaxSteps)}
	case b.Experience > c.MaxExperience:
		return &QualityError{Field: "experience", Message: fmt.Sprintf("above %d", c.MaxExperience)}
	case b.Currency > c.MaxCurrency:
		return &QualityError{Field: "currency", Message: fmt.Sprintf("above %d", c.MaxCurrency)}
	}
	for i, s := range b.Steps {
		if s == "" {
			return &QualityError{Field: "steps", Message: fmt.Sprintf("step %d is empty", i+1)}
		}
	}
	return nil
}

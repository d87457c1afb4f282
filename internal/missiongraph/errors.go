package missiongraph

import (
	"fmt"
	"strings"
)

// ValidationError reports a malformed campaign graph. A graph that fails
// validation is never returned, so callers cannot act on part of it.
type ValidationError struct {
	CampaignID string
	Problems   []string
}

// Invalid builds a ValidationError for the given campaign.
func Invalid(campaignID string, problems ...string) *ValidationError {
	return &ValidationError{CampaignID: campaignID, Problems: problems}
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("campaign %q is invalid: %s", e.CampaignID, e.Problems[0])
	}
	return fmt.Sprintf("campaign %q is invalid:\n  %s", e.CampaignID, strings.Join(e.Problems, "\n  "))
}

package briefs

import (
	"fmt"
	"strings"
)

const systemPrompt = `You write onboarding missions for new employees.

Rules:
- Write one mission about the given topic.
- The title is a short imperative phrase, for example "Ship your first pull request".
- The description speaks directly to the new hire in a friendly, space-mission tone without overdoing it.
- Steps are concrete actions a new hire can finish on their own.
- Reward effort: experience should be about 50 points per hour of work; currency about a tenth of experience.
- If the mission is confirmed in person or by scanning a code, the last step must say so.`

func buildUserMessage(req Request, cfg Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	if req.CampaignTitle != "" {
		fmt.Fprintf(&b, "Campaign: %s\n", req.CampaignTitle)
	}
	if req.Audience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", req.Audience)
	}
	confirmation := req.Confirmation
	if confirmation == "" {
		confirmation = "auto"
	}
	fmt.Fprintf(&b, "Confirmation: %s\n", confirmation)
	fmt.Fprintf(&b, "Maximum steps: %d\n", cfg.MaxSteps)

	b.WriteString("\nAlready completed before this mission:\n")
	if len(req.Prerequisites) == 0 {
		b.WriteString("Nothing")
	}
	for i, p := range req.Prerequisites {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	return strings.TrimRight(b.String(), "\n")
}

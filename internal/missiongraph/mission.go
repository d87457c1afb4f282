package missiongraph

// Confirmation describes how a mission is confirmed once a cadet finishes it.
type Confirmation string

const (
	ConfirmAuto   Confirmation = "auto"   // Completed as soon as the cadet reports it done
	ConfirmManual Confirmation = "manual" // An architect reviews the submission
	ConfirmQR     Confirmation = "qr"     // Confirmed offline by scanning a signed code
)

// AllConfirmations returns the supported confirmation types.
func AllConfirmations() []Confirmation {
	return []Confirmation{ConfirmAuto, ConfirmManual, ConfirmQR}
}

// Valid reports whether c is a known confirmation type.
func (c Confirmation) Valid() bool {
	switch c {
	case ConfirmAuto, ConfirmManual, ConfirmQR:
		return true
	}
	return false
}

// RequiresReview reports whether missions with this confirmation pass
// through review before completion.
func (c Confirmation) RequiresReview() bool {
	return c == ConfirmManual || c == ConfirmQR
}

// Mission is a single node of a campaign's dependency graph.
type Mission struct {
	ID           string       `json:"id"`
	CampaignID   string       `json:"campaign_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Experience   int          `json:"experience"`
	Currency     int          `json:"currency"`
	Confirmation Confirmation `json:"confirmation"`
}

// Dependency is a directed edge: Source must be completed before Target
// may become available.
type Dependency struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

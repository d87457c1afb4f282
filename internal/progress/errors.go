package progress

import "fmt"

// NotFoundError reports a mission that does not exist, or one that exists
// but has no state record for the user.
type NotFoundError struct {
	UserID    string // empty when the mission itself is unknown
	MissionID string
}

func (e *NotFoundError) Error() string {
	if e.UserID == "" {
		return fmt.Sprintf("mission %q not found", e.MissionID)
	}
	return fmt.Sprintf("mission %q is not initialized for user %q", e.MissionID, e.UserID)
}

// InvalidTransitionError reports a status change the lifecycle forbids. The
// stored state is left untouched.
type InvalidTransitionError struct {
	UserID    string
	MissionID string
	From      Status
	To        Status
	Reason    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("mission %q: cannot move %s -> %s: %s", e.MissionID, e.From, e.To, e.Reason)
}

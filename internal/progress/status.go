package progress

import (
	"fmt"
	"strings"

	"github.com/abhisek/missionhq/internal/missiongraph"
)

// Status is a mission's position in a cadet's lifecycle.
type Status string

const (
	StatusLocked        Status = "LOCKED"         // One or more prerequisites not completed
	StatusAvailable     Status = "AVAILABLE"      // All prerequisites completed; not started
	StatusInProgress    Status = "IN_PROGRESS"    // Cadet is working on it
	StatusPendingReview Status = "PENDING_REVIEW" // Submitted; waiting for manual or offline confirmation
	StatusCompleted     Status = "COMPLETED"      // Terminal
)

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusLocked, StatusAvailable, StatusInProgress, StatusPendingReview, StatusCompleted}
}

// ParseStatus accepts the canonical names case-insensitively, with dashes
// or spaces in place of underscores.
func ParseStatus(s string) (Status, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	st := Status(norm)
	if !st.Valid() {
		return "", fmt.Errorf("unknown mission status %q", s)
	}
	return st, nil
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusLocked, StatusAvailable, StatusInProgress, StatusPendingReview, StatusCompleted:
		return true
	}
	return false
}

// Icon returns the display icon for a status.
func (s Status) Icon() string {
	switch s {
	case StatusLocked:
		return "🔒"
	case StatusAvailable:
		return "🔓"
	case StatusInProgress:
		return "🚀"
	case StatusPendingReview:
		return "⏳"
	case StatusCompleted:
		return "✅"
	default:
		return "?"
	}
}

// checkTransition validates a requested change against the lifecycle. The
// tracker handles COMPLETED -> COMPLETED as a no-op before calling this.
func checkTransition(from, to Status, c missiongraph.Confirmation) string {
	switch {
	case to == StatusLocked:
		return "missions cannot be re-locked"
	case to == StatusAvailable:
		return "missions unlock only when their prerequisites are completed"
	case from == StatusCompleted:
		return "completed missions are final"
	}

	switch from {
	case StatusLocked:
		return "mission is locked until its prerequisites are completed"
	case StatusAvailable:
		if to == StatusInProgress {
			return ""
		}
		return "mission must be started first"
	case StatusInProgress:
		switch {
		case to == StatusCompleted && !c.RequiresReview():
			return ""
		case to == StatusCompleted:
			return fmt.Sprintf("%s missions must be submitted for review first", c)
		case to == StatusPendingReview && c.RequiresReview():
			return ""
		case to == StatusPendingReview:
			return "automatically confirmed missions skip review"
		}
		return "mission is already in progress"
	case StatusPendingReview:
		if to == StatusCompleted || to == StatusInProgress {
			return ""
		}
		return "mission is already pending review"
	}
	return fmt.Sprintf("unknown status %q", from)
}

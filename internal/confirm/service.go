package confirm

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/missionhq/internal/logger"
	"github.com/abhisek/missionhq/internal/missiongraph"
	"github.com/abhisek/missionhq/internal/progress"
)

// ErrNotQRMission is returned when a code is requested for a mission that is
// not confirmed by QR.
var ErrNotQRMission = errors.New("mission is not confirmed by QR code")

// Transitioner applies lifecycle transitions; *progress.Tracker satisfies it.
type Transitioner interface {
	RequestTransition(ctx context.Context, userID, missionID string, target progress.Status) (progress.Transition, error)
}

// Service issues codes for QR missions and redeems them for cadets.
type Service struct {
	signer  *Signer
	graphs  progress.GraphSource
	tracker Transitioner
	log     *logger.Logger
}

// NewService creates a Service. log may be nil.
func NewService(signer *Signer, graphs progress.GraphSource, tracker Transitioner, log *logger.Logger) *Service {
	return &Service{signer: signer, graphs: graphs, tracker: tracker, log: log}
}

// Issue signs a code for a QR mission.
func (s *Service) Issue(ctx context.Context, missionID string) (Code, error) {
	g, err := s.graphs.GraphForMission(ctx, missionID)
	if err != nil {
		return Code{}, err
	}
	m, _ := g.Mission(missionID)
	if m.Confirmation != missiongraph.ConfirmQR {
		return Code{}, fmt.Errorf("%w: %q uses %s", ErrNotQRMission, missionID, m.Confirmation)
	}
	code, err := s.signer.Issue(missionID)
	if err != nil {
		return Code{}, err
	}
	s.log.Info("qr code issued", "mission_id", missionID, "jti", code.ID, "expires_at", code.ExpiresAt)
	return code, nil
}

// Redeem verifies token for the mission and completes it for the cadet. A
// mission still in progress is submitted first; redeeming an already
// completed mission is a no-op.
//
// Submitting and completing commit separately. If completion fails the
// mission is left PENDING_REVIEW, and redeeming the same code again
// finishes it: codes are not consumed, and the reward is credited once.
func (s *Service) Redeem(ctx context.Context, userID, missionID, token string) (progress.Transition, error) {
	claims, err := s.signer.Verify(token, missionID)
	if err != nil {
		s.log.Warn("qr code rejected", "user_id", userID, "mission_id", missionID, "error", err)
		return progress.Transition{}, err
	}

	_, err = s.tracker.RequestTransition(ctx, userID, missionID, progress.StatusPendingReview)
	var invalid *progress.InvalidTransitionError
	if err != nil && !(errors.As(err, &invalid) &&
		(invalid.From == progress.StatusPendingReview || invalid.From == progress.StatusCompleted)) {
		return progress.Transition{}, err
	}

	tr, err := s.tracker.RequestTransition(ctx, userID, missionID, progress.StatusCompleted)
	if err != nil {
		return tr, err
	}
	s.log.Info("qr code redeemed", "user_id", userID, "mission_id", missionID, "jti", claims.ID, "changed", tr.Changed)
	return tr, nil
}

package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/missionhq/internal/briefs"
	"github.com/abhisek/missionhq/internal/catalog"
	"github.com/abhisek/missionhq/internal/confirm"
	"github.com/abhisek/missionhq/internal/llm"
	"github.com/abhisek/missionhq/internal/missiongraph"
	"github.com/abhisek/missionhq/internal/progress"
	"github.com/abhisek/missionhq/internal/store"
	"github.com/abhisek/missionhq/internal/wallet"
)

// APIError is the body of every error response.
type APIError struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Problems []string `json:"problems,omitempty"`
}

// ErrorEnvelope wraps APIError as {"error": {...}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// badRequest marks errors caused by malformed input.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func invalidInput(err error) error { return badRequest{err: err} }

func respondError(c *gin.Context, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: body})
}

func classify(err error) (int, APIError) {
	var (
		validation *missiongraph.ValidationError
		notFound   *progress.NotFoundError
		transition *progress.InvalidTransitionError
		bad        badRequest
		quality    *briefs.QualityError
		rateLimit  *llm.ErrRateLimit
	)
	msg := err.Error()
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, APIError{Code: "invalid_campaign", Message: msg, Problems: validation.Problems}
	case errors.Is(err, store.ErrRevisionConflict):
		return http.StatusConflict, APIError{Code: "revision_conflict", Message: msg}
	case errors.As(err, &notFound):
		return http.StatusNotFound, APIError{Code: "mission_not_found", Message: msg}
	case errors.Is(err, catalog.ErrCampaignNotFound):
		return http.StatusNotFound, APIError{Code: "campaign_not_found", Message: msg}
	case errors.Is(err, wallet.ErrItemNotFound):
		return http.StatusNotFound, APIError{Code: "item_not_found", Message: msg}
	case errors.As(err, &transition):
		return http.StatusConflict, APIError{Code: "invalid_transition", Message: msg}
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return http.StatusConflict, APIError{Code: "insufficient_funds", Message: msg}
	case errors.Is(err, wallet.ErrOutOfStock):
		return http.StatusConflict, APIError{Code: "out_of_stock", Message: msg}
	case errors.Is(err, confirm.ErrInvalidCode), errors.Is(err, confirm.ErrExpiredCode), errors.Is(err, confirm.ErrMissionMismatch):
		return http.StatusForbidden, APIError{Code: "invalid_code", Message: msg}
	case errors.Is(err, confirm.ErrNotQRMission):
		return http.StatusConflict, APIError{Code: "not_qr_mission", Message: msg}
	case errors.As(err, &bad),
		errors.Is(err, wallet.ErrInvalidItem),
		errors.Is(err, wallet.ErrUserRequired),
		errors.Is(err, briefs.ErrTopicRequired):
		return http.StatusBadRequest, APIError{Code: "bad_request", Message: msg}
	case errors.As(err, &quality):
		return http.StatusBadGateway, APIError{Code: "draft_rejected", Message: msg}
	case errors.As(err, &rateLimit):
		return http.StatusServiceUnavailable, APIError{Code: "llm_rate_limited", Message: msg}
	}
	return http.StatusInternalServerError, APIError{Code: "internal", Message: "internal error"}
}

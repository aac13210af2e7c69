package handler

import (
	"errors"
	"net/http"

	"github.com/tradebid/tradebid/internal/api/response"
	"github.com/tradebid/tradebid/internal/bidding"
	"github.com/tradebid/tradebid/internal/store"
)

// writeDomainError translates bidding-engine and store errors into the
// JSON error envelope. Guard failures are 409s: the request was
// well-formed but illegal from the aggregate's current state.
func writeDomainError(w http.ResponseWriter, err error) {
	var vErr *bidding.ValidationError
	var scErr *bidding.StateConflictError

	switch {
	case errors.As(err, &vErr):
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", vErr.Msg, nil)
	case errors.Is(err, bidding.ErrJobNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
	case errors.Is(err, bidding.ErrUserNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	case errors.Is(err, bidding.ErrBidNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Bid not found", nil)
	case errors.As(err, &scErr):
		response.Error(w, http.StatusConflict, "STATE_CONFLICT", scErr.Error(), map[string]any{
			"current":   scErr.Current,
			"requested": scErr.Requested,
		})
	case errors.Is(err, bidding.ErrDuplicateBid):
		response.Error(w, http.StatusConflict, "DUPLICATE_BID", err.Error(), nil)
	case errors.Is(err, bidding.ErrBidExceedsPrice):
		response.Error(w, http.StatusConflict, "BID_EXCEEDS_PRICE", err.Error(), nil)
	case errors.Is(err, bidding.ErrJobNotBiddable):
		response.Error(w, http.StatusConflict, "JOB_NOT_BIDDABLE", err.Error(), nil)
	case errors.Is(err, bidding.ErrJobNotSelectable):
		response.Error(w, http.StatusConflict, "JOB_NOT_SELECTABLE", err.Error(), nil)
	case errors.Is(err, bidding.ErrUserNotApplicant):
		response.Error(w, http.StatusConflict, "USER_NOT_APPLICANT", err.Error(), nil)
	case errors.Is(err, bidding.ErrBidNotSelectable):
		response.Error(w, http.StatusConflict, "BID_NOT_SELECTABLE", err.Error(), nil)
	case errors.Is(err, bidding.ErrBidLocked):
		response.Error(w, http.StatusConflict, "BID_LOCKED", err.Error(), nil)
	case errors.Is(err, bidding.ErrAssignmentNotEligible):
		response.Error(w, http.StatusConflict, "ASSIGNMENT_NOT_ELIGIBLE", err.Error(), nil)
	case errors.Is(err, bidding.ErrWithdrawalNotEligible):
		response.Error(w, http.StatusConflict, "WITHDRAWAL_NOT_ELIGIBLE", err.Error(), nil)
	case errors.Is(err, bidding.ErrCannotResubmitSelected):
		response.Error(w, http.StatusConflict, "CANNOT_RESUBMIT_SELECTED", err.Error(), nil)
	case errors.Is(err, store.ErrVersionConflict):
		response.Error(w, http.StatusConflict, "CONFLICT", "Concurrent update, retry the request", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}

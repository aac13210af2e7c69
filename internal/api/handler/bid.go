package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/tradebid/tradebid/internal/api/middleware"
	"github.com/tradebid/tradebid/internal/api/response"
	"github.com/tradebid/tradebid/internal/bidding"
	"github.com/tradebid/tradebid/pkg/models"
)

// BidService defines the interface the bid handlers depend on.
type BidService interface {
	SubmitBid(ctx context.Context, jobID, userID uuid.UUID, amount float64) (*models.Job, error)
	UpdateBid(ctx context.Context, jobID, userID uuid.UUID, upd bidding.BidUpdate) (*models.Job, error)
}

// NewSubmitBidHandler returns an http.HandlerFunc for POST
// /api/v1/jobs/{jobID}/bids. The authenticated caller is the bidder.
func NewSubmitBidHandler(svc BidService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}
		jobID, ok := parseJobID(w, r)
		if !ok {
			return
		}

		var req struct {
			Amount float64 `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		job, err := svc.SubmitBid(r.Context(), jobID, userID, req.Amount)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response.Created(w, job)
	}
}

// NewUpdateBidHandler returns an http.HandlerFunc for PATCH
// /api/v1/jobs/{jobID}/bids/{userID}. Accepts an amount change, a
// status change (assigned, withdrawn, submitted), or both.
func NewUpdateBidHandler(svc BidService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := parseJobID(w, r)
		if !ok {
			return
		}
		userID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "userID must be a valid UUID", nil)
			return
		}

		var req struct {
			Amount *float64 `json:"amount"`
			Status *string  `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		upd := bidding.BidUpdate{Amount: req.Amount}
		if req.Status != nil {
			s := models.BidStatus(*req.Status)
			upd.Status = &s
		}

		job, err := svc.UpdateBid(r.Context(), jobID, userID, upd)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response.JSON(w, job)
	}
}

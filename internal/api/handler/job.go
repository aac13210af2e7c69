package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/tradebid/tradebid/internal/api/middleware"
	"github.com/tradebid/tradebid/internal/api/response"
	"github.com/tradebid/tradebid/internal/bidding"
	"github.com/tradebid/tradebid/internal/store"
	"github.com/tradebid/tradebid/pkg/models"
)

const dateLayout = "2006-01-02"

// JobService defines the interface the job handlers depend on.
type JobService interface {
	CreateJob(ctx context.Context, params bidding.NewJobParams) (*models.Job, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	ListJobs(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error)
	UpdateJob(ctx context.Context, jobID uuid.UUID, patch bidding.JobPatch) (*models.Job, error)
	DeleteJob(ctx context.Context, jobID uuid.UUID) error
}

type locationRequest struct {
	Address   string   `json:"address"`
	Longitude *float64 `json:"longitude"`
	Latitude  *float64 `json:"latitude"`
}

func (l *locationRequest) model() models.Location {
	return models.Location{Address: l.Address, Longitude: l.Longitude, Latitude: l.Latitude}
}

// NewCreateJobHandler returns an http.HandlerFunc for POST /api/v1/jobs.
// The authenticated caller becomes the job owner.
func NewCreateJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		var req struct {
			Name        string           `json:"name"`
			Description string           `json:"description"`
			ServiceName string           `json:"service_name"`
			Type        string           `json:"type"`
			Location    *locationRequest `json:"location"`
			Duration    string           `json:"duration"`
			StartDate   string           `json:"start_date"`
			EndDate     string           `json:"end_date"`
			Price       float64          `json:"price"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		startDate, ok := parseOptionalDate(w, req.StartDate, "start_date")
		if !ok {
			return
		}
		endDate, ok := parseOptionalDate(w, req.EndDate, "end_date")
		if !ok {
			return
		}

		params := bidding.NewJobParams{
			Name:        req.Name,
			Description: req.Description,
			ServiceName: req.ServiceName,
			Type:        models.JobType(req.Type),
			Duration:    req.Duration,
			StartDate:   startDate,
			EndDate:     endDate,
			Price:       req.Price,
			OwnerID:     ownerID,
		}
		if req.Location != nil {
			params.Location = req.Location.model()
		}

		job, err := svc.CreateJob(r.Context(), params)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response.Created(w, job)
	}
}

// NewGetJobHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}.
func NewGetJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := parseJobID(w, r)
		if !ok {
			return
		}
		job, err := svc.GetJob(r.Context(), jobID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response.JSON(w, job)
	}
}

// NewListJobsHandler returns an http.HandlerFunc for GET /api/v1/jobs.
func NewListJobsHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := store.JobFilter{
			Status: models.JobStatus(q.Get("status")),
			Sort:   q.Get("sort"),
		}
		if v := q.Get("owner"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "owner must be a valid UUID", nil)
				return
			}
			filter.OwnerID = id
		}
		if v := q.Get("bidder"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "bidder must be a valid UUID", nil)
				return
			}
			filter.BidderID = id
		}
		if filter.Status != "" && !models.ValidJobStatus(filter.Status) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown status filter", nil)
			return
		}
		filter.Page = intParam(q.Get("page"), 1)
		filter.Limit = intParam(q.Get("limit"), 20)

		jobs, total, err := svc.ListJobs(r.Context(), filter)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response.Collection(w, jobs, response.PaginationMeta{
			Page:    filter.Page,
			Limit:   filter.Limit,
			Total:   total,
			HasNext: filter.Page*filter.Limit < total,
		})
	}
}

// NewUpdateJobHandler returns an http.HandlerFunc for PATCH /api/v1/jobs/{jobID}.
// A single patch may combine field updates, a price change, a bid
// selection and a status transition; the engine orders the guards.
func NewUpdateJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := parseJobID(w, r)
		if !ok {
			return
		}

		var req struct {
			Name        *string          `json:"name"`
			Description *string          `json:"description"`
			ServiceName *string          `json:"service_name"`
			Type        *string          `json:"type"`
			Location    *locationRequest `json:"location"`
			Duration    *string          `json:"duration"`
			StartDate   *string          `json:"start_date"`
			EndDate     *string          `json:"end_date"`
			Price       *float64         `json:"price"`
			Status      *string          `json:"status"`
			SelectedBid *string          `json:"selected_bid"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		patch := bidding.JobPatch{
			Name:        req.Name,
			Description: req.Description,
			ServiceName: req.ServiceName,
			Duration:    req.Duration,
			Price:       req.Price,
		}
		if req.Type != nil {
			t := models.JobType(*req.Type)
			patch.Type = &t
		}
		if req.Location != nil {
			loc := req.Location.model()
			patch.Location = &loc
		}
		if req.Status != nil {
			s := models.JobStatus(*req.Status)
			patch.Status = &s
		}
		if req.StartDate != nil {
			d, ok := parseOptionalDate(w, *req.StartDate, "start_date")
			if !ok {
				return
			}
			patch.StartDate = &d
		}
		if req.EndDate != nil {
			d, ok := parseOptionalDate(w, *req.EndDate, "end_date")
			if !ok {
				return
			}
			patch.EndDate = &d
		}
		if req.SelectedBid != nil {
			id, err := uuid.Parse(*req.SelectedBid)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "selected_bid must be a valid UUID", nil)
				return
			}
			patch.SelectedBid = &id
		}

		job, err := svc.UpdateJob(r.Context(), jobID, patch)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response.JSON(w, job)
	}
}

// NewDeleteJobHandler returns an http.HandlerFunc for DELETE /api/v1/jobs/{jobID}.
// Deletion is unconditional; it does not run through the state machine.
func NewDeleteJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := parseJobID(w, r)
		if !ok {
			return
		}
		if err := svc.DeleteJob(r.Context(), jobID); err != nil {
			writeDomainError(w, err)
			return
		}
		response.JSON(w, map[string]string{"status": "deleted"})
	}
}

// --- helpers ---

func parseJobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalDate(w http.ResponseWriter, value, field string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", field+" must be a YYYY-MM-DD date", nil)
		return time.Time{}, false
	}
	return d, true
}

func intParam(value string, defaultVal int) int {
	if value == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

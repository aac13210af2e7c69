package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradebid/tradebid/internal/api/handler"
	mw "github.com/tradebid/tradebid/internal/api/middleware"
	"github.com/tradebid/tradebid/internal/bidding"
	"github.com/tradebid/tradebid/internal/store"
	"github.com/tradebid/tradebid/pkg/models"
)

// fakeJobService scripts the service layer for handler tests.
type fakeJobService struct {
	job       *models.Job
	jobs      []*models.Job
	total     int
	err       error
	gotParams bidding.NewJobParams
	gotPatch  bidding.JobPatch
	gotAmount float64
	gotUpdate bidding.BidUpdate
}

func (f *fakeJobService) CreateJob(_ context.Context, params bidding.NewJobParams) (*models.Job, error) {
	f.gotParams = params
	return f.job, f.err
}

func (f *fakeJobService) GetJob(_ context.Context, _ uuid.UUID) (*models.Job, error) {
	return f.job, f.err
}

func (f *fakeJobService) ListJobs(_ context.Context, _ store.JobFilter) ([]*models.Job, int, error) {
	return f.jobs, f.total, f.err
}

func (f *fakeJobService) UpdateJob(_ context.Context, _ uuid.UUID, patch bidding.JobPatch) (*models.Job, error) {
	f.gotPatch = patch
	return f.job, f.err
}

func (f *fakeJobService) DeleteJob(_ context.Context, _ uuid.UUID) error {
	return f.err
}

func (f *fakeJobService) SubmitBid(_ context.Context, _, _ uuid.UUID, amount float64) (*models.Job, error) {
	f.gotAmount = amount
	return f.job, f.err
}

func (f *fakeJobService) UpdateBid(_ context.Context, _, _ uuid.UUID, upd bidding.BidUpdate) (*models.Job, error) {
	f.gotUpdate = upd
	return f.job, f.err
}

func sampleJob() *models.Job {
	return &models.Job{
		ID:      uuid.New(),
		Name:    "gutter cleaning",
		Type:    models.JobTypeContract,
		Price:   100,
		OwnerID: uuid.New(),
		Status:  models.JobAvailable,
	}
}

// testRouter mounts the handlers the way the real router does, with an
// authenticated user injected into the context.
func testRouter(svc *fakeJobService, userID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(mw.SetUserID(req.Context(), userID)))
		})
	})
	r.Post("/jobs", handler.NewCreateJobHandler(svc))
	r.Get("/jobs", handler.NewListJobsHandler(svc))
	r.Get("/jobs/{jobID}", handler.NewGetJobHandler(svc))
	r.Patch("/jobs/{jobID}", handler.NewUpdateJobHandler(svc))
	r.Delete("/jobs/{jobID}", handler.NewDeleteJobHandler(svc))
	r.Post("/jobs/{jobID}/bids", handler.NewSubmitBidHandler(svc))
	r.Patch("/jobs/{jobID}/bids/{userID}", handler.NewUpdateBidHandler(svc))
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestCreateJobHandler(t *testing.T) {
	svc := &fakeJobService{job: sampleJob()}
	owner := uuid.New()
	router := testRouter(svc, owner)

	w := doRequest(t, router, "POST", "/jobs", `{
		"name": "gutter cleaning",
		"type": "contract",
		"price": 100,
		"start_date": "2026-04-01",
		"end_date": "2026-04-30",
		"location": {"address": "12 High St"}
	}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, owner, svc.gotParams.OwnerID)
	assert.Equal(t, "gutter cleaning", svc.gotParams.Name)
	assert.Equal(t, "12 High St", svc.gotParams.Location.Address)
	assert.Equal(t, "2026-04-01", svc.gotParams.StartDate.Format("2006-01-02"))
}

func TestCreateJobHandler_InvalidBody(t *testing.T) {
	svc := &fakeJobService{job: sampleJob()}
	router := testRouter(svc, uuid.New())

	w := doRequest(t, router, "POST", "/jobs", `{not json`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
}

func TestCreateJobHandler_BadDate(t *testing.T) {
	svc := &fakeJobService{job: sampleJob()}
	router := testRouter(svc, uuid.New())

	w := doRequest(t, router, "POST", "/jobs", `{"name": "x", "end_date": "30-04-2026"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateJobHandler_ValidationErrorFromEngine(t *testing.T) {
	svc := &fakeJobService{err: &bidding.ValidationError{Msg: "job price must be positive"}}
	router := testRouter(svc, uuid.New())

	w := doRequest(t, router, "POST", "/jobs", `{"name": "x"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestGetJobHandler(t *testing.T) {
	job := sampleJob()
	svc := &fakeJobService{job: job}
	router := testRouter(svc, uuid.New())

	w := doRequest(t, router, "GET", "/jobs/"+job.ID.String(), "")

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data models.Job `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, job.ID, body.Data.ID)
}

func TestGetJobHandler_NotFound(t *testing.T) {
	svc := &fakeJobService{err: bidding.ErrJobNotFound}
	router := testRouter(svc, uuid.New())

	w := doRequest(t, router, "GET", "/jobs/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestGetJobHandler_BadID(t *testing.T) {
	svc := &fakeJobService{}
	router := testRouter(svc, uuid.New())

	w := doRequest(t, router, "GET", "/jobs/not-a-uuid", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListJobsHandler(t *testing.T) {
	svc := &fakeJobService{jobs: []*models.Job{sampleJob(), sampleJob()}, total: 45}
	router := testRouter(svc, uuid.New())

	w := doRequest(t, router, "GET", "/jobs?page=2&limit=20&sort=price", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []models.Job `json:"data"`
		Meta struct {
			Page    int  `json:"page"`
			Total   int  `json:"total"`
			HasNext bool `json:"has_next"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, 2, body.Meta.Page)
	assert.Equal(t, 45, body.Meta.Total)
	assert.True(t, body.Meta.HasNext)
}

func TestListJobsHandler_BadFilters(t *testing.T) {
	svc := &fakeJobService{}
	router := testRouter(svc, uuid.New())

	for name, query := range map[string]string{
		"bad owner uuid":  "?owner=xyz",
		"bad bidder uuid": "?bidder=xyz",
		"unknown status":  "?status=bogus",
	} {
		t.Run(name, func(t *testing.T) {
			w := doRequest(t, router, "GET", "/jobs"+query, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestUpdateJobHandler_SelectsBid(t *testing.T) {
	svc := &fakeJobService{job: sampleJob()}
	router := testRouter(svc, uuid.New())
	bidder := uuid.New()

	w := doRequest(t, router, "PATCH", "/jobs/"+uuid.NewString(),
		`{"selected_bid": "`+bidder.String()+`"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.gotPatch.SelectedBid)
	assert.Equal(t, bidder, *svc.gotPatch.SelectedBid)
}

func TestUpdateJobHandler_StateConflict(t *testing.T) {
	svc := &fakeJobService{err: &bidding.StateConflictError{
		Current:   models.JobCancelled,
		Requested: models.JobCompleted,
	}}
	router := testRouter(svc, uuid.New())

	w := doRequest(t, router, "PATCH", "/jobs/"+uuid.NewString(), `{"status": "completed"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "STATE_CONFLICT", errorCode(t, w))

	var body struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "cancelled", body.Error.Details["current"])
	assert.Equal(t, "completed", body.Error.Details["requested"])
}

func TestDeleteJobHandler(t *testing.T) {
	svc := &fakeJobService{}
	router := testRouter(svc, uuid.New())

	w := doRequest(t, router, "DELETE", "/jobs/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusOK, w.Code)
}

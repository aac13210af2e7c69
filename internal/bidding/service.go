package bidding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tradebid/tradebid/internal/cache"
	"github.com/tradebid/tradebid/internal/store"
	"github.com/tradebid/tradebid/pkg/models"
)

// ErrUserNotFound is returned when a referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")

const jobCacheTTL = 30 * time.Second

// Store is the persistence boundary the engine drives. No component in
// this package talks to storage except through it.
type Store interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	SaveJob(ctx context.Context, job *models.Job) error
	DeleteJob(ctx context.Context, id uuid.UUID) error
	ListJobs(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error)
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Cache is the subset of the cache layer the service uses for job read
// caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Service owns the load-apply-save cycle for job aggregates. Every
// mutating operation takes the per-job lock, applies the pure engine
// functions, and persists the result atomically.
type Service struct {
	store Store
	cache Cache
	now   func() time.Time
	locks *jobLocks
}

// NewService creates a Service. now may be nil, in which case time.Now
// is used.
func NewService(s Store, c Cache, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: s, cache: c, now: now, locks: newJobLocks()}
}

// CreateJob validates params, checks the owner exists, and persists a
// fresh aggregate.
func (s *Service) CreateJob(ctx context.Context, params NewJobParams) (*models.Job, error) {
	if err := s.requireUser(ctx, params.OwnerID); err != nil {
		return nil, err
	}

	job, err := NewJob(params, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return projectJob(job), nil
}

// GetJob returns a job with lazy expiry applied. If the read flips the
// job to expired, the change is persisted before returning.
func (s *Service) GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	if job, ok := s.cachedJob(ctx, jobID); ok {
		return projectJob(job), nil
	}

	unlock := s.locks.lock(jobID)
	defer unlock()

	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if ApplyExpiry(job, s.now()) {
		if err := s.saveJob(ctx, job); err != nil {
			return nil, err
		}
	}
	s.cacheJob(ctx, job)
	return projectJob(job), nil
}

// ListJobs returns jobs matching the filter. Expiry is applied to the
// returned view only; persisting it is left to per-job reads.
func (s *Service) ListJobs(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error) {
	jobs, total, err := s.store.ListJobs(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	now := s.now()
	out := make([]*models.Job, len(jobs))
	for i, job := range jobs {
		view := job.Clone()
		ApplyExpiry(view, now)
		SortApplicantsByAmount(view)
		out[i] = view
	}
	return out, total, nil
}

// UpdateJob applies a client patch under the job lock. A guard failure
// leaves the aggregate unmodified, except that an expiry triggered by
// the read itself is still persisted.
func (s *Service) UpdateJob(ctx context.Context, jobID uuid.UUID, patch JobPatch) (*models.Job, error) {
	unlock := s.locks.lock(jobID)
	defer unlock()

	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	expired := ApplyExpiry(job, s.now())

	updated, err := ApplyJobPatch(job, patch, s.now())
	if err != nil {
		if expired {
			s.persistExpiry(ctx, job)
		}
		return nil, err
	}
	if err := s.saveJob(ctx, updated); err != nil {
		return nil, err
	}
	return projectJob(updated), nil
}

// SubmitBid appends a provider's bid to the ledger. The bidder's
// existence is checked before the aggregate lock is acquired.
func (s *Service) SubmitBid(ctx context.Context, jobID, userID uuid.UUID, amount float64) (*models.Job, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(jobID)
	defer unlock()

	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	expired := ApplyExpiry(job, s.now())

	updated, err := SubmitBid(job, userID, amount, s.now())
	if err != nil {
		if expired {
			s.persistExpiry(ctx, job)
		}
		return nil, err
	}
	if err := s.saveJob(ctx, updated); err != nil {
		return nil, err
	}
	return projectJob(updated), nil
}

// UpdateBid changes an existing bid's amount and/or status under the
// job lock.
func (s *Service) UpdateBid(ctx context.Context, jobID, userID uuid.UUID, upd BidUpdate) (*models.Job, error) {
	unlock := s.locks.lock(jobID)
	defer unlock()

	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	expired := ApplyExpiry(job, s.now())

	updated, err := UpdateBid(job, userID, upd, s.now())
	if err != nil {
		if expired {
			s.persistExpiry(ctx, job)
		}
		return nil, err
	}
	if err := s.saveJob(ctx, updated); err != nil {
		return nil, err
	}
	return projectJob(updated), nil
}

// DeleteJob removes a job unconditionally, outside the state machine's
// guard logic.
func (s *Service) DeleteJob(ctx context.Context, jobID uuid.UUID) error {
	unlock := s.locks.lock(jobID)
	defer unlock()

	if err := s.store.DeleteJob(ctx, jobID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrJobNotFound
		}
		return fmt.Errorf("delete job: %w", err)
	}
	s.invalidate(ctx, jobID)
	return nil
}

// --- internals ---

func (s *Service) requireUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}

func (s *Service) loadJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("load job: %w", err)
	}
	return job, nil
}

func (s *Service) saveJob(ctx context.Context, job *models.Job) error {
	if err := s.store.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	s.invalidate(ctx, job.ID)
	return nil
}

// persistExpiry saves a lazily-detected expiry even when the request
// that surfaced it fails its own guards.
func (s *Service) persistExpiry(ctx context.Context, job *models.Job) {
	if err := s.saveJob(ctx, job); err != nil {
		slog.Warn("persist lazy expiry failed", "job_id", job.ID, "error", err)
	}
}

func (s *Service) cachedJob(ctx context.Context, jobID uuid.UUID) (*models.Job, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, cache.JobKey(jobID))
	if err != nil || !ok {
		return nil, false
	}
	var job models.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, false
	}
	// A cached copy that has passed its end date while still in an
	// expirable status needs the locked read path so the expiry is
	// persisted.
	switch job.Status {
	case models.JobAvailable, models.JobAccepted, models.JobAssigned:
		if Expired(job.EndDate, s.now()) {
			return nil, false
		}
	}
	return &job, true
}

func (s *Service) cacheJob(ctx context.Context, job *models.Job) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.JobKey(job.ID), raw, jobCacheTTL); err != nil {
		slog.Debug("cache job failed", "job_id", job.ID, "error", err)
	}
}

func (s *Service) invalidate(ctx context.Context, jobID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.JobKey(jobID)); err != nil {
		slog.Debug("cache invalidate failed", "job_id", jobID, "error", err)
	}
}

// projectJob is the read-time projection: applicants sorted by
// ascending amount on a copy, stored order untouched.
func projectJob(job *models.Job) *models.Job {
	view := job.Clone()
	SortApplicantsByAmount(view)
	return view
}

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tradebid/tradebid/pkg/models"
)

var (
	ErrNotFound        = errors.New("resource not found")
	ErrDuplicateKey    = errors.New("duplicate key violation")
	ErrVersionConflict = errors.New("aggregate version conflict")
)

// Store is the data access interface. All database operations go
// through here. Job aggregates (job row + applicant rows) are loaded
// and saved as a unit; SaveJob enforces optimistic versioning.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	SaveJob(ctx context.Context, job *models.Job) error
	DeleteJob(ctx context.Context, id uuid.UUID) error
	ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error)
}

// JobFilter narrows and pages a job listing. Zero values mean "no
// constraint".
type JobFilter struct {
	OwnerID  uuid.UUID        // jobs posted by this client
	BidderID uuid.UUID        // jobs this provider has bid on
	Status   models.JobStatus // exact status match
	Sort     string           // "price" or "created" (default)
	Page     int
	Limit    int
}

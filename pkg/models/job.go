package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle status of a Job. Transitions between
// statuses are governed by the bidding engine; nothing else may change
// a job's status.
type JobStatus string

const (
	JobAvailable  JobStatus = "available"
	JobAccepted   JobStatus = "accepted"
	JobAssigned   JobStatus = "assigned"
	JobInProgress JobStatus = "in-progress"
	JobCompleted  JobStatus = "completed"
	JobExpired    JobStatus = "expired"
	JobCancelled  JobStatus = "cancelled"
)

// ValidJobStatus reports whether s is a known job status.
func ValidJobStatus(s JobStatus) bool {
	switch s {
	case JobAvailable, JobAccepted, JobAssigned, JobInProgress,
		JobCompleted, JobExpired, JobCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is permitted from s.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobExpired || s == JobCancelled
}

// BidStatus is the lifecycle status of a single Bid.
type BidStatus string

const (
	BidSubmitted BidStatus = "submitted"
	BidAccepted  BidStatus = "accepted"
	BidAssigned  BidStatus = "assigned"
	BidStale     BidStatus = "stale"
	BidRejected  BidStatus = "rejected"
	BidWithdrawn BidStatus = "withdrawn"
)

// ValidBidStatus reports whether s is a known bid status.
func ValidBidStatus(s BidStatus) bool {
	switch s {
	case BidSubmitted, BidAccepted, BidAssigned, BidStale, BidRejected, BidWithdrawn:
		return true
	default:
		return false
	}
}

// Terminal reports whether s is a terminal bid status. Terminal bids
// only re-enter the ledger through explicit resubmission.
func (s BidStatus) Terminal() bool {
	return s == BidRejected || s == BidWithdrawn
}

// JobType categorizes the engagement a client is offering.
type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeTemporary  JobType = "temporary"
	JobTypeVolunteer  JobType = "volunteer"
	JobTypeInternship JobType = "internship"
)

// ValidJobType reports whether t is a known job type.
func ValidJobType(t JobType) bool {
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeContract,
		JobTypeTemporary, JobTypeVolunteer, JobTypeInternship:
		return true
	default:
		return false
	}
}

// Bid is one service provider's offer on a Job. Bids are never deleted;
// history is retained through status.
type Bid struct {
	UserID    uuid.UUID `db:"user_id"    json:"user_id"`
	Amount    float64   `db:"amount"     json:"amount"`
	Status    BidStatus `db:"status"     json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Job is the aggregate root: the job posting plus its full bid ledger.
// A Job and its Applicants are loaded and persisted as a unit.
type Job struct {
	ID          uuid.UUID  `db:"id"           json:"id"`
	Name        string     `db:"name"         json:"name"`
	Description string     `db:"description"  json:"description,omitempty"`
	ServiceName string     `db:"service_name" json:"service_name,omitempty"`
	Type        JobType    `db:"type"         json:"type"`
	Location    Location   `db:"-"            json:"location"`
	Duration    string     `db:"duration"     json:"duration,omitempty"`
	StartDate   time.Time  `db:"start_date"   json:"start_date"`
	EndDate     time.Time  `db:"end_date"     json:"end_date"`
	Price       float64    `db:"price"        json:"price"`
	OwnerID     uuid.UUID  `db:"owner_id"     json:"owner_id"`
	Status      JobStatus  `db:"status"       json:"status"`
	SelectedBid *uuid.UUID `db:"selected_bid" json:"selected_bid,omitempty"`
	Applicants  []Bid      `db:"-"            json:"applicants"`

	// Version is the optimistic-concurrency counter checked at save.
	Version   int64     `db:"version"    json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy of the aggregate. The bidding engine
// mutates a clone so that a failed guard leaves the caller's copy
// untouched.
func (j *Job) Clone() *Job {
	c := *j
	if j.SelectedBid != nil {
		id := *j.SelectedBid
		c.SelectedBid = &id
	}
	c.Applicants = make([]Bid, len(j.Applicants))
	copy(c.Applicants, j.Applicants)
	return &c
}

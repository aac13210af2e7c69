// Package bidding implements the job/bid lifecycle engine: the job
// state machine, the bid ledger, price reconciliation, bid selection
// and lazy expiry. All functions in this file are pure; they operate on
// a clone of the aggregate and either return the fully-updated clone or
// an error with the caller's copy untouched.
package bidding

import (
	"time"

	"github.com/google/uuid"
	"github.com/tradebid/tradebid/pkg/models"
)

// NewJobParams carries the validated input for creating a job.
type NewJobParams struct {
	Name        string
	Description string
	ServiceName string
	Type        models.JobType
	Location    models.Location
	Duration    string
	StartDate   time.Time
	EndDate     time.Time
	Price       float64
	OwnerID     uuid.UUID
}

// JobPatch is a partial update to a job. Nil fields are left unchanged.
// Price, SelectedBid and Status run through the full guard sequence;
// the remaining fields are applied only after every guard passes.
type JobPatch struct {
	Name        *string
	Description *string
	ServiceName *string
	Type        *models.JobType
	Location    *models.Location
	Duration    *string
	StartDate   *time.Time
	EndDate     *time.Time
	Price       *float64
	Status      *models.JobStatus
	SelectedBid *uuid.UUID
}

// BidUpdate is a partial update to an existing bid.
type BidUpdate struct {
	Amount *float64
	Status *models.BidStatus
}

// NewJob validates params and returns a fresh aggregate in status
// available with an empty ledger.
func NewJob(params NewJobParams, now time.Time) (*models.Job, error) {
	if params.Name == "" {
		return nil, validationf("job name is required")
	}
	if !models.ValidJobType(params.Type) {
		return nil, validationf("invalid job type %q", params.Type)
	}
	if params.Price <= 0 {
		return nil, validationf("job price must be positive")
	}
	if params.OwnerID == uuid.Nil {
		return nil, validationf("job owner is required")
	}
	if !params.StartDate.IsZero() && !params.EndDate.IsZero() && params.EndDate.Before(params.StartDate) {
		return nil, validationf("job end date must not precede start date")
	}

	return &models.Job{
		ID:          uuid.New(),
		Name:        params.Name,
		Description: params.Description,
		ServiceName: params.ServiceName,
		Type:        params.Type,
		Location:    params.Location,
		Duration:    params.Duration,
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		Price:       params.Price,
		OwnerID:     params.OwnerID,
		Status:      models.JobAvailable,
		Applicants:  []models.Bid{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyJobPatch runs a client-requested job update through the guard
// sequence: price reconciliation first, then bid selection, then the
// status transition, then plain field updates. Either the whole patch
// commits (including cascades) or none of it does.
func ApplyJobPatch(job *models.Job, patch JobPatch, now time.Time) (*models.Job, error) {
	if err := validatePatch(job, patch); err != nil {
		return nil, err
	}

	clone := job.Clone()

	// Price reconciliation runs before any same-call selection so a
	// price drop can un-stale a bid that is then selected immediately.
	if patch.Price != nil {
		clone.Price = *patch.Price
		reconcilePrice(clone, clone.Price, now)
	}

	if patch.SelectedBid != nil {
		if err := selectBid(clone, *patch.SelectedBid, now); err != nil {
			return nil, err
		}
	}

	if patch.Status != nil {
		target := *patch.Status
		// Selection already moved the job to accepted; a matching
		// explicit status in the same patch is not a second transition.
		if !(patch.SelectedBid != nil && target == models.JobAccepted) {
			if err := transitionJob(clone, target, now); err != nil {
				return nil, err
			}
		}
	}

	applyFields(clone, patch)
	clone.UpdatedAt = now
	return clone, nil
}

// SubmitBid appends a new bid in status submitted. Each user gets at
// most one bid per job; resubmission after withdrawal goes through
// UpdateBid instead.
func SubmitBid(job *models.Job, userID uuid.UUID, amount float64, now time.Time) (*models.Job, error) {
	if userID == uuid.Nil {
		return nil, validationf("bidder user id is required")
	}
	if amount <= 0 {
		return nil, validationf("bid amount must be positive")
	}

	clone := job.Clone()
	l := newLedger(clone)

	if l.find(userID) != nil {
		return nil, ErrDuplicateBid
	}
	if amount > clone.Price {
		return nil, ErrBidExceedsPrice
	}
	if clone.Status != models.JobAvailable && clone.Status != models.JobAccepted {
		return nil, ErrJobNotBiddable
	}

	l.append(models.Bid{
		UserID:    userID,
		Amount:    amount,
		Status:    models.BidSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	})
	clone.UpdatedAt = now
	return clone, nil
}

// UpdateBid changes a bid's amount, status, or both. Status moves are
// limited to the three bidder-requestable targets: assigned (claim the
// job after selection), withdrawn, and submitted (resubmission).
func UpdateBid(job *models.Job, userID uuid.UUID, upd BidUpdate, now time.Time) (*models.Job, error) {
	if upd.Amount == nil && upd.Status == nil {
		return nil, validationf("bid update requires an amount or a status")
	}
	if upd.Amount != nil && *upd.Amount <= 0 {
		return nil, validationf("bid amount must be positive")
	}
	if upd.Status != nil {
		switch *upd.Status {
		case models.BidSubmitted, models.BidAssigned, models.BidWithdrawn:
		default:
			return nil, validationf("bid status %q cannot be requested", *upd.Status)
		}
	}

	clone := job.Clone()
	l := newLedger(clone)

	bid := l.find(userID)
	if bid == nil {
		return nil, ErrBidNotFound
	}

	if upd.Amount != nil {
		switch bid.Status {
		case models.BidAccepted, models.BidAssigned, models.BidRejected, models.BidStale:
			return nil, ErrBidLocked
		}
		if *upd.Amount > clone.Price {
			return nil, ErrBidExceedsPrice
		}
		bid.Amount = *upd.Amount
		bid.UpdatedAt = now
	}

	if upd.Status != nil {
		var err error
		switch *upd.Status {
		case models.BidAssigned:
			err = assignBid(clone, bid, now)
		case models.BidWithdrawn:
			err = withdrawBid(clone, bid, now)
		case models.BidSubmitted:
			err = resubmitBid(clone, bid, now)
		}
		if err != nil {
			return nil, err
		}
	}

	clone.UpdatedAt = now
	return clone, nil
}

// assignBid is the provider-side half of the selection handshake: the
// bidder whose bid the client accepted claims the job.
func assignBid(job *models.Job, bid *models.Bid, now time.Time) error {
	if job.Status != models.JobAccepted || job.SelectedBid == nil || *job.SelectedBid != bid.UserID {
		return ErrAssignmentNotEligible
	}
	bid.Status = models.BidAssigned
	bid.UpdatedAt = now
	job.Status = models.JobAssigned
	return nil
}

func withdrawBid(job *models.Job, bid *models.Bid, now time.Time) error {
	switch job.Status {
	case models.JobAvailable, models.JobAccepted, models.JobAssigned:
	default:
		return ErrWithdrawalNotEligible
	}
	if bid.Status.Terminal() {
		return ErrWithdrawalNotEligible
	}

	selected := job.SelectedBid != nil && *job.SelectedBid == bid.UserID
	if selected && Expired(job.EndDate, now) {
		// The reopen the withdrawal would trigger is pre-empted by
		// expiry: the job expires and every live bid, including this
		// one, is rejected.
		expireJob(job, now)
		return nil
	}

	bid.Status = models.BidWithdrawn
	bid.UpdatedAt = now
	if selected {
		job.SelectedBid = nil
		job.Status = models.JobAvailable
	}
	return nil
}

func resubmitBid(job *models.Job, bid *models.Bid, now time.Time) error {
	if job.SelectedBid != nil && *job.SelectedBid == bid.UserID {
		return ErrCannotResubmitSelected
	}
	if job.Status != models.JobAvailable && job.Status != models.JobAccepted {
		return ErrJobNotBiddable
	}
	// A bid resubmitted over the current price lands directly in stale,
	// the same place the reconciler would put it.
	if bid.Amount > job.Price {
		bid.Status = models.BidStale
	} else {
		bid.Status = models.BidSubmitted
	}
	bid.UpdatedAt = now
	return nil
}

// selectBid implements client-side bid selection and re-selection.
func selectBid(job *models.Job, userID uuid.UUID, now time.Time) error {
	if job.Status != models.JobAvailable && job.Status != models.JobAccepted {
		return ErrJobNotSelectable
	}

	l := newLedger(job)
	bid := l.find(userID)
	if bid == nil {
		return ErrUserNotApplicant
	}
	switch bid.Status {
	case models.BidAssigned:
		return wrapNotSelectable("bid is already assigned")
	case models.BidStale:
		return wrapNotSelectable("bid is stale: amount exceeds the job price")
	case models.BidWithdrawn:
		return wrapNotSelectable("bid has been withdrawn")
	case models.BidRejected:
		return wrapNotSelectable("bid has been rejected")
	}

	// Re-selection: whichever other bid holds accepted reverts to
	// submitted so at most one bid is ever accepted or assigned.
	for i := range job.Applicants {
		other := &job.Applicants[i]
		if other.UserID != userID && other.Status == models.BidAccepted {
			other.Status = models.BidSubmitted
			other.UpdatedAt = now
		}
	}

	bid.Status = models.BidAccepted
	bid.UpdatedAt = now
	job.Status = models.JobAccepted
	job.SelectedBid = &userID
	return nil
}

// transitionJob is the single transition table for client-requested job
// status changes. Accepted is only reachable through selection and
// assigned only through the bidder's assignment request; expired is
// time-driven. Everything else is a StateConflict.
func transitionJob(job *models.Job, target models.JobStatus, now time.Time) error {
	current := job.Status

	switch target {
	case models.JobAvailable:
		if current != models.JobAccepted && current != models.JobAssigned {
			return stateConflict(current, target)
		}
		if Expired(job.EndDate, now) {
			expireJob(job, now)
			return nil
		}
		reopenJob(job, now)

	case models.JobInProgress:
		if current != models.JobAssigned || job.SelectedBid == nil {
			return stateConflict(current, target)
		}
		job.Status = models.JobInProgress

	case models.JobCompleted:
		if current != models.JobInProgress {
			return stateConflict(current, target)
		}
		job.Status = models.JobCompleted

	case models.JobCancelled:
		switch current {
		case models.JobAvailable, models.JobAccepted, models.JobAssigned:
		default:
			return stateConflict(current, target)
		}
		job.Status = models.JobCancelled
		job.SelectedBid = nil
		rejectNonTerminalBids(job, now)

	default:
		return stateConflict(current, target)
	}
	return nil
}

// reopenJob returns an accepted or assigned job to the open market. The
// previously selected bid goes back to submitted so it stays eligible
// for re-selection.
func reopenJob(job *models.Job, now time.Time) {
	if job.SelectedBid != nil {
		l := newLedger(job)
		if bid := l.find(*job.SelectedBid); bid != nil {
			switch bid.Status {
			case models.BidAccepted, models.BidAssigned:
				bid.Status = models.BidSubmitted
				bid.UpdatedAt = now
			}
		}
	}
	job.SelectedBid = nil
	job.Status = models.JobAvailable
}

func validatePatch(job *models.Job, patch JobPatch) error {
	if patch.Name != nil && *patch.Name == "" {
		return validationf("job name cannot be empty")
	}
	if patch.Type != nil && !models.ValidJobType(*patch.Type) {
		return validationf("invalid job type %q", *patch.Type)
	}
	if patch.Price != nil && *patch.Price <= 0 {
		return validationf("job price must be positive")
	}
	if patch.Status != nil && !models.ValidJobStatus(*patch.Status) {
		return validationf("invalid job status %q", *patch.Status)
	}

	start, end := job.StartDate, job.EndDate
	if patch.StartDate != nil {
		start = *patch.StartDate
	}
	if patch.EndDate != nil {
		end = *patch.EndDate
	}
	if (patch.StartDate != nil || patch.EndDate != nil) &&
		!start.IsZero() && !end.IsZero() && end.Before(start) {
		return validationf("job end date must not precede start date")
	}
	return nil
}

func applyFields(job *models.Job, patch JobPatch) {
	if patch.Name != nil {
		job.Name = *patch.Name
	}
	if patch.Description != nil {
		job.Description = *patch.Description
	}
	if patch.ServiceName != nil {
		job.ServiceName = *patch.ServiceName
	}
	if patch.Type != nil {
		job.Type = *patch.Type
	}
	if patch.Location != nil {
		job.Location = *patch.Location
	}
	if patch.Duration != nil {
		job.Duration = *patch.Duration
	}
	if patch.StartDate != nil {
		job.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		job.EndDate = *patch.EndDate
	}
}

func wrapNotSelectable(msg string) error {
	return &notSelectableError{msg: msg}
}

// notSelectableError carries a cause-specific message while still
// matching ErrBidNotSelectable under errors.Is.
type notSelectableError struct {
	msg string
}

func (e *notSelectableError) Error() string { return e.msg }
func (e *notSelectableError) Unwrap() error { return ErrBidNotSelectable }

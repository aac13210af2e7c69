package bidding

import (
	"errors"
	"fmt"

	"github.com/tradebid/tradebid/pkg/models"
)

// Sentinel errors for guard failures. All are recoverable by the
// caller; every one of them leaves the aggregate unmodified.
var (
	ErrJobNotFound            = errors.New("job not found")
	ErrBidNotFound            = errors.New("bid not found")
	ErrDuplicateBid           = errors.New("user already has a bid on this job")
	ErrBidExceedsPrice        = errors.New("bid amount exceeds job price")
	ErrJobNotBiddable         = errors.New("job is not open for bidding")
	ErrJobNotSelectable       = errors.New("job is not open for bid selection")
	ErrUserNotApplicant       = errors.New("user is not an applicant on this job")
	ErrBidNotSelectable       = errors.New("bid cannot be selected")
	ErrBidLocked              = errors.New("bid amount cannot be changed in its current status")
	ErrAssignmentNotEligible  = errors.New("bid is not eligible for assignment")
	ErrWithdrawalNotEligible  = errors.New("bid is not eligible for withdrawal")
	ErrCannotResubmitSelected = errors.New("selected bid cannot be resubmitted")
)

// ValidationError reports malformed input, caught before any state is
// touched.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// StateConflictError reports a status transition that is illegal from
// the job's current status.
type StateConflictError struct {
	Current   models.JobStatus
	Requested models.JobStatus
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("illegal job status transition: %s -> %s", e.Current, e.Requested)
}

func stateConflict(current, requested models.JobStatus) error {
	return &StateConflictError{Current: current, Requested: requested}
}

package bidding

import (
	"time"

	"github.com/tradebid/tradebid/pkg/models"
)

// Expired reports whether a job's end date has passed. The end date is
// compared at day granularity: a job expires at the start of the day
// after its end date.
func Expired(endDate, now time.Time) bool {
	if endDate.IsZero() {
		return false
	}
	end := endDate.Truncate(24 * time.Hour)
	today := now.UTC().Truncate(24 * time.Hour)
	return end.Before(today)
}

// ApplyExpiry forces an overdue job into the expired status: the
// selected bid is cleared and every non-terminal bid is rejected.
// It reports whether the job was changed. Jobs already in a terminal
// or in-progress status are left alone; expiry only pre-empts states
// from which the job could still be reopened.
func ApplyExpiry(job *models.Job, now time.Time) bool {
	switch job.Status {
	case models.JobAvailable, models.JobAccepted, models.JobAssigned:
	default:
		return false
	}
	if !Expired(job.EndDate, now) {
		return false
	}
	expireJob(job, now)
	return true
}

func expireJob(job *models.Job, now time.Time) {
	job.Status = models.JobExpired
	job.SelectedBid = nil
	rejectNonTerminalBids(job, now)
	job.UpdatedAt = now
}

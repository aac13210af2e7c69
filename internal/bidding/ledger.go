package bidding

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tradebid/tradebid/pkg/models"
)

// ledger wraps a job's applicant list with a userID index. Bids keep
// submission order in the slice; lookups go through the map so the
// one-bid-per-user invariant is structural rather than re-checked by
// scanning.
type ledger struct {
	job    *models.Job
	byUser map[uuid.UUID]int
}

func newLedger(job *models.Job) *ledger {
	l := &ledger{job: job, byUser: make(map[uuid.UUID]int, len(job.Applicants))}
	for i := range job.Applicants {
		l.byUser[job.Applicants[i].UserID] = i
	}
	return l
}

func (l *ledger) find(userID uuid.UUID) *models.Bid {
	i, ok := l.byUser[userID]
	if !ok {
		return nil
	}
	return &l.job.Applicants[i]
}

func (l *ledger) append(bid models.Bid) {
	l.job.Applicants = append(l.job.Applicants, bid)
	l.byUser[bid.UserID] = len(l.job.Applicants) - 1
}

// reconcilePrice recomputes bid validity against a new price. Bids over
// the new price go stale; stale bids back within the price recover to
// submitted. Accepted, assigned, rejected and withdrawn bids are never
// touched.
func reconcilePrice(job *models.Job, newPrice float64, now time.Time) {
	for i := range job.Applicants {
		b := &job.Applicants[i]
		switch b.Status {
		case models.BidSubmitted:
			if b.Amount > newPrice {
				b.Status = models.BidStale
				b.UpdatedAt = now
			}
		case models.BidStale:
			if b.Amount <= newPrice {
				b.Status = models.BidSubmitted
				b.UpdatedAt = now
			}
		}
	}
}

// rejectNonTerminalBids cascades a job cancellation or expiry into the
// ledger. Already-terminal bids keep their history.
func rejectNonTerminalBids(job *models.Job, now time.Time) {
	for i := range job.Applicants {
		b := &job.Applicants[i]
		if !b.Status.Terminal() {
			b.Status = models.BidRejected
			b.UpdatedAt = now
		}
	}
}

// SortApplicantsByAmount orders a job's applicants by ascending bid
// amount. This is a read-time projection for display; stored order is
// submission order.
func SortApplicantsByAmount(job *models.Job) {
	sort.SliceStable(job.Applicants, func(i, k int) bool {
		return job.Applicants[i].Amount < job.Applicants[k].Amount
	})
}

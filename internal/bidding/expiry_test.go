package bidding

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradebid/tradebid/pkg/models"
)

func TestExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		endDate time.Time
		want    bool
	}{
		{"zero end date never expires", time.Time{}, false},
		{"end date yesterday", now.AddDate(0, 0, -1), true},
		{"end date last week", now.AddDate(0, 0, -7), true},
		{"end date today", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), false},
		{"end date later today", time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC), false},
		{"end date tomorrow", now.AddDate(0, 0, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expired(tt.endDate, now))
		})
	}
}

func TestApplyExpiry(t *testing.T) {
	job := newTestJob(t, 100)
	bidder := uuid.New()
	job = mustBid(t, job, bidder, 80)
	job, err := ApplyJobPatch(job, JobPatch{SelectedBid: &bidder}, testNow)
	require.NoError(t, err)

	job.EndDate = testNow.AddDate(0, 0, -1)
	changed := ApplyExpiry(job, testNow)

	assert.True(t, changed)
	assert.Equal(t, models.JobExpired, job.Status)
	assert.Nil(t, job.SelectedBid)
	assert.Equal(t, models.BidRejected, bidOf(t, job, bidder).Status)
}

func TestApplyExpiry_NotYetDue(t *testing.T) {
	job := newTestJob(t, 100)

	changed := ApplyExpiry(job, testNow)

	assert.False(t, changed)
	assert.Equal(t, models.JobAvailable, job.Status)
}

func TestApplyExpiry_OnlyPreemptsReopenableStatuses(t *testing.T) {
	for _, status := range []models.JobStatus{
		models.JobInProgress, models.JobCompleted,
		models.JobExpired, models.JobCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			job := newTestJob(t, 100)
			job.Status = status
			job.EndDate = testNow.AddDate(0, 0, -5)

			changed := ApplyExpiry(job, testNow)

			assert.False(t, changed)
			assert.Equal(t, status, job.Status)
		})
	}
}

func TestApplyExpiry_SparesTerminalBids(t *testing.T) {
	job := newTestJob(t, 100)
	live := uuid.New()
	withdrawn := uuid.New()
	job = mustBid(t, job, live, 80)
	job = mustBid(t, job, withdrawn, 70)
	var err error
	job, err = UpdateBid(job, withdrawn, BidUpdate{Status: bidStatusPtr(models.BidWithdrawn)}, testNow)
	require.NoError(t, err)

	job.EndDate = testNow.AddDate(0, 0, -1)
	require.True(t, ApplyExpiry(job, testNow))

	assert.Equal(t, models.BidRejected, bidOf(t, job, live).Status)
	assert.Equal(t, models.BidWithdrawn, bidOf(t, job, withdrawn).Status)
}

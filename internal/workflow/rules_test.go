package workflow

import (
	"testing"
	"time"

	"github.com/senyabanana/equipment-rental/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCheckBusinessRules(t *testing.T) {
	start := time.Date(2030, 1, 2, 8, 0, 0, 0, time.UTC)
	jobCompleted := models.StatusJobCompleted
	jobInProgress := models.StatusJobInProgress
	confirmed := models.StatusEquipmentConfirmed

	tests := []struct {
		name     string
		from     *models.ServiceRequestStatus
		to       models.ServiceRequestStatus
		snapshot RequestSnapshot
		want     []string
	}{
		{
			name: "deposit needs estimate",
			from: &confirmed,
			to:   models.StatusDepositRequested,
			want: []string{"Estimated cost is required before requesting a deposit"},
		},
		{
			name:     "deposit with estimate",
			from:     &confirmed,
			to:       models.StatusDepositRequested,
			snapshot: RequestSnapshot{EstimatedCost: decimal.NewNullDecimal(decimal.NewFromInt(950))},
		},
		{
			name: "scheduling needs start date",
			to:   models.StatusJobScheduled,
			want: []string{"Start date is required before scheduling the job"},
		},
		{
			name:     "scheduling with start date",
			to:       models.StatusJobScheduled,
			snapshot: RequestSnapshot{StartDate: &start},
		},
		{
			name: "invoice only after completion",
			from: &jobInProgress,
			to:   models.StatusInvoiced,
			want: []string{"Job must be completed before invoicing"},
		},
		{
			name: "invoice after completion",
			from: &jobCompleted,
			to:   models.StatusInvoiced,
		},
		{
			name: "payment received needs final payment",
			to:   models.StatusPaymentReceived,
			want: []string{"Final payment must be paid before marking payment received"},
		},
		{
			name: "deposit received needs deposit",
			to:   models.StatusDepositReceived,
			want: []string{"Deposit must be paid before marking deposit received"},
		},
		{
			name:     "deposit received when paid",
			to:       models.StatusDepositReceived,
			snapshot: RequestSnapshot{DepositPaid: true},
		},
		{
			name: "unconstrained status",
			to:   models.StatusUnderReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckBusinessRules(tt.from, tt.to, tt.snapshot))
		})
	}
}

func TestSnapshotOf(t *testing.T) {
	sr := &models.ServiceRequest{
		EstimatedCost: decimal.NewNullDecimal(decimal.NewFromInt(10)),
		DepositPaid:   true,
	}
	snapshot := SnapshotOf(sr)
	assert.Nil(t, snapshot.StartDate)
	assert.True(t, snapshot.EstimatedCost.Valid)
	assert.True(t, snapshot.DepositPaid)
	assert.False(t, snapshot.FinalPaid)

	sr.StartDate = time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	snapshot = SnapshotOf(sr)
	if assert.NotNil(t, snapshot.StartDate) {
		assert.Equal(t, sr.StartDate, *snapshot.StartDate)
	}
}

func TestJoinViolations(t *testing.T) {
	assert.Equal(t, "a; b", JoinViolations([]string{"a", "b"}))
	assert.Equal(t, "", JoinViolations(nil))
}

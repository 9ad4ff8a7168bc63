package workflow

import (
	"strings"
	"time"

	"github.com/senyabanana/equipment-rental/internal/models"

	"github.com/shopspring/decimal"
)

// RequestSnapshot - поля заявки, которые читают бизнес-правила.
type RequestSnapshot struct {
	EstimatedCost decimal.NullDecimal
	StartDate     *time.Time
	DepositPaid   bool
	FinalPaid     bool
}

// SnapshotOf собирает снимок из заявки.
func SnapshotOf(sr *models.ServiceRequest) RequestSnapshot {
	snapshot := RequestSnapshot{
		EstimatedCost: sr.EstimatedCost,
		DepositPaid:   sr.DepositPaid,
		FinalPaid:     sr.FinalPaid,
	}
	if !sr.StartDate.IsZero() {
		startDate := sr.StartDate
		snapshot.StartDate = &startDate
	}
	return snapshot
}

// CheckBusinessRules возвращает все нарушенные правила для перехода в статус to.
func CheckBusinessRules(from *models.ServiceRequestStatus, to models.ServiceRequestStatus, snapshot RequestSnapshot) []string {
	var violations []string

	switch to {
	case models.StatusDepositRequested:
		if !snapshot.EstimatedCost.Valid {
			violations = append(violations, "Estimated cost is required before requesting a deposit")
		}
	case models.StatusJobScheduled:
		if snapshot.StartDate == nil {
			violations = append(violations, "Start date is required before scheduling the job")
		}
	case models.StatusInvoiced:
		if from == nil || *from != models.StatusJobCompleted {
			violations = append(violations, "Job must be completed before invoicing")
		}
	case models.StatusPaymentReceived:
		if !snapshot.FinalPaid {
			violations = append(violations, "Final payment must be paid before marking payment received")
		}
	case models.StatusDepositReceived:
		if !snapshot.DepositPaid {
			violations = append(violations, "Deposit must be paid before marking deposit received")
		}
	}

	return violations
}

// JoinViolations склеивает причины в одно сообщение.
func JoinViolations(violations []string) string {
	return strings.Join(violations, "; ")
}

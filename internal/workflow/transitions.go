// Package workflow содержит чистую логику жизненного цикла заявки:
// таблицу переходов, матрицу прав ролей и бизнес-правила. Без ввода-вывода.
package workflow

import (
	"fmt"

	"github.com/senyabanana/equipment-rental/internal/models"
)

// statusTransitions - допустимые переходы статусов. Только для чтения.
var statusTransitions = map[models.ServiceRequestStatus][]models.ServiceRequestStatus{
	models.StatusSubmitted:          {models.StatusUnderReview, models.StatusCancelled},
	models.StatusUnderReview:        {models.StatusApproved, models.StatusRejected, models.StatusCancelled},
	models.StatusApproved:           {models.StatusOperatorMatching, models.StatusCancelled},
	models.StatusRejected:           {models.StatusSubmitted, models.StatusCancelled}, // повторная подача
	models.StatusOperatorMatching:   {models.StatusOperatorAssigned, models.StatusCancelled},
	models.StatusOperatorAssigned:   {models.StatusEquipmentChecking, models.StatusOperatorMatching, models.StatusCancelled},
	models.StatusEquipmentChecking:  {models.StatusEquipmentConfirmed, models.StatusOperatorMatching, models.StatusCancelled},
	models.StatusEquipmentConfirmed: {models.StatusDepositRequested, models.StatusCancelled},
	models.StatusDepositRequested:   {models.StatusDepositPending, models.StatusCancelled},
	models.StatusDepositPending:     {models.StatusDepositReceived, models.StatusCancelled},
	models.StatusDepositReceived:    {models.StatusJobScheduled, models.StatusCancelled},
	models.StatusJobScheduled:       {models.StatusJobInProgress, models.StatusCancelled},
	models.StatusJobInProgress:      {models.StatusJobCompleted, models.StatusCancelled},
	models.StatusJobCompleted:       {models.StatusInvoiced},
	models.StatusInvoiced:           {models.StatusPaymentPending},
	models.StatusPaymentPending:     {models.StatusPaymentReceived},
	models.StatusPaymentReceived:    {models.StatusClosed},
	models.StatusCancelled:          {},
	models.StatusClosed:             {},
}

// TransitionResult - итог проверки перехода.
type TransitionResult struct {
	FromStatus    *models.ServiceRequestStatus `json:"fromStatus"`
	ToStatus      models.ServiceRequestStatus  `json:"toStatus"`
	IsValid       bool                         `json:"isValid"`
	HasPermission bool                         `json:"hasPermission"`
	Reason        string                       `json:"reason,omitempty"`
}

// Allowed сообщает, можно ли использовать переход дальше.
func (r TransitionResult) Allowed() bool {
	return r.IsValid && r.HasPermission
}

// IsKnownStatus проверяет, что статус есть в таблице переходов.
func IsKnownStatus(status models.ServiceRequestStatus) bool {
	_, ok := statusTransitions[status]
	return ok
}

// IsTerminal сообщает, что из статуса нет переходов.
func IsTerminal(status models.ServiceRequestStatus) bool {
	next, ok := statusTransitions[status]
	return ok && len(next) == 0
}

// ValidNextStatuses возвращает копию списка допустимых следующих статусов.
func ValidNextStatuses(current models.ServiceRequestStatus) ([]models.ServiceRequestStatus, bool) {
	next, ok := statusTransitions[current]
	if !ok {
		return nil, false
	}
	out := make([]models.ServiceRequestStatus, len(next))
	copy(out, next)
	return out, true
}

// ValidateStatusTransition проверяет переход только по таблице.
// from == nil означает создание заявки.
func ValidateStatusTransition(from *models.ServiceRequestStatus, to models.ServiceRequestStatus) TransitionResult {
	result := TransitionResult{FromStatus: from, ToStatus: to}

	if from == nil {
		result.IsValid = to == models.StatusSubmitted
		if !result.IsValid {
			result.Reason = "Initial status must be SUBMITTED"
		}
		return result
	}

	next, ok := statusTransitions[*from]
	if !ok {
		result.Reason = fmt.Sprintf("Invalid source status: %s", *from)
		return result
	}

	for _, candidate := range next {
		if candidate == to {
			result.IsValid = true
			return result
		}
	}
	result.Reason = fmt.Sprintf("Cannot transition from %s to %s", *from, to)
	return result
}

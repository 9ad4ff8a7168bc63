package workflow

import (
	"fmt"

	"github.com/senyabanana/equipment-rental/internal/models"
)

// ValidateTransition проверяет переход по таблице, затем права роли.
// Бизнес-правила проверяются отдельно, им нужен снимок заявки.
func ValidateTransition(from *models.ServiceRequestStatus, to models.ServiceRequestStatus, role models.UserRole) TransitionResult {
	result := ValidateStatusTransition(from, to)
	if !result.IsValid {
		result.HasPermission = false
		return result
	}

	result.HasPermission = HasTransitionPermission(role, from, to)
	if !result.HasPermission {
		result.Reason = fmt.Sprintf("Role %s is not permitted to transition to %s", role, to)
	}
	return result
}

// AvailableTransitions перечисляет следующие статусы с отметкой о правах роли.
func AvailableTransitions(current models.ServiceRequestStatus, role models.UserRole) ([]models.TransitionOption, bool) {
	next, ok := ValidNextStatuses(current)
	if !ok {
		return nil, false
	}
	options := make([]models.TransitionOption, 0, len(next))
	for _, status := range next {
		options = append(options, models.TransitionOption{
			Status:        status,
			HasPermission: HasTransitionPermission(role, &current, status),
		})
	}
	return options, true
}

package workflow

import "github.com/senyabanana/equipment-rental/internal/models"

// rolePermission - набор целевых статусов, доступных роли.
type rolePermission struct {
	anyStatus   bool
	initialOnly bool
	statuses    map[models.ServiceRequestStatus]struct{}
}

func statusSet(statuses ...models.ServiceRequestStatus) map[models.ServiceRequestStatus]struct{} {
	set := make(map[models.ServiceRequestStatus]struct{}, len(statuses))
	for _, status := range statuses {
		set[status] = struct{}{}
	}
	return set
}

func allStatusesExcept(excluded ...models.ServiceRequestStatus) map[models.ServiceRequestStatus]struct{} {
	skip := statusSet(excluded...)
	var kept []models.ServiceRequestStatus
	for _, status := range models.AllStatuses {
		if _, ok := skip[status]; !ok {
			kept = append(kept, status)
		}
	}
	return statusSet(kept...)
}

// rolePermissions - явная таблица прав без наследования между ролями.
var rolePermissions = map[models.UserRole]rolePermission{
	models.RoleAdmin: {
		anyStatus: true,
	},
	models.RoleManager: {
		// финальные платёжные статусы выставляет только администратор или система
		statuses: allStatusesExcept(models.StatusPaymentPending, models.StatusPaymentReceived, models.StatusClosed),
	},
	models.RoleOperator: {
		statuses: statusSet(
			models.StatusOperatorAssigned,
			models.StatusEquipmentChecking,
			models.StatusEquipmentConfirmed,
			models.StatusJobScheduled,
			models.StatusJobInProgress,
			models.StatusJobCompleted,
		),
	},
	models.RoleUser: {
		initialOnly: true,
		statuses:    statusSet(models.StatusSubmitted),
	},
}

// HasTransitionPermission проверяет, может ли роль перевести заявку в статус to.
func HasTransitionPermission(role models.UserRole, from *models.ServiceRequestStatus, to models.ServiceRequestStatus) bool {
	perm, ok := rolePermissions[role]
	if !ok {
		return false
	}
	if perm.anyStatus {
		return true
	}
	if perm.initialOnly && from != nil {
		return false
	}
	_, allowed := perm.statuses[to]
	return allowed
}

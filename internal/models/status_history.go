package models

import "time"

// StatusHistoryEntry представляет запись журнала смены статусов заявки.
type StatusHistoryEntry struct {
	ID               string                `json:"id"`
	ServiceRequestID string                `json:"serviceRequestId"`
	FromStatus       *ServiceRequestStatus `json:"fromStatus"`
	ToStatus         ServiceRequestStatus  `json:"toStatus"`
	ChangedBy        string                `json:"changedBy"`
	Reason           string                `json:"reason,omitempty"`
	Notes            string                `json:"notes,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
}

// StatusChangeRequest представляет структуру запроса на смену статуса.
type StatusChangeRequest struct {
	NewStatus ServiceRequestStatus `json:"newStatus" validate:"required"`
	Reason    string               `json:"reason" validate:"max=500"`
	Notes     string               `json:"notes" validate:"max=1000"`
}

// TransitionOption описывает доступный переход и право роли на него.
type TransitionOption struct {
	Status        ServiceRequestStatus `json:"status"`
	HasPermission bool                 `json:"hasPermission"`
}

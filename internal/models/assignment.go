package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssignmentPending - статус нового назначения оператора.
const AssignmentPending = "pending"

// UserAssignment представляет назначение оператора на заявку.
type UserAssignment struct {
	ID               string              `json:"id"`
	ServiceRequestID string              `json:"serviceRequestId"`
	OperatorID       string              `json:"operatorId"`
	Status           string              `json:"status"`
	Rate             decimal.NullDecimal `json:"rate"`
	EstimatedHours   *int                `json:"estimatedHours,omitempty"`
	AssignedAt       time.Time           `json:"assignedAt"`
}

// AssignOperatorRequest представляет структуру запроса на назначение оператора.
type AssignOperatorRequest struct {
	OperatorID     string              `json:"operatorId" validate:"required"`
	Rate           decimal.NullDecimal `json:"rate"`
	EstimatedHours *int                `json:"estimatedHours" validate:"omitempty,gt=0"`
}

// AssignmentResult - ответ на успешное назначение.
type AssignmentResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

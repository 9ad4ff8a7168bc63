package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	ServiceRequestStatus string // Статус заявки
	EquipmentCategory    string // Категория техники
	DurationType         string // Тип длительности аренды
	RateType             string // Тип тарифа
	TransportOption      string // Способ доставки техники
)

const (
	StatusSubmitted          ServiceRequestStatus = "SUBMITTED"
	StatusUnderReview        ServiceRequestStatus = "UNDER_REVIEW"
	StatusApproved           ServiceRequestStatus = "APPROVED"
	StatusRejected           ServiceRequestStatus = "REJECTED"
	StatusOperatorMatching   ServiceRequestStatus = "OPERATOR_MATCHING"
	StatusOperatorAssigned   ServiceRequestStatus = "OPERATOR_ASSIGNED"
	StatusEquipmentChecking  ServiceRequestStatus = "EQUIPMENT_CHECKING"
	StatusEquipmentConfirmed ServiceRequestStatus = "EQUIPMENT_CONFIRMED"
	StatusDepositRequested   ServiceRequestStatus = "DEPOSIT_REQUESTED"
	StatusDepositPending     ServiceRequestStatus = "DEPOSIT_PENDING"
	StatusDepositReceived    ServiceRequestStatus = "DEPOSIT_RECEIVED"
	StatusJobScheduled       ServiceRequestStatus = "JOB_SCHEDULED"
	StatusJobInProgress      ServiceRequestStatus = "JOB_IN_PROGRESS"
	StatusJobCompleted       ServiceRequestStatus = "JOB_COMPLETED"
	StatusInvoiced           ServiceRequestStatus = "INVOICED"
	StatusPaymentPending     ServiceRequestStatus = "PAYMENT_PENDING"
	StatusPaymentReceived    ServiceRequestStatus = "PAYMENT_RECEIVED"
	StatusClosed             ServiceRequestStatus = "CLOSED"
	StatusCancelled          ServiceRequestStatus = "CANCELLED"
)

const (
	SkidSteersTrackLoaders EquipmentCategory = "SKID_STEERS_TRACK_LOADERS"
	FrontEndLoaders        EquipmentCategory = "FRONT_END_LOADERS"
	BackhoesExcavators     EquipmentCategory = "BACKHOES_EXCAVATORS"
	Bulldozers             EquipmentCategory = "BULLDOZERS"
	Graders                EquipmentCategory = "GRADERS"
	DumpTrucks             EquipmentCategory = "DUMP_TRUCKS"
	WaterTrucks            EquipmentCategory = "WATER_TRUCKS"
	Sweepers               EquipmentCategory = "SWEEPERS"
	Trenchers              EquipmentCategory = "TRENCHERS"

	HalfDay  DurationType = "HALF_DAY"  // 4 часа
	FullDay  DurationType = "FULL_DAY"  // 8 часов
	MultiDay DurationType = "MULTI_DAY" // по 8 часов в день
	Weekly   DurationType = "WEEKLY"    // 40 часов в неделю

	HourlyRate  RateType = "HOURLY"
	HalfDayRate RateType = "HALF_DAY"
	DailyRate   RateType = "DAILY"
	WeeklyRate  RateType = "WEEKLY"

	WeHandleIt  TransportOption = "WE_HANDLE_IT"  // Доставку организуем мы
	YouHandleIt TransportOption = "YOU_HANDLE_IT" // Доставку организует клиент
)

// AllStatuses перечисляет все статусы заявки в порядке жизненного цикла.
var AllStatuses = []ServiceRequestStatus{
	StatusSubmitted,
	StatusUnderReview,
	StatusApproved,
	StatusRejected,
	StatusOperatorMatching,
	StatusOperatorAssigned,
	StatusEquipmentChecking,
	StatusEquipmentConfirmed,
	StatusDepositRequested,
	StatusDepositPending,
	StatusDepositReceived,
	StatusJobScheduled,
	StatusJobInProgress,
	StatusJobCompleted,
	StatusInvoiced,
	StatusPaymentPending,
	StatusPaymentReceived,
	StatusClosed,
	StatusCancelled,
}

// ServiceRequest представляет модель заявки на аренду техники.
type ServiceRequest struct {
	ID                string               `json:"id"`
	Title             string               `json:"title"`
	Description       string               `json:"description,omitempty"`
	ContactName       string               `json:"contactName"`
	ContactEmail      string               `json:"contactEmail"`
	ContactPhone      string               `json:"contactPhone"`
	Company           string               `json:"company,omitempty"`
	JobSite           string               `json:"jobSite"`
	Transport         TransportOption      `json:"transport"`
	StartDate         time.Time            `json:"startDate"`
	EndDate           *time.Time           `json:"endDate,omitempty"`
	EquipmentCategory EquipmentCategory    `json:"equipmentCategory"`
	EquipmentDetail   string               `json:"equipmentDetail"`
	DurationType      DurationType         `json:"requestedDurationType"`
	DurationValue     int                  `json:"requestedDurationValue"`
	TotalHours        int                  `json:"requestedTotalHours"`
	RateType          RateType             `json:"rateType"`
	BaseRate          decimal.Decimal      `json:"baseRate"`
	EstimatedCost     decimal.NullDecimal  `json:"estimatedCost"`
	DepositAmount     decimal.NullDecimal  `json:"depositAmount"`
	DepositPaid       bool                 `json:"depositPaid"`
	DepositPaidAt     *time.Time           `json:"depositPaidAt,omitempty"`
	FinalAmount       decimal.NullDecimal  `json:"finalAmount"`
	FinalPaid         bool                 `json:"finalPaid"`
	FinalPaidAt       *time.Time           `json:"finalPaidAt,omitempty"`
	Status            ServiceRequestStatus `json:"status"`
	AssignedManagerID *string              `json:"assignedManagerId,omitempty"`
	UserID            string               `json:"userId"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

// ServiceRequestCreateRequest представляет структуру запроса для создания заявки.
type ServiceRequestCreateRequest struct {
	Title             string            `json:"title" validate:"required,max=200"`
	Description       string            `json:"description" validate:"max=1000"`
	ContactName       string            `json:"contactName" validate:"required,max=100"`
	ContactEmail      string            `json:"contactEmail" validate:"required,email"`
	ContactPhone      string            `json:"contactPhone" validate:"required,min=10,max=20"`
	Company           string            `json:"company" validate:"max=100"`
	JobSite           string            `json:"jobSite" validate:"required,max=500"`
	Transport         TransportOption   `json:"transport" validate:"required,oneof=WE_HANDLE_IT YOU_HANDLE_IT"`
	StartDate         *time.Time        `json:"startDate" validate:"required"`
	EndDate           *time.Time        `json:"endDate" validate:"omitempty"`
	EquipmentCategory EquipmentCategory `json:"equipmentCategory" validate:"required"`
	EquipmentDetail   string            `json:"equipmentDetail" validate:"required,max=500"`
	DurationType      DurationType      `json:"requestedDurationType" validate:"required,oneof=HALF_DAY FULL_DAY MULTI_DAY WEEKLY"`
	DurationValue     int               `json:"requestedDurationValue" validate:"required,gt=0"`
	RateType          RateType          `json:"rateType" validate:"required,oneof=HOURLY HALF_DAY DAILY WEEKLY"`
	BaseRate          decimal.Decimal   `json:"baseRate"`
}

// ServiceRequestFilter описывает фильтры списка заявок.
type ServiceRequestFilter struct {
	UserID   string
	Role     UserRole
	Statuses []ServiceRequestStatus
	Limit    int
	Offset   int
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/equipment-rental/internal/metrics"
	"github.com/senyabanana/equipment-rental/internal/models"
	"github.com/senyabanana/equipment-rental/internal/pricing"
	"github.com/senyabanana/equipment-rental/internal/repository"
	"github.com/senyabanana/equipment-rental/internal/workflow"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ServiceRequestService - фасад рабочего процесса заявок.
// Все ошибки методов имеют тип *models.ServiceError.
type ServiceRequestService struct {
	Requests    repository.ServiceRequestRepository
	Users       repository.UserRepository
	Assignments repository.AssignmentRepository
	Logger      *logrus.Logger

	validate *validator.Validate
	now      func() time.Time
}

// NewServiceRequestService создаёт новый экземпляр ServiceRequestService.
func NewServiceRequestService(
	requests repository.ServiceRequestRepository,
	users repository.UserRepository,
	assignments repository.AssignmentRepository,
	logger *logrus.Logger,
) *ServiceRequestService {
	return &ServiceRequestService{
		Requests:    requests,
		Users:       users,
		Assignments: assignments,
		Logger:      logger,
		validate:    validator.New(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ChangeStatusInput - параметры смены статуса.
type ChangeStatusInput struct {
	RequestID string
	NewStatus models.ServiceRequestStatus
	UserID    string
	Role      models.UserRole
	Reason    string
	Notes     string
}

// ChangeStatus переводит заявку в новый статус и пишет запись в журнал.
// Единственный путь изменения статуса заявки.
func (s *ServiceRequestService) ChangeStatus(ctx context.Context, in ChangeStatusInput) (updated *models.ServiceRequest, err error) {
	started := time.Now()
	log := s.Logger.WithFields(logrus.Fields{
		"request_id": in.RequestID,
		"to":         in.NewStatus,
		"role":       in.Role,
		"user_id":    in.UserID,
	})
	defer func() {
		code := models.CodeOf(err)
		metrics.ObserveTransition(transitionLabel(in.NewStatus), string(code), started)
		if err != nil {
			log.WithField("code", code).Warn(err.Error())
			return
		}
		log.Info("status changed")
	}()

	if in.RequestID == "" || in.NewStatus == "" || in.UserID == "" {
		return nil, validationError("Request id, new status and user id are required")
	}

	sr, err := s.Requests.GetServiceRequestByID(ctx, in.RequestID)
	if err != nil {
		return nil, lookupError("load service request", "Service request not found", err)
	}

	from := sr.Status
	log = log.WithField("from", from)

	result := workflow.ValidateTransition(&from, in.NewStatus, in.Role)
	if !result.IsValid {
		// роль без права на известный целевой статус получает отказ в правах, даже если переход невозможен
		if workflow.IsKnownStatus(in.NewStatus) && !workflow.HasTransitionPermission(in.Role, &from, in.NewStatus) {
			return nil, forbiddenError(fmt.Sprintf("Role %s is not permitted to transition to %s", in.Role, in.NewStatus))
		}
		return nil, models.NewServiceError(models.ErrInvalidTransition, result.Reason)
	}
	if !result.HasPermission {
		return nil, forbiddenError(result.Reason)
	}

	if violations := workflow.CheckBusinessRules(&from, in.NewStatus, workflow.SnapshotOf(sr)); len(violations) > 0 {
		return nil, models.NewServiceError(models.ErrBusinessRuleViolation, workflow.JoinViolations(violations)).
			WithDetails(map[string]any{"violations": violations})
	}

	entry := models.StatusHistoryEntry{
		ChangedBy: in.UserID,
		Reason:    in.Reason,
		Notes:     in.Notes,
		CreatedAt: s.now(),
	}
	updated, err = s.Requests.UpdateStatus(ctx, in.RequestID, from, in.NewStatus, entry)
	switch {
	case errors.Is(err, repository.ErrStatusConflict):
		return nil, models.NewServiceError(models.ErrInvalidTransition,
			fmt.Sprintf("Service request is no longer in status %s", from))
	case errors.Is(err, repository.ErrNotFound):
		return nil, notFoundError("Service request not found")
	case err != nil:
		return nil, databaseError("update service request status", err)
	}
	return updated, nil
}

// transitionLabel ограничивает значения метки статуса известными статусами.
func transitionLabel(status models.ServiceRequestStatus) string {
	if !workflow.IsKnownStatus(status) {
		return metrics.UnknownStatus
	}
	return string(status)
}

// AssignOperatorInput - параметры назначения оператора.
type AssignOperatorInput struct {
	RequestID      string
	OperatorID     string
	UserID         string
	Role           models.UserRole
	Rate           decimal.NullDecimal
	EstimatedHours *int
}

// AssignOperator назначает оператора на заявку. Статус заявки не меняется.
func (s *ServiceRequestService) AssignOperator(ctx context.Context, in AssignOperatorInput) (result *models.AssignmentResult, err error) {
	defer func() {
		metrics.ObserveAssignment(string(models.CodeOf(err)))
	}()

	if in.Role != models.RoleManager && in.Role != models.RoleAdmin {
		return nil, forbiddenError("Only managers and admins can assign operators")
	}
	if in.RequestID == "" || in.OperatorID == "" {
		return nil, validationError("Request id and operator id are required")
	}
	if in.Rate.Valid && !in.Rate.Decimal.IsPositive() {
		return nil, validationError("Rate must be positive")
	}
	if in.EstimatedHours != nil && *in.EstimatedHours <= 0 {
		return nil, validationError("Estimated hours must be positive")
	}

	if _, err := s.Requests.GetServiceRequestByID(ctx, in.RequestID); err != nil {
		return nil, lookupError("load service request", "Service request not found", err)
	}

	operator, err := s.Users.GetUserByID(ctx, in.OperatorID)
	if err != nil {
		return nil, lookupError("load operator", "Operator not found", err)
	}
	if operator.Role != models.RoleOperator {
		return nil, models.NewServiceError(models.ErrInvalidRole, "User is not an operator").
			WithDetails(map[string]any{"role": operator.Role})
	}

	assignment := &models.UserAssignment{
		ServiceRequestID: in.RequestID,
		OperatorID:       in.OperatorID,
		Status:           models.AssignmentPending,
		Rate:             in.Rate,
		EstimatedHours:   in.EstimatedHours,
		AssignedAt:       s.now(),
	}
	if err := s.Assignments.CreateAssignment(ctx, assignment); err != nil {
		return nil, databaseError("create assignment", err)
	}

	s.Logger.WithFields(logrus.Fields{
		"request_id":  in.RequestID,
		"operator_id": in.OperatorID,
		"user_id":     in.UserID,
	}).Info("operator assigned")

	return &models.AssignmentResult{ID: assignment.ID, Status: assignment.Status}, nil
}

// GetValidNextStatuses возвращает статусы, достижимые из current по таблице переходов.
func (s *ServiceRequestService) GetValidNextStatuses(current string) ([]models.ServiceRequestStatus, error) {
	if current == "" {
		return nil, validationError("Current status is required")
	}
	next, ok := workflow.ValidNextStatuses(models.ServiceRequestStatus(current))
	if !ok {
		return nil, models.NewServiceError(models.ErrInvalidStatus, fmt.Sprintf("Unknown status: %s", current))
	}
	return next, nil
}

// GetAvailableTransitions возвращает следующие статусы с отметкой о правах роли.
func (s *ServiceRequestService) GetAvailableTransitions(current string, role models.UserRole) ([]models.TransitionOption, error) {
	if current == "" {
		return nil, validationError("Current status is required")
	}
	options, ok := workflow.AvailableTransitions(models.ServiceRequestStatus(current), role)
	if !ok {
		return nil, models.NewServiceError(models.ErrInvalidStatus, fmt.Sprintf("Unknown status: %s", current))
	}
	return options, nil
}

// GetStatusHistory возвращает журнал смены статусов заявки, новые записи первыми.
func (s *ServiceRequestService) GetStatusHistory(ctx context.Context, requestID string) ([]models.StatusHistoryEntry, error) {
	if requestID == "" {
		return nil, validationError("Request id is required")
	}
	if _, err := s.Requests.GetServiceRequestByID(ctx, requestID); err != nil {
		return nil, lookupError("load service request", "Service request not found", err)
	}

	history, err := s.Requests.GetStatusHistory(ctx, requestID)
	if err != nil {
		return nil, databaseError("load status history", err)
	}
	if history == nil {
		history = []models.StatusHistoryEntry{}
	}
	return history, nil
}

// CalculateServiceRequestPricing считает смету по параметрам заявки.
func (s *ServiceRequestService) CalculateServiceRequestPricing(in pricing.Input) (*pricing.Result, error) {
	return pricing.Calculate(in)
}

// CreateServiceRequest создаёт заявку в статусе SUBMITTED.
func (s *ServiceRequestService) CreateServiceRequest(ctx context.Context, userID string, role models.UserRole, req models.ServiceRequestCreateRequest) (*models.ServiceRequest, error) {
	if userID == "" {
		return nil, validationError("User id is required")
	}

	initial := workflow.ValidateTransition(nil, models.StatusSubmitted, role)
	if !initial.HasPermission {
		return nil, forbiddenError(initial.Reason)
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, structError(err)
	}
	if !pricing.IsKnownCategory(req.EquipmentCategory) {
		return nil, models.NewServiceError(models.ErrInvalidEquipment, "Invalid equipment category").
			WithDetails(map[string]any{"equipmentCategory": req.EquipmentCategory})
	}
	if !req.BaseRate.IsPositive() {
		return nil, validationError("Base rate must be positive")
	}

	now := s.now()
	if !req.StartDate.After(now) {
		return nil, validationError("Start date must be in the future")
	}
	if req.EndDate != nil && !req.EndDate.After(*req.StartDate) {
		return nil, validationError("End date must be after start date")
	}
	totalHours, err := pricing.TotalHours(req.DurationType, req.DurationValue)
	if err != nil {
		return nil, err
	}

	sr := &models.ServiceRequest{
		Title:             req.Title,
		Description:       req.Description,
		ContactName:       req.ContactName,
		ContactEmail:      req.ContactEmail,
		ContactPhone:      req.ContactPhone,
		Company:           req.Company,
		JobSite:           req.JobSite,
		Transport:         req.Transport,
		StartDate:         *req.StartDate,
		EndDate:           req.EndDate,
		EquipmentCategory: req.EquipmentCategory,
		EquipmentDetail:   req.EquipmentDetail,
		DurationType:      req.DurationType,
		DurationValue:     req.DurationValue,
		TotalHours:        totalHours,
		RateType:          req.RateType,
		BaseRate:          req.BaseRate,
		Status:            models.StatusSubmitted,
		UserID:            userID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.Requests.CreateServiceRequest(ctx, sr); err != nil {
		return nil, databaseError("create service request", err)
	}

	s.Logger.WithFields(logrus.Fields{
		"request_id": sr.ID,
		"user_id":    userID,
		"category":   sr.EquipmentCategory,
	}).Info("service request created")

	return sr, nil
}

// GetServiceRequest возвращает заявку, если пользователь может её видеть.
func (s *ServiceRequestService) GetServiceRequest(ctx context.Context, requestID, userID string, role models.UserRole) (*models.ServiceRequest, error) {
	sr, err := s.Requests.GetServiceRequestByID(ctx, requestID)
	if err != nil {
		return nil, lookupError("load service request", "Service request not found", err)
	}

	allowed, err := s.canView(ctx, sr, userID, role)
	if err != nil {
		return nil, databaseError("check access", err)
	}
	if !allowed {
		return nil, forbiddenError("You do not have access to this service request")
	}
	return sr, nil
}

func (s *ServiceRequestService) canView(ctx context.Context, sr *models.ServiceRequest, userID string, role models.UserRole) (bool, error) {
	switch role {
	case models.RoleAdmin, models.RoleManager:
		return true, nil
	case models.RoleOperator:
		if sr.UserID == userID {
			return true, nil
		}
		return s.Assignments.IsOperatorAssigned(ctx, sr.ID, userID)
	case models.RoleUser:
		return sr.UserID == userID, nil
	default:
		return false, nil
	}
}

// ListServiceRequests возвращает заявки, видимые роли пользователя.
func (s *ServiceRequestService) ListServiceRequests(ctx context.Context, filter models.ServiceRequestFilter) ([]models.ServiceRequest, error) {
	if !filter.Role.Valid() {
		return nil, validationError(fmt.Sprintf("Unknown role: %s", filter.Role))
	}
	for _, status := range filter.Statuses {
		if !workflow.IsKnownStatus(status) {
			return nil, models.NewServiceError(models.ErrInvalidStatus, fmt.Sprintf("Unknown status: %s", status))
		}
	}

	requests, err := s.Requests.ListServiceRequests(ctx, filter)
	if err != nil {
		return nil, databaseError("list service requests", err)
	}
	if requests == nil {
		requests = []models.ServiceRequest{}
	}
	return requests, nil
}

// CountServiceRequestsByOwner возвращает число заявок пользователя.
func (s *ServiceRequestService) CountServiceRequestsByOwner(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, validationError("User id is required")
	}
	count, err := s.Requests.CountByOwner(ctx, userID)
	if err != nil {
		return 0, databaseError("count service requests", err)
	}
	return count, nil
}

// SetEstimateInput - параметры установки сметы.
// Без Amount смета считается по полям заявки.
type SetEstimateInput struct {
	RequestID string
	UserID    string
	Role      models.UserRole
	Amount    decimal.NullDecimal
}

// SetEstimate сохраняет смету заявки. Статус заявки не меняется.
func (s *ServiceRequestService) SetEstimate(ctx context.Context, in SetEstimateInput) (*models.ServiceRequest, error) {
	if in.Role != models.RoleManager && in.Role != models.RoleAdmin {
		return nil, forbiddenError("Only managers and admins can set estimates")
	}
	if in.Amount.Valid && !in.Amount.Decimal.IsPositive() {
		return nil, validationError("Estimated cost must be positive")
	}

	sr, err := s.Requests.GetServiceRequestByID(ctx, in.RequestID)
	if err != nil {
		return nil, lookupError("load service request", "Service request not found", err)
	}

	amount := in.Amount.Decimal
	if !in.Amount.Valid {
		quote, err := pricing.Calculate(pricing.InputFromRequest(sr))
		if err != nil {
			return nil, err
		}
		amount = quote.TotalEstimate
	}

	updated, err := s.Requests.SetEstimatedCost(ctx, in.RequestID, amount)
	if err != nil {
		return nil, lookupError("save estimate", "Service request not found", err)
	}

	s.Logger.WithFields(logrus.Fields{
		"request_id": in.RequestID,
		"user_id":    in.UserID,
		"amount":     amount.StringFixed(2),
	}).Info("estimate set")

	return updated, nil
}

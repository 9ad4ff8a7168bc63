package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/senyabanana/equipment-rental/internal/models"
	"github.com/senyabanana/equipment-rental/internal/pricing"
	"github.com/senyabanana/equipment-rental/internal/services"
	"github.com/senyabanana/equipment-rental/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// ServiceRequestHandler - структура для обработки HTTP-запросов по заявкам.
type ServiceRequestHandler struct {
	Service  *services.ServiceRequestService
	Payments *services.PaymentService
	Logger   *logrus.Logger
	Timeout  time.Duration

	validate *validator.Validate
}

// NewServiceRequestHandler создаёт новый экземпляр ServiceRequestHandler.
func NewServiceRequestHandler(service *services.ServiceRequestService, payments *services.PaymentService, logger *logrus.Logger, timeout time.Duration) *ServiceRequestHandler {
	return &ServiceRequestHandler{
		Service:  service,
		Payments: payments,
		Logger:   logger,
		Timeout:  timeout,
		validate: validator.New(),
	}
}

func (h *ServiceRequestHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	fields := logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"code":   models.CodeOf(err),
	}
	if requestID := r.PathValue("requestId"); requestID != "" {
		fields["request_id"] = requestID
	}
	h.Logger.WithFields(fields).Warn(err.Error())
	utils.SendServiceError(w, err)
}

func (h *ServiceRequestHandler) caller(w http.ResponseWriter, r *http.Request) (string, models.UserRole, bool) {
	userID, role, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.SendErrorResponse(w, http.StatusUnauthorized, models.ErrUnauthorized, err.Error())
		return "", "", false
	}
	return userID, role, true
}

func (h *ServiceRequestHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, models.ErrValidation, "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, models.ErrValidation, err.Error())
		return false
	}
	return true
}

// CreateServiceRequest обрабатывает запросы для создания заявки.
func (h *ServiceRequestHandler) CreateServiceRequest(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.ServiceRequestCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, models.ErrValidation, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	sr, err := h.Service.CreateServiceRequest(ctx, userID, role, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, sr)
}

// ListServiceRequests обрабатывает запросы для получения списка заявок.
func (h *ServiceRequestHandler) ListServiceRequests(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.caller(w, r)
	if !ok {
		return
	}

	limit, offset, err := utils.ParseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, models.ErrValidation, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	requests, err := h.Service.ListServiceRequests(ctx, models.ServiceRequestFilter{
		UserID:   userID,
		Role:     role,
		Statuses: utils.ParseStatuses(r.URL.Query()["status"]),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, requests)
}

// GetServiceRequest обрабатывает запросы для получения заявки.
func (h *ServiceRequestHandler) GetServiceRequest(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.caller(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	sr, err := h.Service.GetServiceRequest(ctx, r.PathValue("requestId"), userID, role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, sr)
}

// ChangeStatus обрабатывает запросы для смены статуса заявки.
func (h *ServiceRequestHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.StatusChangeRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	sr, err := h.Service.ChangeStatus(ctx, services.ChangeStatusInput{
		RequestID: r.PathValue("requestId"),
		NewStatus: req.NewStatus,
		UserID:    userID,
		Role:      role,
		Reason:    req.Reason,
		Notes:     req.Notes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, sr)
}

// GetStatusHistory обрабатывает запросы для получения журнала статусов.
func (h *ServiceRequestHandler) GetStatusHistory(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.caller(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	requestID := r.PathValue("requestId")
	if _, err := h.Service.GetServiceRequest(ctx, requestID, userID, role); err != nil {
		h.fail(w, r, err)
		return
	}

	history, err := h.Service.GetStatusHistory(ctx, requestID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, history)
}

type transitionsResponse struct {
	CurrentStatus models.ServiceRequestStatus `json:"currentStatus"`
	Transitions   []models.TransitionOption    `json:"transitions"`
}

// GetRequestTransitions обрабатывает запросы для получения доступных переходов заявки.
func (h *ServiceRequestHandler) GetRequestTransitions(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.caller(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	sr, err := h.Service.GetServiceRequest(ctx, r.PathValue("requestId"), userID, role)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	options, err := h.Service.GetAvailableTransitions(string(sr.Status), role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, transitionsResponse{CurrentStatus: sr.Status, Transitions: options})
}

// AssignOperator обрабатывает запросы для назначения оператора.
func (h *ServiceRequestHandler) AssignOperator(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.AssignOperatorRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	result, err := h.Service.AssignOperator(ctx, services.AssignOperatorInput{
		RequestID:      r.PathValue("requestId"),
		OperatorID:     req.OperatorID,
		UserID:         userID,
		Role:           role,
		Rate:           req.Rate,
		EstimatedHours: req.EstimatedHours,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, result)
}

// SetEstimate обрабатывает запросы для установки сметы.
func (h *ServiceRequestHandler) SetEstimate(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.EstimateRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	sr, err := h.Service.SetEstimate(ctx, services.SetEstimateInput{
		RequestID: r.PathValue("requestId"),
		UserID:    userID,
		Role:      role,
		Amount:    req.EstimatedCost,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, sr)
}

func (h *ServiceRequestHandler) paymentCaller(w http.ResponseWriter, r *http.Request) (models.PaymentKind, bool) {
	_, role, ok := h.caller(w, r)
	if !ok {
		return "", false
	}
	if role != models.RoleAdmin {
		utils.SendErrorResponse(w, http.StatusForbidden, models.ErrInsufficientPermission, "payment callbacks require the ADMIN role")
		return "", false
	}
	return models.PaymentKind(strings.ToUpper(r.PathValue("kind"))), true
}

// OpenPayment обрабатывает уведомление о создании платежа.
func (h *ServiceRequestHandler) OpenPayment(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.paymentCaller(w, r)
	if !ok {
		return
	}

	var req models.PaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	sr, err := h.Payments.OpenPayment(ctx, r.PathValue("requestId"), kind, req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, sr)
}

// ConfirmPayment обрабатывает уведомление о получении платежа.
func (h *ServiceRequestHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.paymentCaller(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	sr, err := h.Payments.ConfirmPayment(ctx, r.PathValue("requestId"), kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, sr)
}

// GetValidNextStatuses обрабатывает запросы к таблице переходов.
func (h *ServiceRequestHandler) GetValidNextStatuses(w http.ResponseWriter, r *http.Request) {
	next, err := h.Service.GetValidNextStatuses(strings.ToUpper(r.URL.Query().Get("status")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, next)
}

// Quote обрабатывает запросы для расчёта стоимости.
func (h *ServiceRequestHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var in pricing.Input
	if !h.decode(w, r, &in) {
		return
	}

	quote, err := h.Service.CalculateServiceRequestPricing(in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, quote)
}

type countResponse struct {
	UserID string `json:"userId"`
	Count  int    `json:"count"`
}

// CountByOwner обрабатывает запросы для подсчёта заявок пользователя.
func (h *ServiceRequestHandler) CountByOwner(w http.ResponseWriter, r *http.Request) {
	callerID, role, ok := h.caller(w, r)
	if !ok {
		return
	}

	userID := r.PathValue("userId")
	if role == models.RoleUser && userID != callerID {
		utils.SendErrorResponse(w, http.StatusForbidden, models.ErrInsufficientPermission, "users can only count their own service requests")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	count, err := h.Service.CountServiceRequestsByOwner(ctx, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, countResponse{UserID: userID, Count: count})
}

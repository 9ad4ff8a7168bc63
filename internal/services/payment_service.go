package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/equipment-rental/internal/models"
	"github.com/senyabanana/equipment-rental/internal/repository"
	"github.com/senyabanana/equipment-rental/internal/workflow"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PaymentService обрабатывает уведомления платёжной системы о предоплате и окончательном расчёте.
// Статус меняется через ChangeStatus от имени системного пользователя с ролью ADMIN.
type PaymentService struct {
	Requests     repository.ServiceRequestRepository
	Workflow     *ServiceRequestService
	SystemUserID string
	Logger       *logrus.Logger

	now func() time.Time
}

// NewPaymentService создаёт новый экземпляр PaymentService.
func NewPaymentService(requests repository.ServiceRequestRepository, wf *ServiceRequestService, systemUserID string, logger *logrus.Logger) *PaymentService {
	return &PaymentService{
		Requests:     requests,
		Workflow:     wf,
		SystemUserID: systemUserID,
		Logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func pendingStatus(kind models.PaymentKind) models.ServiceRequestStatus {
	if kind == models.FinalPayment {
		return models.StatusPaymentPending
	}
	return models.StatusDepositPending
}

func receivedStatus(kind models.PaymentKind) models.ServiceRequestStatus {
	if kind == models.FinalPayment {
		return models.StatusPaymentReceived
	}
	return models.StatusDepositReceived
}

func checkKind(kind models.PaymentKind) *models.ServiceError {
	if kind != models.DepositPayment && kind != models.FinalPayment {
		return validationError(fmt.Sprintf("Unknown payment kind: %s", kind))
	}
	return nil
}

// precheck отклоняет структурно невозможный переход до записи платёжных полей
// и возвращает статус, в котором заявка должна оставаться при записи.
func (s *PaymentService) precheck(ctx context.Context, requestID string, to models.ServiceRequestStatus) (models.ServiceRequestStatus, error) {
	sr, err := s.Requests.GetServiceRequestByID(ctx, requestID)
	if err != nil {
		return "", lookupError("load service request", "Service request not found", err)
	}
	current := sr.Status
	if result := workflow.ValidateStatusTransition(&current, to); !result.IsValid {
		return "", models.NewServiceError(models.ErrInvalidTransition, result.Reason)
	}
	return current, nil
}

func paymentWriteError(op string, expected models.ServiceRequestStatus, err error) *models.ServiceError {
	if errors.Is(err, repository.ErrStatusConflict) {
		return models.NewServiceError(models.ErrInvalidTransition,
			fmt.Sprintf("Service request is no longer in status %s", expected))
	}
	return lookupError(op, "Service request not found", err)
}

// OpenPayment сохраняет сумму платежа и переводит заявку в DEPOSIT_PENDING или PAYMENT_PENDING.
func (s *PaymentService) OpenPayment(ctx context.Context, requestID string, kind models.PaymentKind, amount decimal.Decimal) (*models.ServiceRequest, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, validationError("Payment amount must be greater than zero").
			WithDetails(map[string]any{"amount": amount.String()})
	}

	target := pendingStatus(kind)
	current, err := s.precheck(ctx, requestID, target)
	if err != nil {
		return nil, err
	}

	if err := s.Requests.SetPaymentAmount(ctx, requestID, kind, current, amount); err != nil {
		return nil, paymentWriteError("save payment amount", current, err)
	}

	s.Logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"kind":       kind,
		"amount":     amount.StringFixed(2),
	}).Info("payment opened")

	return s.Workflow.ChangeStatus(ctx, ChangeStatusInput{
		RequestID: requestID,
		NewStatus: target,
		UserID:    s.SystemUserID,
		Role:      models.RoleAdmin,
		Reason:    fmt.Sprintf("%s payment intent created", kind),
	})
}

// ConfirmPayment отмечает платёж полученным и переводит заявку в DEPOSIT_RECEIVED или PAYMENT_RECEIVED.
// Повторная отметка не меняет дату оплаты.
func (s *PaymentService) ConfirmPayment(ctx context.Context, requestID string, kind models.PaymentKind) (*models.ServiceRequest, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	target := receivedStatus(kind)
	current, err := s.precheck(ctx, requestID, target)
	if err != nil {
		return nil, err
	}

	if err := s.Requests.MarkPaid(ctx, requestID, kind, current, s.now()); err != nil {
		return nil, paymentWriteError("mark payment as paid", current, err)
	}

	s.Logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"kind":       kind,
	}).Info("payment confirmed")

	return s.Workflow.ChangeStatus(ctx, ChangeStatusInput{
		RequestID: requestID,
		NewStatus: target,
		UserID:    s.SystemUserID,
		Role:      models.RoleAdmin,
		Reason:    fmt.Sprintf("%s payment confirmed", kind),
	})
}

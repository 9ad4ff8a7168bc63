package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/senyabanana/equipment-rental/internal/db"
	"github.com/senyabanana/equipment-rental/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound - запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrStatusConflict - статус заявки изменился после чтения.
	ErrStatusConflict = errors.New("service request status changed concurrently")
)

// ServiceRequestRepository - интерфейс для работы с заявками.
type ServiceRequestRepository interface {
	CreateServiceRequest(ctx context.Context, sr *models.ServiceRequest) error
	GetServiceRequestByID(ctx context.Context, id string) (*models.ServiceRequest, error)
	ListServiceRequests(ctx context.Context, filter models.ServiceRequestFilter) ([]models.ServiceRequest, error)
	CountByOwner(ctx context.Context, userID string) (int, error)
	UpdateStatus(ctx context.Context, id string, from, to models.ServiceRequestStatus, entry models.StatusHistoryEntry) (*models.ServiceRequest, error)
	GetStatusHistory(ctx context.Context, id string) ([]models.StatusHistoryEntry, error)
	SetEstimatedCost(ctx context.Context, id string, cost decimal.Decimal) (*models.ServiceRequest, error)
	// SetPaymentAmount и MarkPaid пишут только пока заявка в статусе expected, иначе ErrStatusConflict.
	SetPaymentAmount(ctx context.Context, id string, kind models.PaymentKind, expected models.ServiceRequestStatus, amount decimal.Decimal) error
	MarkPaid(ctx context.Context, id string, kind models.PaymentKind, expected models.ServiceRequestStatus, paidAt time.Time) error
}

const serviceRequestColumns = `id, title, description, contact_name, contact_email, contact_phone, company, job_site,
	transport, start_date, end_date, equipment_category, equipment_detail, duration_type, duration_value, total_hours,
	rate_type, base_rate, estimated_cost, deposit_amount, deposit_paid, deposit_paid_at, final_amount, final_paid,
	final_paid_at, status, assigned_manager_id, user_id, created_at, updated_at`

// PostgresServiceRequestRepository - реализация ServiceRequestRepository для базы данных.
type PostgresServiceRequestRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresServiceRequestRepository создаёт новый экземпляр PostgresServiceRequestRepository.
func NewPostgresServiceRequestRepository(db *pgxpool.Pool) *PostgresServiceRequestRepository {
	return &PostgresServiceRequestRepository{DB: db}
}

func scanServiceRequest(row pgx.Row) (*models.ServiceRequest, error) {
	var sr models.ServiceRequest
	err := row.Scan(
		&sr.ID,
		&sr.Title,
		&sr.Description,
		&sr.ContactName,
		&sr.ContactEmail,
		&sr.ContactPhone,
		&sr.Company,
		&sr.JobSite,
		&sr.Transport,
		&sr.StartDate,
		&sr.EndDate,
		&sr.EquipmentCategory,
		&sr.EquipmentDetail,
		&sr.DurationType,
		&sr.DurationValue,
		&sr.TotalHours,
		&sr.RateType,
		&sr.BaseRate,
		&sr.EstimatedCost,
		&sr.DepositAmount,
		&sr.DepositPaid,
		&sr.DepositPaidAt,
		&sr.FinalAmount,
		&sr.FinalPaid,
		&sr.FinalPaidAt,
		&sr.Status,
		&sr.AssignedManagerID,
		&sr.UserID,
		&sr.CreatedAt,
		&sr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sr, nil
}

// CreateServiceRequest сохраняет новую заявку.
func (r *PostgresServiceRequestRepository) CreateServiceRequest(ctx context.Context, sr *models.ServiceRequest) error {
	if sr.ID == "" {
		sr.ID = uuid.New().String()
	}
	_, err := r.DB.Exec(ctx, `
       INSERT INTO service_request (id, title, description, contact_name, contact_email, contact_phone, company, job_site,
           transport, start_date, end_date, equipment_category, equipment_detail, duration_type, duration_value, total_hours,
           rate_type, base_rate, estimated_cost, status, user_id, created_at, updated_at)
       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
   `,
		sr.ID,
		sr.Title,
		sr.Description,
		sr.ContactName,
		sr.ContactEmail,
		sr.ContactPhone,
		sr.Company,
		sr.JobSite,
		sr.Transport,
		sr.StartDate,
		sr.EndDate,
		sr.EquipmentCategory,
		sr.EquipmentDetail,
		sr.DurationType,
		sr.DurationValue,
		sr.TotalHours,
		sr.RateType,
		sr.BaseRate,
		sr.EstimatedCost,
		sr.Status,
		sr.UserID,
		sr.CreatedAt,
		sr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert service request: %w", err)
	}
	return nil
}

// GetServiceRequestByID возвращает заявку по ID.
func (r *PostgresServiceRequestRepository) GetServiceRequestByID(ctx context.Context, id string) (*models.ServiceRequest, error) {
	query := `SELECT ` + serviceRequestColumns + ` FROM service_request WHERE id = $1`
	return scanServiceRequest(r.DB.QueryRow(ctx, query, id))
}

// ListServiceRequests возвращает заявки, видимые роли пользователя.
func (r *PostgresServiceRequestRepository) ListServiceRequests(ctx context.Context, filter models.ServiceRequestFilter) ([]models.ServiceRequest, error) {
	query := `SELECT ` + serviceRequestColumns + ` FROM service_request`
	var filters []string
	var args []interface{}
	argIndex := 1

	switch filter.Role {
	case models.RoleAdmin, models.RoleManager:
	case models.RoleOperator:
		filters = append(filters, fmt.Sprintf(`(user_id = $%d OR EXISTS (
			SELECT 1 FROM user_assignment ua
			WHERE ua.service_request_id = service_request.id AND ua.operator_id = $%d))`, argIndex, argIndex))
		args = append(args, filter.UserID)
		argIndex++
	default:
		filters = append(filters, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, filter.UserID)
		argIndex++
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			statuses[i] = string(status)
		}
		filters = append(filters, fmt.Sprintf("status = ANY($%d)", argIndex))
		args = append(args, pq.Array(statuses))
		argIndex++
	}

	if len(filters) > 0 {
		query += " WHERE " + strings.Join(filters, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.ServiceRequest
	for rows.Next() {
		sr, err := scanServiceRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *sr)
	}
	return requests, rows.Err()
}

// CountByOwner возвращает число заявок пользователя.
func (r *PostgresServiceRequestRepository) CountByOwner(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM service_request WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// UpdateStatus меняет статус заявки и пишет запись в журнал в одной транзакции.
// Обновление проходит только если в базе всё ещё статус from.
func (r *PostgresServiceRequestRepository) UpdateStatus(ctx context.Context, id string, from, to models.ServiceRequestStatus, entry models.StatusHistoryEntry) (*models.ServiceRequest, error) {
	var updated *models.ServiceRequest
	err := db.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		updateQuery := `UPDATE service_request SET status = $1, updated_at = $2
		                WHERE id = $3 AND status = $4
		                RETURNING ` + serviceRequestColumns
		sr, err := scanServiceRequest(tx.QueryRow(ctx, updateQuery, to, entry.CreatedAt, id, from))
		if errors.Is(err, ErrNotFound) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM service_request WHERE id = $1)`, id).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
			return ErrStatusConflict
		}
		if err != nil {
			return err
		}

		if entry.ID == "" {
			entry.ID = uuid.New().String()
		}
		historyInsertQuery := `INSERT INTO service_request_status_history (id, service_request_id, from_status, to_status, changed_by, reason, notes, created_at)
		                       VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		_, err = tx.Exec(ctx, historyInsertQuery,
			entry.ID,
			id,
			from,
			to,
			entry.ChangedBy,
			entry.Reason,
			entry.Notes,
			entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to append status history: %w", err)
		}

		updated = sr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetStatusHistory возвращает журнал смены статусов, новые записи первыми.
func (r *PostgresServiceRequestRepository) GetStatusHistory(ctx context.Context, id string) ([]models.StatusHistoryEntry, error) {
	query := `SELECT id, service_request_id, from_status, to_status, changed_by, reason, notes, created_at
	          FROM service_request_status_history WHERE service_request_id = $1 ORDER BY created_at DESC, seq DESC`
	rows, err := r.DB.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.StatusHistoryEntry
	for rows.Next() {
		var entry models.StatusHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ServiceRequestID,
			&entry.FromStatus,
			&entry.ToStatus,
			&entry.ChangedBy,
			&entry.Reason,
			&entry.Notes,
			&entry.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

// SetEstimatedCost сохраняет смету заявки.
func (r *PostgresServiceRequestRepository) SetEstimatedCost(ctx context.Context, id string, cost decimal.Decimal) (*models.ServiceRequest, error) {
	query := `UPDATE service_request SET estimated_cost = $1, updated_at = $2 WHERE id = $3 RETURNING ` + serviceRequestColumns
	return scanServiceRequest(r.DB.QueryRow(ctx, query, cost, time.Now().UTC(), id))
}

// SetPaymentAmount сохраняет сумму предоплаты или окончательного расчёта.
func (r *PostgresServiceRequestRepository) SetPaymentAmount(ctx context.Context, id string, kind models.PaymentKind, expected models.ServiceRequestStatus, amount decimal.Decimal) error {
	column := "deposit_amount"
	if kind == models.FinalPayment {
		column = "final_amount"
	}
	query := fmt.Sprintf(`UPDATE service_request SET %s = $1, updated_at = $2 WHERE id = $3 AND status = $4`, column)
	tag, err := r.DB.Exec(ctx, query, amount, time.Now().UTC(), id, expected)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// MarkPaid отмечает платёж полученным. Повторная отметка не меняет дату.
func (r *PostgresServiceRequestRepository) MarkPaid(ctx context.Context, id string, kind models.PaymentKind, expected models.ServiceRequestStatus, paidAt time.Time) error {
	query := `UPDATE service_request SET deposit_paid = TRUE, deposit_paid_at = COALESCE(deposit_paid_at, $1), updated_at = $1
	          WHERE id = $2 AND status = $3`
	if kind == models.FinalPayment {
		query = `UPDATE service_request SET final_paid = TRUE, final_paid_at = COALESCE(final_paid_at, $1), updated_at = $1
		         WHERE id = $2 AND status = $3`
	}
	tag, err := r.DB.Exec(ctx, query, paidAt, id, expected)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// missOrConflict различает отсутствующую заявку и заявку в другом статусе.
func (r *PostgresServiceRequestRepository) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM service_request WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStatusConflict
}

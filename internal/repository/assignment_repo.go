package repository

import (
	"context"
	"fmt"

	"github.com/senyabanana/equipment-rental/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AssignmentRepository - интерфейс для работы с назначениями операторов.
type AssignmentRepository interface {
	CreateAssignment(ctx context.Context, assignment *models.UserAssignment) error
	ListAssignments(ctx context.Context, requestID string) ([]models.UserAssignment, error)
	IsOperatorAssigned(ctx context.Context, requestID, operatorID string) (bool, error)
}

// PostgresAssignmentRepository - реализация AssignmentRepository для базы данных.
type PostgresAssignmentRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresAssignmentRepository создаёт новый экземпляр PostgresAssignmentRepository.
func NewPostgresAssignmentRepository(db *pgxpool.Pool) *PostgresAssignmentRepository {
	return &PostgresAssignmentRepository{DB: db}
}

// CreateAssignment сохраняет назначение оператора.
func (r *PostgresAssignmentRepository) CreateAssignment(ctx context.Context, assignment *models.UserAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.New().String()
	}
	_, err := r.DB.Exec(ctx, `
       INSERT INTO user_assignment (id, service_request_id, operator_id, status, rate, estimated_hours, assigned_at)
       VALUES ($1, $2, $3, $4, $5, $6, $7)
   `,
		assignment.ID,
		assignment.ServiceRequestID,
		assignment.OperatorID,
		assignment.Status,
		assignment.Rate,
		assignment.EstimatedHours,
		assignment.AssignedAt)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}

// ListAssignments возвращает назначения по заявке.
func (r *PostgresAssignmentRepository) ListAssignments(ctx context.Context, requestID string) ([]models.UserAssignment, error) {
	query := `SELECT id, service_request_id, operator_id, status, rate, estimated_hours, assigned_at
	          FROM user_assignment WHERE service_request_id = $1 ORDER BY assigned_at`
	rows, err := r.DB.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []models.UserAssignment
	for rows.Next() {
		var a models.UserAssignment
		if err := rows.Scan(
			&a.ID,
			&a.ServiceRequestID,
			&a.OperatorID,
			&a.Status,
			&a.Rate,
			&a.EstimatedHours,
			&a.AssignedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// IsOperatorAssigned проверяет, назначен ли оператор на заявку.
func (r *PostgresAssignmentRepository) IsOperatorAssigned(ctx context.Context, requestID, operatorID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM user_assignment WHERE service_request_id = $1 AND operator_id = $2)`
	err := r.DB.QueryRow(ctx, query, requestID, operatorID).Scan(&exists)
	return exists, err
}

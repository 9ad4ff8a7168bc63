package repository

import (
	"context"
	"errors"

	"github.com/senyabanana/equipment-rental/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository - интерфейс для чтения пользователей.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// PostgresUserRepository - реализация UserRepository для базы данных.
type PostgresUserRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresUserRepository создаёт новый экземпляр PostgresUserRepository.
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// GetUserByID возвращает пользователя по ID.
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.DB.QueryRow(ctx, `SELECT id, name, email, role FROM app_user WHERE id = $1`, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

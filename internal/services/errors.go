package services

import (
	"errors"
	"fmt"

	"github.com/senyabanana/equipment-rental/internal/models"
	"github.com/senyabanana/equipment-rental/internal/repository"

	"github.com/go-playground/validator/v10"
)

func validationError(message string) *models.ServiceError {
	return models.NewServiceError(models.ErrValidation, message)
}

func notFoundError(message string) *models.ServiceError {
	return models.NewServiceError(models.ErrNotFound, message)
}

func forbiddenError(message string) *models.ServiceError {
	return models.NewServiceError(models.ErrInsufficientPermission, message)
}

func databaseError(op string, err error) *models.ServiceError {
	return models.NewServiceError(models.ErrDatabase, fmt.Sprintf("Database error while trying to %s", op)).
		WithDetails(map[string]any{"error": err.Error()})
}

// lookupError переводит ошибку репозитория при чтении в ошибку сервиса.
func lookupError(op, notFoundMessage string, err error) *models.ServiceError {
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundError(notFoundMessage)
	}
	return databaseError(op, err)
}

// structError собирает ошибки validator в одну ошибку VALIDATION_ERROR.
func structError(err error) *models.ServiceError {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return validationError(err.Error())
	}
	fields := make(map[string]any, len(fieldErrors))
	for _, fe := range fieldErrors {
		fields[fe.Field()] = fe.Tag()
	}
	first := fieldErrors[0]
	return validationError(fmt.Sprintf("Field %s failed on the '%s' rule", first.Field(), first.Tag())).
		WithDetails(map[string]any{"fields": fields})
}

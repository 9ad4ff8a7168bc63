package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/senyabanana/equipment-rental/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// SendErrorResponse отправляет ошибку в формате JSON
func SendErrorResponse(w http.ResponseWriter, statusCode int, code models.ErrorCode, message string) {
	SendJSON(w, statusCode, models.ErrorResponse{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	})
}

// SendServiceError отправляет ошибку сервиса с HTTP-кодом по её виду.
// Прочие ошибки отправляются как INTERNAL_ERROR.
func SendServiceError(w http.ResponseWriter, err error) {
	var serviceErr *models.ServiceError
	if errors.As(err, &serviceErr) {
		SendErrorResponse(w, serviceErr.HTTPStatus(), serviceErr.Code, serviceErr.Message)
		return
	}
	SendErrorResponse(w, http.StatusInternalServerError, models.ErrInternal, "internal server error")
}

// SendJSON отправляет тело ответа в формате JSON
func SendJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

// ParseLimitOffset обрабатывает limit и offset
func ParseLimitOffset(limitStr, offsetStr string) (int, int, error) {
	var limit, offset int
	var err error

	if limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > 50 {
			return 0, 0, fmt.Errorf("invalid limit parameter, must be a positive integer [0:50]")
		}
	} else {
		limit = 5
	}

	if offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset parameter, must be a non-negative integer")
		}
	} else {
		offset = 0
	}

	return limit, offset, nil
}

// CallerFromRequest читает уже аутентифицированного пользователя из заголовков запроса.
func CallerFromRequest(r *http.Request) (string, models.UserRole, error) {
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if userID == "" {
		return "", "", fmt.Errorf("missing %s header", HeaderUserID)
	}
	role := models.UserRole(strings.ToUpper(strings.TrimSpace(r.Header.Get(HeaderUserRole))))
	if !role.Valid() {
		return "", "", fmt.Errorf("invalid %s header: %q", HeaderUserRole, role)
	}
	return userID, role, nil
}

// ParseStatuses разбирает статусы из повторяющихся параметров и списков через запятую.
func ParseStatuses(values []string) []models.ServiceRequestStatus {
	var statuses []models.ServiceRequestStatus
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				statuses = append(statuses, models.ServiceRequestStatus(strings.ToUpper(part)))
			}
		}
	}
	return statuses
}

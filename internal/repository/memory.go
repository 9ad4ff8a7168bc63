package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/senyabanana/equipment-rental/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore хранит заявки, пользователей и назначения в памяти процесса.
// Реализует ServiceRequestRepository, UserRepository и AssignmentRepository.
type MemoryStore struct {
	mu          sync.RWMutex
	requests    map[string]models.ServiceRequest
	history     map[string][]models.StatusHistoryEntry
	users       map[string]models.User
	assignments map[string][]models.UserAssignment
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests:    make(map[string]models.ServiceRequest),
		history:     make(map[string][]models.StatusHistoryEntry),
		users:       make(map[string]models.User),
		assignments: make(map[string][]models.UserAssignment),
	}
}

// AddUser добавляет пользователя.
func (m *MemoryStore) AddUser(user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MemoryStore) CreateServiceRequest(_ context.Context, sr *models.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sr.ID == "" {
		sr.ID = uuid.New().String()
	}
	m.requests[sr.ID] = *sr
	return nil
}

func (m *MemoryStore) GetServiceRequestByID(_ context.Context, id string) (*models.ServiceRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sr, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sr, nil
}

func (m *MemoryStore) ListServiceRequests(_ context.Context, filter models.ServiceRequestFilter) ([]models.ServiceRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make(map[models.ServiceRequestStatus]bool, len(filter.Statuses))
	for _, status := range filter.Statuses {
		statuses[status] = true
	}

	var out []models.ServiceRequest
	for _, sr := range m.requests {
		if len(statuses) > 0 && !statuses[sr.Status] {
			continue
		}
		if !m.visibleLocked(sr, filter.UserID, filter.Role) {
			continue
		}
		out = append(out, sr)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryStore) visibleLocked(sr models.ServiceRequest, userID string, role models.UserRole) bool {
	switch role {
	case models.RoleAdmin, models.RoleManager:
		return true
	case models.RoleOperator:
		if sr.UserID == userID {
			return true
		}
		for _, a := range m.assignments[sr.ID] {
			if a.OperatorID == userID {
				return true
			}
		}
		return false
	default:
		return sr.UserID == userID
	}
}

func (m *MemoryStore) CountByOwner(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, sr := range m.requests {
		if sr.UserID == userID {
			count++
		}
	}
	return count, nil
}

// UpdateStatus меняет статус под блокировкой, сверяя текущий статус с from.
func (m *MemoryStore) UpdateStatus(_ context.Context, id string, from, to models.ServiceRequestStatus, entry models.StatusHistoryEntry) (*models.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sr, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sr.Status != from {
		return nil, ErrStatusConflict
	}

	sr.Status = to
	sr.UpdatedAt = entry.CreatedAt
	m.requests[id] = sr

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	prior := from
	entry.ServiceRequestID = id
	entry.FromStatus = &prior
	entry.ToStatus = to
	m.history[id] = append(m.history[id], entry)

	return &sr, nil
}

func (m *MemoryStore) GetStatusHistory(_ context.Context, id string) ([]models.StatusHistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.history[id]
	out := make([]models.StatusHistoryEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

func (m *MemoryStore) SetEstimatedCost(_ context.Context, id string, cost decimal.Decimal) (*models.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sr, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	sr.EstimatedCost = decimal.NewNullDecimal(cost)
	sr.UpdatedAt = time.Now().UTC()
	m.requests[id] = sr
	return &sr, nil
}

func (m *MemoryStore) SetPaymentAmount(_ context.Context, id string, kind models.PaymentKind, expected models.ServiceRequestStatus, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sr, ok := m.requests[id]
	if !ok {
		return ErrNotFound
	}
	if sr.Status != expected {
		return ErrStatusConflict
	}
	if kind == models.FinalPayment {
		sr.FinalAmount = decimal.NewNullDecimal(amount)
	} else {
		sr.DepositAmount = decimal.NewNullDecimal(amount)
	}
	m.requests[id] = sr
	return nil
}

func (m *MemoryStore) MarkPaid(_ context.Context, id string, kind models.PaymentKind, expected models.ServiceRequestStatus, paidAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sr, ok := m.requests[id]
	if !ok {
		return ErrNotFound
	}
	if sr.Status != expected {
		return ErrStatusConflict
	}
	at := paidAt
	if kind == models.FinalPayment {
		sr.FinalPaid = true
		if sr.FinalPaidAt == nil {
			sr.FinalPaidAt = &at
		}
	} else {
		sr.DepositPaid = true
		if sr.DepositPaidAt == nil {
			sr.DepositPaidAt = &at
		}
	}
	m.requests[id] = sr
	return nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *MemoryStore) CreateAssignment(_ context.Context, assignment *models.UserAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if assignment.ID == "" {
		assignment.ID = uuid.New().String()
	}
	m.assignments[assignment.ServiceRequestID] = append(m.assignments[assignment.ServiceRequestID], *assignment)
	return nil
}

func (m *MemoryStore) ListAssignments(_ context.Context, requestID string) ([]models.UserAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.UserAssignment, len(m.assignments[requestID]))
	copy(out, m.assignments[requestID])
	return out, nil
}

func (m *MemoryStore) IsOperatorAssigned(_ context.Context, requestID, operatorID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.assignments[requestID] {
		if a.OperatorID == operatorID {
			return true, nil
		}
	}
	return false, nil
}

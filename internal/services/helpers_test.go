package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/senyabanana/equipment-rental/internal/models"
	"github.com/senyabanana/equipment-rental/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC)

const (
	customerID = "user-1"
	managerID  = "manager-1"
	operatorID = "operator-1"
	adminID    = "admin-1"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestService(t *testing.T) (*ServiceRequestService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	store.AddUser(models.User{ID: customerID, Name: "Casey Customer", Email: "casey@example.com", Role: models.RoleUser})
	store.AddUser(models.User{ID: managerID, Name: "Morgan Manager", Email: "morgan@example.com", Role: models.RoleManager})
	store.AddUser(models.User{ID: operatorID, Name: "Oli Operator", Email: "oli@example.com", Role: models.RoleOperator})
	store.AddUser(models.User{ID: adminID, Name: "Ari Admin", Email: "ari@example.com", Role: models.RoleAdmin})

	svc := NewServiceRequestService(store, store, store, quietLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func seedRequest(t *testing.T, store *repository.MemoryStore, status models.ServiceRequestStatus, mutate ...func(*models.ServiceRequest)) string {
	t.Helper()
	sr := &models.ServiceRequest{
		Title:             "Driveway grading",
		ContactName:       "Casey Customer",
		ContactEmail:      "casey@example.com",
		ContactPhone:      "5125550100",
		JobSite:           "12 Ranch Rd",
		Transport:         models.WeHandleIt,
		StartDate:         fixedNow.Add(7 * 24 * time.Hour),
		EquipmentCategory: models.Bulldozers,
		EquipmentDetail:   "D6",
		DurationType:      models.FullDay,
		DurationValue:     2,
		TotalHours:        16,
		RateType:          models.DailyRate,
		BaseRate:          decimal.NewFromInt(500),
		Status:            status,
		UserID:            customerID,
		CreatedAt:         fixedNow,
		UpdatedAt:         fixedNow,
	}
	for _, fn := range mutate {
		fn(sr)
	}
	require.NoError(t, store.CreateServiceRequest(context.Background(), sr))
	return sr.ID
}

func validCreateRequest() models.ServiceRequestCreateRequest {
	start := fixedNow.Add(14 * 24 * time.Hour)
	return models.ServiceRequestCreateRequest{
		Title:             "Trench for irrigation line",
		ContactName:       "Casey Customer",
		ContactEmail:      "casey@example.com",
		ContactPhone:      "5125550100",
		JobSite:           "12 Ranch Rd",
		Transport:         models.YouHandleIt,
		StartDate:         &start,
		EquipmentCategory: models.Trenchers,
		EquipmentDetail:   "Walk-behind trencher",
		DurationType:      models.FullDay,
		DurationValue:     3,
		RateType:          models.DailyRate,
		BaseRate:          decimal.NewFromInt(250),
	}
}

// countingStore считает записи статуса.
type countingStore struct {
	*repository.MemoryStore
	updates int
}

func (c *countingStore) UpdateStatus(ctx context.Context, id string, from, to models.ServiceRequestStatus, entry models.StatusHistoryEntry) (*models.ServiceRequest, error) {
	c.updates++
	return c.MemoryStore.UpdateStatus(ctx, id, from, to, entry)
}

// failingStore отвечает ошибкой базы на любую запись статуса.
type failingStore struct {
	*repository.MemoryStore
	err error
}

func (f *failingStore) UpdateStatus(context.Context, string, models.ServiceRequestStatus, models.ServiceRequestStatus, models.StatusHistoryEntry) (*models.ServiceRequest, error) {
	return nil, f.err
}

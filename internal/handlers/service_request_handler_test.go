package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/senyabanana/equipment-rental/internal/handlers"
	"github.com/senyabanana/equipment-rental/internal/models"
	"github.com/senyabanana/equipment-rental/internal/repository"
	"github.com/senyabanana/equipment-rental/internal/router"
	"github.com/senyabanana/equipment-rental/internal/services"
	"github.com/senyabanana/equipment-rental/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
	store   *repository.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := repository.NewMemoryStore()
	store.AddUser(models.User{ID: "op-1", Name: "Oli", Email: "oli@example.com", Role: models.RoleOperator})

	svc := services.NewServiceRequestService(store, store, store, logger)
	payments := services.NewPaymentService(store, svc, "system", logger)
	h := handlers.NewServiceRequestHandler(svc, payments, logger, 5*time.Second)

	return &testServer{handler: router.InitRoutes(h, true), store: store}
}

func (s *testServer) do(t *testing.T, method, path, userID string, role models.UserRole, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set(utils.HeaderUserID, userID)
		req.Header.Set(utils.HeaderUserRole, string(role))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seed(t *testing.T, status models.ServiceRequestStatus) string {
	t.Helper()
	sr := &models.ServiceRequest{
		Title:             "Lot clearing",
		ContactName:       "Casey",
		ContactEmail:      "casey@example.com",
		ContactPhone:      "5125550100",
		JobSite:           "Lot 4",
		Transport:         models.YouHandleIt,
		StartDate:         time.Now().Add(72 * time.Hour),
		EquipmentCategory: models.SkidSteersTrackLoaders,
		EquipmentDetail:   "CTL",
		DurationType:      models.HalfDay,
		DurationValue:     1,
		TotalHours:        4,
		RateType:          models.HalfDayRate,
		BaseRate:          decimal.NewFromInt(200),
		Status:            status,
		UserID:            "user-1",
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	require.NoError(t, s.store.CreateServiceRequest(context.Background(), sr))
	return sr.ID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestPing(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/api/ping", "", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCreateServiceRequest(t *testing.T) {
	srv := newTestServer(t)
	start := time.Now().Add(10 * 24 * time.Hour).UTC().Format(time.RFC3339)
	body := `{
		"title": "Pond excavation",
		"contactName": "Casey",
		"contactEmail": "casey@example.com",
		"contactPhone": "5125550100",
		"jobSite": "Lot 4",
		"transport": "WE_HANDLE_IT",
		"startDate": "` + start + `",
		"equipmentCategory": "BACKHOES_EXCAVATORS",
		"equipmentDetail": "Mini excavator",
		"requestedDurationType": "MULTI_DAY",
		"requestedDurationValue": 4,
		"rateType": "DAILY",
		"baseRate": "350"
	}`

	rec := srv.do(t, http.MethodPost, "/api/service-requests", "user-1", models.RoleUser, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.ServiceRequest
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, models.StatusSubmitted, created.Status)
	assert.Equal(t, 32, created.TotalHours)
	assert.Equal(t, "user-1", created.UserID)
}

func TestCreateServiceRequest_RequiresCaller(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/service-requests", "", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, models.ErrUnauthorized, decodeError(t, rec).Code)

	rec = srv.do(t, http.MethodPost, "/api/service-requests", "user-1", "GUEST", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, models.ErrUnauthorized, decodeError(t, rec).Code)

	rec = srv.do(t, http.MethodPost, "/api/service-requests/any/payments/deposit/confirm", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, models.ErrUnauthorized, decodeError(t, rec).Code)
}

func TestChangeStatus(t *testing.T) {
	srv := newTestServer(t)
	id := srv.seed(t, models.StatusSubmitted)

	rec := srv.do(t, http.MethodPost, "/api/service-requests/"+id+"/status", "mgr-1", models.RoleManager,
		`{"newStatus": "UNDER_REVIEW", "reason": "triage"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.ServiceRequest
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, models.StatusUnderReview, updated.Status)

	rec = srv.do(t, http.MethodGet, "/api/service-requests/"+id+"/history", "mgr-1", models.RoleManager, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []models.StatusHistoryEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, "triage", history[0].Reason)
}

func TestChangeStatus_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     models.ServiceRequestStatus
		role       models.UserRole
		body       string
		wantStatus int
		wantCode   models.ErrorCode
	}{
		{name: "invalid transition", status: models.StatusSubmitted, role: models.RoleAdmin, body: `{"newStatus": "CLOSED"}`, wantStatus: http.StatusBadRequest, wantCode: models.ErrInvalidTransition},
		{name: "forbidden", status: models.StatusSubmitted, role: models.RoleUser, body: `{"newStatus": "CANCELLED"}`, wantStatus: http.StatusForbidden, wantCode: models.ErrInsufficientPermission},
		{name: "business rule", status: models.StatusEquipmentConfirmed, role: models.RoleManager, body: `{"newStatus": "DEPOSIT_REQUESTED"}`, wantStatus: http.StatusBadRequest, wantCode: models.ErrBusinessRuleViolation},
		{name: "missing status", status: models.StatusSubmitted, role: models.RoleManager, body: `{}`, wantStatus: http.StatusUnprocessableEntity, wantCode: models.ErrValidation},
		{name: "malformed body", status: models.StatusSubmitted, role: models.RoleManager, body: `{`, wantStatus: http.StatusBadRequest, wantCode: models.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			id := srv.seed(t, tt.status)

			rec := srv.do(t, http.MethodPost, "/api/service-requests/"+id+"/status", "caller", tt.role, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestChangeStatus_NotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/service-requests/missing/status", "mgr-1", models.RoleManager, `{"newStatus": "UNDER_REVIEW"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, models.ErrNotFound, decodeError(t, rec).Code)
}

func TestGetServiceRequest_Access(t *testing.T) {
	srv := newTestServer(t)
	id := srv.seed(t, models.StatusSubmitted)

	rec := srv.do(t, http.MethodGet, "/api/service-requests/"+id, "user-1", models.RoleUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/service-requests/"+id, "user-2", models.RoleUser, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListServiceRequests(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, models.StatusSubmitted)
	srv.seed(t, models.StatusApproved)

	rec := srv.do(t, http.MethodGet, "/api/service-requests?status=APPROVED", "mgr-1", models.RoleManager, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.ServiceRequest
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, models.StatusApproved, list[0].Status)

	rec = srv.do(t, http.MethodGet, "/api/service-requests?limit=0", "mgr-1", models.RoleManager, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/service-requests?status=ARCHIVED", "mgr-1", models.RoleManager, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.ErrInvalidStatus, decodeError(t, rec).Code)
}

func TestAssignOperator(t *testing.T) {
	srv := newTestServer(t)
	id := srv.seed(t, models.StatusOperatorMatching)

	rec := srv.do(t, http.MethodPost, "/api/service-requests/"+id+"/assign", "mgr-1", models.RoleManager,
		`{"operatorId": "op-1", "rate": "75.50", "estimatedHours": 4}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result models.AssignmentResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, models.AssignmentPending, result.Status)

	rec = srv.do(t, http.MethodPost, "/api/service-requests/"+id+"/assign", "user-1", models.RoleUser, `{"operatorId": "op-1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/service-requests/"+id, "op-1", models.RoleOperator, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEstimateAndPayments(t *testing.T) {
	srv := newTestServer(t)
	id := srv.seed(t, models.StatusEquipmentConfirmed)

	rec := srv.do(t, http.MethodPut, "/api/service-requests/"+id+"/estimate", "mgr-1", models.RoleManager, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var estimated models.ServiceRequest
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&estimated))
	assert.Equal(t, "200.00", estimated.EstimatedCost.Decimal.StringFixed(2))

	rec = srv.do(t, http.MethodPost, "/api/service-requests/"+id+"/status", "mgr-1", models.RoleManager, `{"newStatus": "DEPOSIT_REQUESTED"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/service-requests/"+id+"/payments/deposit/open", "mgr-1", models.RoleManager, `{"amount": "100"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/service-requests/"+id+"/payments/deposit/open", "gateway", models.RoleAdmin, `{"amount": "100"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/service-requests/"+id+"/payments/deposit/confirm", "gateway", models.RoleAdmin, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var paid models.ServiceRequest
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&paid))
	assert.Equal(t, models.StatusDepositReceived, paid.Status)
	assert.True(t, paid.DepositPaid)
}

func TestRequestTransitions(t *testing.T) {
	srv := newTestServer(t)
	id := srv.seed(t, models.StatusUnderReview)

	rec := srv.do(t, http.MethodGet, "/api/service-requests/"+id+"/transitions", "mgr-1", models.RoleManager, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		CurrentStatus models.ServiceRequestStatus `json:"currentStatus"`
		Transitions   []models.TransitionOption    `json:"transitions"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, models.StatusUnderReview, resp.CurrentStatus)
	assert.Len(t, resp.Transitions, 3)
	for _, option := range resp.Transitions {
		assert.True(t, option.HasPermission, option.Status)
	}
}

func TestWorkflowTransitions(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/workflow/transitions?status=submitted", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var next []models.ServiceRequestStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&next))
	assert.Equal(t, []models.ServiceRequestStatus{models.StatusUnderReview, models.StatusCancelled}, next)

	rec = srv.do(t, http.MethodGet, "/api/workflow/transitions?status=ARCHIVED", "", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/workflow/transitions", "", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestQuote(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/pricing/quote", "", "", `{
		"durationType": "FULL_DAY",
		"durationValue": 1,
		"baseRate": "100",
		"rateType": "HOURLY",
		"transport": "WE_HANDLE_IT",
		"equipmentCategory": "BULLDOZERS"
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var quote struct {
		TotalHours    int             `json:"totalHours"`
		BaseCost      decimal.Decimal `json:"baseCost"`
		TotalEstimate decimal.Decimal `json:"totalEstimate"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&quote))
	assert.Equal(t, 8, quote.TotalHours)
	assert.True(t, quote.BaseCost.Equal(decimal.NewFromInt(1200)))
	assert.True(t, quote.TotalEstimate.Equal(decimal.NewFromInt(1350)))

	rec = srv.do(t, http.MethodPost, "/api/pricing/quote", "", "", `{
		"durationType": "FULL_DAY",
		"durationValue": 1,
		"baseRate": "100",
		"rateType": "HOURLY",
		"transport": "WE_HANDLE_IT",
		"equipmentCategory": "CRANES"
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.ErrInvalidEquipment, decodeError(t, rec).Code)

	rec = srv.do(t, http.MethodPost, "/api/pricing/quote", "", "", `{
		"durationType": "WEEKLY",
		"durationValue": 4611686018427387905,
		"baseRate": "1500",
		"rateType": "WEEKLY",
		"transport": "YOU_HANDLE_IT",
		"equipmentCategory": "SKID_STEERS_TRACK_LOADERS"
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.ErrInvalidDuration, decodeError(t, rec).Code)
}

func TestCountByOwner(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, models.StatusSubmitted)

	rec := srv.do(t, http.MethodGet, "/api/users/user-1/service-requests/count", "user-1", models.RoleUser, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)

	rec = srv.do(t, http.MethodGet, "/api/users/user-1/service-requests/count", "user-2", models.RoleUser, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodGet, "/api/ping", "", "", "")

	rec := srv.do(t, http.MethodGet, "/metrics", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rental_api_requests_total")
}

package router

import (
	"net/http"

	"github.com/senyabanana/equipment-rental/internal/handlers"
	"github.com/senyabanana/equipment-rental/internal/metrics"
)

// InitRoutes регистрирует маршруты API. При withMetrics добавляется /metrics.
func InitRoutes(h *handlers.ServiceRequestHandler, withMetrics bool) http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern, endpoint string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, metrics.Instrument(endpoint, fn))
	}

	handle("GET /api/ping", "ping", handlers.PingHandler)

	handle("POST /api/service-requests", "create", h.CreateServiceRequest)
	handle("GET /api/service-requests", "list", h.ListServiceRequests)
	handle("GET /api/service-requests/{requestId}", "get", h.GetServiceRequest)
	handle("POST /api/service-requests/{requestId}/status", "change_status", h.ChangeStatus)
	handle("GET /api/service-requests/{requestId}/history", "history", h.GetStatusHistory)
	handle("GET /api/service-requests/{requestId}/transitions", "request_transitions", h.GetRequestTransitions)
	handle("POST /api/service-requests/{requestId}/assign", "assign", h.AssignOperator)
	handle("PUT /api/service-requests/{requestId}/estimate", "estimate", h.SetEstimate)
	handle("POST /api/service-requests/{requestId}/payments/{kind}/open", "payment_open", h.OpenPayment)
	handle("POST /api/service-requests/{requestId}/payments/{kind}/confirm", "payment_confirm", h.ConfirmPayment)

	handle("GET /api/workflow/transitions", "transitions", h.GetValidNextStatuses)
	handle("POST /api/pricing/quote", "quote", h.Quote)
	handle("GET /api/users/{userId}/service-requests/count", "count", h.CountByOwner)

	if withMetrics {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	return mux
}

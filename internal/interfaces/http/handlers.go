package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/velamar/fueleu/internal/application"
	"github.com/velamar/fueleu/internal/domain/compliance"
	"github.com/velamar/fueleu/internal/domain/pooling"
	"github.com/velamar/fueleu/internal/persistence"
)

// ComplianceAPI is the compliance surface consumed by the HTTP layer.
type ComplianceAPI interface {
	GetComplianceBalance(ctx context.Context, shipID string, year int) (*persistence.ComplianceRecord, error)
	GetAdjustedComplianceBalance(ctx context.Context, shipID string, year int) (*float64, error)
	GetAdjustedComplianceBalanceForAllShips(ctx context.Context, year int) ([]persistence.AdjustedBalance, error)
}

// BankingAPI is the banking ledger surface consumed by the HTTP layer.
type BankingAPI interface {
	GetBankRecords(ctx context.Context, shipID string, year int) ([]persistence.BankEntry, error)
	BankComplianceBalance(ctx context.Context, shipID string, year int) (*persistence.BankEntry, error)
	ApplyBankedSurplus(ctx context.Context, shipID string, year int, amount float64) (*persistence.BankEntry, error)
}

// PoolingAPI is the pooling surface consumed by the HTTP layer.
type PoolingAPI interface {
	CreatePool(ctx context.Context, year int, shipIDs []string) ([]persistence.PoolMember, error)
}

// RoutesAPI is the reference-data surface consumed by the HTTP layer.
type RoutesAPI interface {
	GetAllRoutes(ctx context.Context) ([]persistence.Route, error)
	GetComparison(ctx context.Context) ([]application.RouteComparison, error)
	SetRouteAsBaseline(ctx context.Context, id string) (*persistence.Route, error)
}

// Handlers manages all HTTP endpoint handlers
type Handlers struct {
	compliance ComplianceAPI
	banking    BankingAPI
	pooling    PoolingAPI
	routes     RoutesAPI
	metrics    *MetricsRegistry
}

// NewHandlers creates a new handlers instance
func NewHandlers(compliance ComplianceAPI, banking BankingAPI, pooling PoolingAPI, routes RoutesAPI, metrics *MetricsRegistry) *Handlers {
	return &Handlers{
		compliance: compliance,
		banking:    banking,
		pooling:    pooling,
		routes:     routes,
		metrics:    metrics,
	}
}

// GetComplianceBalance handles GET /api/compliance/cb?shipId=&year=
func (h *Handlers) GetComplianceBalance(w http.ResponseWriter, r *http.Request) {
	shipID, year, ok := h.shipYearQuery(w, r)
	if !ok {
		return
	}

	record, err := h.compliance.GetComplianceBalance(r.Context(), shipID, year)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if record == nil {
		h.writeError(w, r, http.StatusNotFound, "compliance_not_found", "Compliance data not found")
		return
	}

	h.writeJSON(w, http.StatusOK, record)
}

// GetAdjustedComplianceBalance handles GET /api/compliance/adjusted-cb?year=[&shipId=].
// Without shipId it reports the whole fleet.
func (h *Handlers) GetAdjustedComplianceBalance(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearQuery(w, r)
	if !ok {
		return
	}

	shipID := r.URL.Query().Get("shipId")
	if shipID == "" {
		balances, err := h.compliance.GetAdjustedComplianceBalanceForAllShips(r.Context(), year)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, balances)
		return
	}

	adjusted, err := h.compliance.GetAdjustedComplianceBalance(r.Context(), shipID, year)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if adjusted == nil {
		h.writeError(w, r, http.StatusNotFound, "compliance_not_found", "Compliance data not found for this ship")
		return
	}

	h.writeJSON(w, http.StatusOK, AdjustedCBResponse{ShipID: shipID, Year: year, AdjustedCB: adjusted})
}

// GetBankRecords handles GET /api/banking/records?shipId=&year=
func (h *Handlers) GetBankRecords(w http.ResponseWriter, r *http.Request) {
	shipID, year, ok := h.shipYearQuery(w, r)
	if !ok {
		return
	}

	records, err := h.banking.GetBankRecords(r.Context(), shipID, year)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if records == nil {
		records = []persistence.BankEntry{}
	}

	h.writeJSON(w, http.StatusOK, records)
}

// Bank handles POST /api/banking/bank
func (h *Handlers) Bank(w http.ResponseWriter, r *http.Request) {
	var req BankRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.ShipID == "" || req.Year == 0 {
		h.writeError(w, r, http.StatusBadRequest, "missing_parameters", "shipId and year are required")
		return
	}

	entry, err := h.banking.BankComplianceBalance(r.Context(), req.ShipID, req.Year)
	if err != nil {
		h.metrics.LedgerOps.WithLabelValues("bank", "error").Inc()
		h.serviceError(w, r, err)
		return
	}
	if entry == nil {
		h.metrics.LedgerOps.WithLabelValues("bank", "rejected").Inc()
		h.writeError(w, r, http.StatusBadRequest, "nothing_to_bank", "Cannot bank negative or zero compliance balance")
		return
	}

	h.metrics.LedgerOps.WithLabelValues("bank", "ok").Inc()
	h.writeJSON(w, http.StatusCreated, entry)
}

// Apply handles POST /api/banking/apply
func (h *Handlers) Apply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.ShipID == "" || req.Year == 0 {
		h.writeError(w, r, http.StatusBadRequest, "missing_parameters", "shipId, year, and amount are required")
		return
	}

	entry, err := h.banking.ApplyBankedSurplus(r.Context(), req.ShipID, req.Year, req.Amount)
	if err != nil {
		var insufficient *persistence.InsufficientSurplusError
		if errors.As(err, &insufficient) {
			h.metrics.LedgerOps.WithLabelValues("apply", "rejected").Inc()
		} else {
			h.metrics.LedgerOps.WithLabelValues("apply", "error").Inc()
		}
		h.serviceError(w, r, err)
		return
	}

	h.metrics.LedgerOps.WithLabelValues("apply", "ok").Inc()
	h.writeJSON(w, http.StatusCreated, entry)
}

// CreatePool handles POST /api/pools
func (h *Handlers) CreatePool(w http.ResponseWriter, r *http.Request) {
	var req CreatePoolRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.Year == 0 || len(req.ShipIDs) == 0 {
		h.writeError(w, r, http.StatusBadRequest, "missing_parameters", "year and an array of shipIds are required")
		return
	}

	members, err := h.pooling.CreatePool(r.Context(), req.Year, req.ShipIDs)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.metrics.PoolsCreated.Inc()
	h.writeJSON(w, http.StatusCreated, members)
}

// ListRoutes handles GET /api/routes
func (h *Handlers) ListRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.routes.GetAllRoutes(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if routes == nil {
		routes = []persistence.Route{}
	}

	h.writeJSON(w, http.StatusOK, routes)
}

// RouteComparison handles GET /api/routes/comparison
func (h *Handlers) RouteComparison(w http.ResponseWriter, r *http.Request) {
	comparison, err := h.routes.GetComparison(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, comparison)
}

// SetBaseline handles PUT /api/routes/{id}/baseline
func (h *Handlers) SetBaseline(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	route, err := h.routes.SetRouteAsBaseline(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if route == nil {
		h.writeError(w, r, http.StatusNotFound, "route_not_found", "Route not found")
		return
	}

	h.writeJSON(w, http.StatusOK, route)
}

// NotFound handles 404 responses
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusNotFound, "endpoint_not_found", "The requested endpoint does not exist")
}

// serviceError maps service-level errors onto HTTP status codes.
func (h *Handlers) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *application.ValidationError
	var invalidRoute *compliance.InvalidRouteError
	var insufficient *persistence.InsufficientSurplusError
	var inadmissible *pooling.InadmissibleError

	switch {
	case errors.As(err, &validation):
		h.writeError(w, r, http.StatusBadRequest, "validation_failed", validation.Error())
	case errors.As(err, &invalidRoute):
		h.writeError(w, r, http.StatusBadRequest, "invalid_route_data", invalidRoute.Error())
	case errors.As(err, &insufficient):
		h.writeError(w, r, http.StatusConflict, "insufficient_surplus", insufficient.Error())
	case errors.As(err, &inadmissible):
		h.writeError(w, r, http.StatusUnprocessableEntity, "pool_inadmissible", inadmissible.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		h.writeError(w, r, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func (h *Handlers) shipYearQuery(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	shipID := r.URL.Query().Get("shipId")
	if shipID == "" {
		h.writeError(w, r, http.StatusBadRequest, "missing_parameters", "shipId and year are required")
		return "", 0, false
	}
	year, ok := h.yearQuery(w, r)
	return shipID, year, ok
}

func (h *Handlers) yearQuery(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		h.writeError(w, r, http.StatusBadRequest, "missing_parameters", "year is required")
		return 0, false
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_parameters", "year must be a number")
		return 0, false
	}
	return year, true
}

func (h *Handlers) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return false
	}
	return true
}

// writeJSON writes JSON response with proper error handling
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"json_encoding_failed"}`, http.StatusInternalServerError)
	}
}

// writeError writes standardized error response
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID := r.Context().Value("request_id")
	if requestID == nil {
		requestID = "unknown"
	}

	h.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: requestID.(string),
		Timestamp: time.Now().UTC(),
	})
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velamar/fueleu/internal/application"
	"github.com/velamar/fueleu/internal/domain/pooling"
	"github.com/velamar/fueleu/internal/persistence"
)

type stubComplianceAPI struct {
	record   *persistence.ComplianceRecord
	adjusted *float64
	fleet    []persistence.AdjustedBalance
	err      error
}

func (s *stubComplianceAPI) GetComplianceBalance(context.Context, string, int) (*persistence.ComplianceRecord, error) {
	return s.record, s.err
}

func (s *stubComplianceAPI) GetAdjustedComplianceBalance(context.Context, string, int) (*float64, error) {
	return s.adjusted, s.err
}

func (s *stubComplianceAPI) GetAdjustedComplianceBalanceForAllShips(context.Context, int) ([]persistence.AdjustedBalance, error) {
	return s.fleet, s.err
}

type stubBankingAPI struct {
	records []persistence.BankEntry
	entry   *persistence.BankEntry
	err     error
}

func (s *stubBankingAPI) GetBankRecords(context.Context, string, int) ([]persistence.BankEntry, error) {
	return s.records, s.err
}

func (s *stubBankingAPI) BankComplianceBalance(context.Context, string, int) (*persistence.BankEntry, error) {
	return s.entry, s.err
}

func (s *stubBankingAPI) ApplyBankedSurplus(context.Context, string, int, float64) (*persistence.BankEntry, error) {
	return s.entry, s.err
}

type stubPoolingAPI struct {
	members []persistence.PoolMember
	err     error
}

func (s *stubPoolingAPI) CreatePool(context.Context, int, []string) ([]persistence.PoolMember, error) {
	return s.members, s.err
}

type stubRoutesAPI struct {
	routes     []persistence.Route
	comparison []application.RouteComparison
	baseline   *persistence.Route
	err        error
}

func (s *stubRoutesAPI) GetAllRoutes(context.Context) ([]persistence.Route, error) {
	return s.routes, s.err
}

func (s *stubRoutesAPI) GetComparison(context.Context) ([]application.RouteComparison, error) {
	return s.comparison, s.err
}

func (s *stubRoutesAPI) SetRouteAsBaseline(context.Context, string) (*persistence.Route, error) {
	return s.baseline, s.err
}

type stubs struct {
	compliance *stubComplianceAPI
	banking    *stubBankingAPI
	pooling    *stubPoolingAPI
	routes     *stubRoutesAPI
}

func newTestHandlers() (*Handlers, *stubs) {
	s := &stubs{
		compliance: &stubComplianceAPI{},
		banking:    &stubBankingAPI{},
		pooling:    &stubPoolingAPI{},
		routes:     &stubRoutesAPI{},
	}
	h := NewHandlers(s.compliance, s.banking, s.pooling, s.routes, NewMetricsRegistry())
	return h, s
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestGetComplianceBalance_MissingParams(t *testing.T) {
	h, _ := newTestHandlers()

	rec := httptest.NewRecorder()
	h.GetComplianceBalance(rec, httptest.NewRequest(http.MethodGet, "/api/compliance/cb", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_parameters", decodeErrorResponse(t, rec).Code)
}

func TestGetComplianceBalance_InvalidYear(t *testing.T) {
	h, _ := newTestHandlers()

	rec := httptest.NewRecorder()
	h.GetComplianceBalance(rec, httptest.NewRequest(http.MethodGet, "/api/compliance/cb?shipId=ship-1&year=banana", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_parameters", decodeErrorResponse(t, rec).Code)
}

func TestGetComplianceBalance_Found(t *testing.T) {
	h, s := newTestHandlers()
	s.compliance.record = &persistence.ComplianceRecord{ID: "cr1", ShipID: "ship-1", Year: 2025, CBgCO2eq: -68191200}

	rec := httptest.NewRecorder()
	h.GetComplianceBalance(rec, httptest.NewRequest(http.MethodGet, "/api/compliance/cb?shipId=ship-1&year=2025", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var record persistence.ComplianceRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&record))
	assert.Equal(t, -68191200.0, record.CBgCO2eq)
}

func TestGetComplianceBalance_NotFound(t *testing.T) {
	h, _ := newTestHandlers()

	rec := httptest.NewRecorder()
	h.GetComplianceBalance(rec, httptest.NewRequest(http.MethodGet, "/api/compliance/cb?shipId=ghost&year=2025", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "compliance_not_found", decodeErrorResponse(t, rec).Code)
}

func TestGetAdjustedComplianceBalance_FleetWideWithoutShipID(t *testing.T) {
	h, s := newTestHandlers()
	adjusted := 100.0
	s.compliance.fleet = []persistence.AdjustedBalance{
		{ShipID: "ship-1", Year: 2025, AdjustedCB: &adjusted},
		{ShipID: "ship-2", Year: 2025, AdjustedCB: nil},
	}

	rec := httptest.NewRecorder()
	h.GetAdjustedComplianceBalance(rec, httptest.NewRequest(http.MethodGet, "/api/compliance/adjusted-cb?year=2025", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var fleet []persistence.AdjustedBalance
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&fleet))
	require.Len(t, fleet, 2)
	assert.Nil(t, fleet[1].AdjustedCB)
}

func TestGetAdjustedComplianceBalance_SingleShip(t *testing.T) {
	h, s := newTestHandlers()
	adjusted := 177944.0
	s.compliance.adjusted = &adjusted

	rec := httptest.NewRecorder()
	h.GetAdjustedComplianceBalance(rec, httptest.NewRequest(http.MethodGet, "/api/compliance/adjusted-cb?shipId=ship-1&year=2025", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body AdjustedCBResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ship-1", body.ShipID)
	require.NotNil(t, body.AdjustedCB)
	assert.Equal(t, 177944.0, *body.AdjustedCB)
}

func TestGetBankRecords_EmptyLedgerIsEmptyArray(t *testing.T) {
	h, _ := newTestHandlers()

	rec := httptest.NewRecorder()
	h.GetBankRecords(rec, httptest.NewRequest(http.MethodGet, "/api/banking/records?shipId=ship-1&year=2025", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload)))
	return rec
}

func TestBank_Created(t *testing.T) {
	h, s := newTestHandlers()
	s.banking.entry = &persistence.BankEntry{ID: "e1", ShipID: "ship-1", Year: 2024, AmountGCO2eq: 500000}

	rec := postJSON(t, h.Bank, "/api/banking/bank", BankRequest{ShipID: "ship-1", Year: 2024})

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestBank_NothingToBank(t *testing.T) {
	h, _ := newTestHandlers()

	rec := postJSON(t, h.Bank, "/api/banking/bank", BankRequest{ShipID: "ship-1", Year: 2024})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(t, rec)
	assert.Equal(t, "nothing_to_bank", body.Code)
	assert.Equal(t, "Cannot bank negative or zero compliance balance", body.Message)
}

func TestBank_InvalidBody(t *testing.T) {
	h, _ := newTestHandlers()

	rec := httptest.NewRecorder()
	h.Bank(rec, httptest.NewRequest(http.MethodPost, "/api/banking/bank", bytes.NewReader([]byte("{not json"))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_body", decodeErrorResponse(t, rec).Code)
}

func TestApply_ValidationErrorIs400(t *testing.T) {
	h, s := newTestHandlers()
	s.banking.err = &application.ValidationError{Field: "amount", Value: -5.0, Reason: "must be a positive number"}

	rec := postJSON(t, h.Apply, "/api/banking/apply", ApplyRequest{ShipID: "ship-1", Year: 2025, Amount: -5})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", decodeErrorResponse(t, rec).Code)
}

func TestApply_InsufficientSurplusIs409(t *testing.T) {
	h, s := newTestHandlers()
	s.banking.err = &persistence.InsufficientSurplusError{
		ShipID: "ship-1", Year: 2025, Requested: 800000, Available: 100000,
	}

	rec := postJSON(t, h.Apply, "/api/banking/apply", ApplyRequest{ShipID: "ship-1", Year: 2025, Amount: 800000})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "insufficient_surplus", decodeErrorResponse(t, rec).Code)
}

func TestApply_Created(t *testing.T) {
	h, s := newTestHandlers()
	s.banking.entry = &persistence.BankEntry{ID: "e3", ShipID: "ship-1", Year: 2025, AmountGCO2eq: -800000}

	rec := postJSON(t, h.Apply, "/api/banking/apply", ApplyRequest{ShipID: "ship-1", Year: 2025, Amount: 800000})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var entry persistence.BankEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entry))
	assert.Equal(t, -800000.0, entry.AmountGCO2eq)
}

func TestCreatePool_InadmissibleIs422(t *testing.T) {
	h, s := newTestHandlers()
	s.pooling.err = &pooling.InadmissibleError{Reason: "total pool balance is negative"}

	rec := postJSON(t, h.CreatePool, "/api/pools", CreatePoolRequest{Year: 2025, ShipIDs: []string{"ship-1", "ship-2"}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "pool_inadmissible", decodeErrorResponse(t, rec).Code)
}

func TestCreatePool_MissingShipIDs(t *testing.T) {
	h, _ := newTestHandlers()

	rec := postJSON(t, h.CreatePool, "/api/pools", CreatePoolRequest{Year: 2025})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_parameters", decodeErrorResponse(t, rec).Code)
}

func TestCreatePool_Created(t *testing.T) {
	h, s := newTestHandlers()
	s.pooling.members = []persistence.PoolMember{
		{PoolID: "p1", ShipID: "ship-1", CBBefore: 1000, CBAfter: 100},
		{PoolID: "p1", ShipID: "ship-2", CBBefore: -500, CBAfter: 0},
	}

	rec := postJSON(t, h.CreatePool, "/api/pools", CreatePoolRequest{Year: 2025, ShipIDs: []string{"ship-1", "ship-2"}})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var members []persistence.PoolMember
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&members))
	require.Len(t, members, 2)
}

func TestSetBaseline_NotFound(t *testing.T) {
	h, _ := newTestHandlers()

	router := mux.NewRouter()
	router.HandleFunc("/api/routes/{id}/baseline", h.SetBaseline).Methods(http.MethodPut)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/routes/missing/baseline", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route_not_found", decodeErrorResponse(t, rec).Code)
}

func TestSetBaseline_OK(t *testing.T) {
	h, s := newTestHandlers()
	s.routes.baseline = &persistence.Route{ID: "2", RouteID: "R2", GHGIntensity: 85, IsBaseline: true}

	router := mux.NewRouter()
	router.HandleFunc("/api/routes/{id}/baseline", h.SetBaseline).Methods(http.MethodPut)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/routes/2/baseline", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var route persistence.Route
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&route))
	assert.True(t, route.IsBaseline)
}

func TestServiceError_UnknownErrorIs500(t *testing.T) {
	h, s := newTestHandlers()
	s.routes.err = errors.New("connection reset")

	rec := httptest.NewRecorder()
	h.ListRoutes(rec, httptest.NewRequest(http.MethodGet, "/api/routes", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeErrorResponse(t, rec).Code)
}

func TestRouteComparison_OK(t *testing.T) {
	h, s := newTestHandlers()
	s.routes.comparison = []application.RouteComparison{
		{Route: persistence.Route{ID: "2", RouteID: "worse", GHGIntensity: 91.234}, PercentDiff: 1.37, Compliant: false},
	}

	rec := httptest.NewRecorder()
	h.RouteComparison(rec, httptest.NewRequest(http.MethodGet, "/api/routes/comparison", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var comparison []application.RouteComparison
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&comparison))
	require.Len(t, comparison, 1)
	assert.Equal(t, 1.37, comparison[0].PercentDiff)
}

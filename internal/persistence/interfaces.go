package persistence

import (
	"context"
	"time"
)

// ComplianceRecord is a ship-year compliance balance in gCO2eq.
// One record exists per (ship_id, year); writes go through an upsert so
// concurrent first computations converge on a single row.
type ComplianceRecord struct {
	ID       string  `json:"id" db:"id"`
	ShipID   string  `json:"ship_id" db:"ship_id"`
	Year     int     `json:"year" db:"year"`
	CBgCO2eq float64 `json:"cb_gco2eq" db:"cb_gco2eq"`
}

// BankEntry is one row of the append-only banking ledger. Positive amounts
// record banked surplus, negative amounts record applications of it.
// Entries are never mutated or deleted.
type BankEntry struct {
	ID           string  `json:"id" db:"id"`
	ShipID       string  `json:"ship_id" db:"ship_id"`
	Year         int     `json:"year" db:"year"`
	AmountGCO2eq float64 `json:"amount_gco2eq" db:"amount_gco2eq"`
}

// Pool is a compliance pool for a given year.
type Pool struct {
	ID        string    `json:"id" db:"id"`
	Year      int       `json:"year" db:"year"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PoolMember records a ship's balance before and after pool allocation.
type PoolMember struct {
	PoolID   string  `json:"pool_id" db:"pool_id"`
	ShipID   string  `json:"ship_id" db:"ship_id"`
	CBBefore float64 `json:"cb_before" db:"cb_before"`
	CBAfter  float64 `json:"cb_after" db:"cb_after"`
}

// Route is voyage reference data used for compliance computation.
// Read-only to this service apart from the baseline marker.
type Route struct {
	ID              string  `json:"id" db:"id"`
	RouteID         string  `json:"route_id" db:"route_id"`
	Year            int     `json:"year" db:"year"`
	GHGIntensity    float64 `json:"ghg_intensity" db:"ghg_intensity"`
	FuelConsumption float64 `json:"fuel_consumption" db:"fuel_consumption"`
	Distance        float64 `json:"distance" db:"distance"`
	TotalEmissions  float64 `json:"total_emissions" db:"total_emissions"`
	IsBaseline      bool    `json:"is_baseline" db:"is_baseline"`
	VesselType      string  `json:"vessel_type" db:"vessel_type"`
	FuelType        string  `json:"fuel_type" db:"fuel_type"`
}

// Ship maps a ship identity to the route used for its compliance computation.
type Ship struct {
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	RouteID string `json:"route_id" db:"route_id"`
}

// AdjustedBalance is the fleet-report read model: a ship's compliance balance
// plus cumulative banked surplus. AdjustedCB is nil when the balance could not
// be computed (missing or malformed route data).
type AdjustedBalance struct {
	ShipID     string   `json:"shipId"`
	Year       int      `json:"year"`
	AdjustedCB *float64 `json:"adjustedCb"`
}

// ComplianceRepo persists computed compliance balances.
type ComplianceRepo interface {
	// FindByShipIDAndYear returns the cached record, or nil when absent.
	FindByShipIDAndYear(ctx context.Context, shipID string, year int) (*ComplianceRecord, error)

	// Save upserts on (ship_id, year); the first successful write wins races.
	Save(ctx context.Context, record ComplianceRecord) (*ComplianceRecord, error)
}

// BankingRepo persists the append-only banking ledger.
type BankingRepo interface {
	// FindByShipIDAndYear lists a ship's ledger entries for one year.
	FindByShipIDAndYear(ctx context.Context, shipID string, year int) ([]BankEntry, error)

	// Save appends a ledger entry.
	Save(ctx context.Context, entry BankEntry) (*BankEntry, error)

	// GetTotalBanked sums all entries for the ship with entry year <= year.
	GetTotalBanked(ctx context.Context, shipID string, year int) (float64, error)

	// ApplyWithinTransaction locks the ship's contributing rows, recomputes the
	// available surplus and appends the (negative) entry in one transaction.
	// Returns InsufficientSurplusError when the withdrawal would overdraw.
	ApplyWithinTransaction(ctx context.Context, shipID string, year int, entry BankEntry) (*BankEntry, error)
}

// PoolingRepo persists pools and their members.
type PoolingRepo interface {
	// SavePoolWithMembers inserts the pool and every member atomically.
	// A pool row without its members is never observable.
	SavePoolWithMembers(ctx context.Context, pool Pool, members []PoolMember) error

	// GetPoolMembers lists the members of a pool.
	GetPoolMembers(ctx context.Context, poolID string) ([]PoolMember, error)
}

// RoutesRepo reads voyage reference data.
type RoutesRepo interface {
	FindAll(ctx context.Context) ([]Route, error)
	FindByID(ctx context.Context, id string) (*Route, error)
	FindByRouteID(ctx context.Context, routeID string) (*Route, error)
	FindBaseline(ctx context.Context) (*Route, error)
	FindNonBaselineRoutes(ctx context.Context) ([]Route, error)

	// SetBaseline atomically clears the current baseline and marks the given
	// route, returning the updated row.
	SetBaseline(ctx context.Context, id string) (*Route, error)
}

// ShipsRepo reads the ship registry.
type ShipsRepo interface {
	FindByID(ctx context.Context, shipID string) (*Ship, error)
	GetAllShips(ctx context.Context) ([]Ship, error)
}

// Repository aggregates all persistence interfaces.
type Repository struct {
	Compliance ComplianceRepo
	Banking    BankingRepo
	Pooling    PoolingRepo
	Routes     RoutesRepo
	Ships      ShipsRepo
}

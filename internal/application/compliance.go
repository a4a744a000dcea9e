package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/velamar/fueleu/internal/domain/compliance"
	"github.com/velamar/fueleu/internal/persistence"
)

// FleetReportCache caches the fleet-wide adjusted balance report. A nil cache
// disables caching; a failing cache must degrade to a miss, never an error.
type FleetReportCache interface {
	Get(ctx context.Context, year int) ([]persistence.AdjustedBalance, bool)
	Set(ctx context.Context, year int, balances []persistence.AdjustedBalance)
}

// ComplianceService derives and caches ship-year compliance balances.
type ComplianceService struct {
	compliance persistence.ComplianceRepo
	routes     persistence.RoutesRepo
	ships      persistence.ShipsRepo
	banking    persistence.BankingRepo
	params     compliance.Params

	// legacyRouteFallback treats an unknown ship id as a route id, matching the
	// behavior of early imports where ships were keyed by route. Deprecated;
	// off unless explicitly configured.
	legacyRouteFallback bool

	fleetCache FleetReportCache
}

// NewComplianceService creates a compliance service. fleetCache may be nil.
func NewComplianceService(repos *persistence.Repository, params compliance.Params, legacyRouteFallback bool, fleetCache FleetReportCache) *ComplianceService {
	return &ComplianceService{
		compliance:          repos.Compliance,
		routes:              repos.Routes,
		ships:               repos.Ships,
		banking:             repos.Banking,
		params:              params,
		legacyRouteFallback: legacyRouteFallback,
		fleetCache:          fleetCache,
	}
}

// GetComplianceBalance returns the ship-year compliance record, computing and
// persisting it on first access. A cached record is returned unchanged; it is
// not recomputed when route data changes later. Returns (nil, nil) when the
// ship's route cannot be resolved.
func (s *ComplianceService) GetComplianceBalance(ctx context.Context, shipID string, year int) (*persistence.ComplianceRecord, error) {
	existing, err := s.compliance.FindByShipIDAndYear(ctx, shipID, year)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	route, err := s.resolveRoute(ctx, shipID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, nil
	}

	cb, err := s.params.Balance(*route)
	if err != nil {
		return nil, err
	}

	record := persistence.ComplianceRecord{
		ID:       uuid.NewString(),
		ShipID:   shipID,
		Year:     year,
		CBgCO2eq: cb,
	}

	// Upsert: concurrent first computations race benignly, the computation is
	// deterministic for fixed route data.
	return s.compliance.Save(ctx, record)
}

// GetAdjustedComplianceBalance returns the ship's compliance balance plus its
// cumulative banked surplus, or nil when no balance could be produced.
func (s *ComplianceService) GetAdjustedComplianceBalance(ctx context.Context, shipID string, year int) (*float64, error) {
	record, err := s.GetComplianceBalance(ctx, shipID, year)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	banked, err := s.banking.GetTotalBanked(ctx, shipID, year)
	if err != nil {
		return nil, err
	}

	adjusted := record.CBgCO2eq + banked
	return &adjusted, nil
}

// GetAdjustedComplianceBalanceForAllShips reports the adjusted balance of every
// known ship. A ship whose computation fails is reported with a nil balance
// instead of aborting the batch.
func (s *ComplianceService) GetAdjustedComplianceBalanceForAllShips(ctx context.Context, year int) ([]persistence.AdjustedBalance, error) {
	if s.fleetCache != nil {
		if cached, ok := s.fleetCache.Get(ctx, year); ok {
			return cached, nil
		}
	}

	ships, err := s.ships.GetAllShips(ctx)
	if err != nil {
		return nil, err
	}

	balances := make([]persistence.AdjustedBalance, 0, len(ships))
	for _, ship := range ships {
		entry := persistence.AdjustedBalance{ShipID: ship.ID, Year: year}

		adjusted, err := s.GetAdjustedComplianceBalance(ctx, ship.ID, year)
		if err != nil {
			log.Warn().Err(err).Str("ship_id", ship.ID).Int("year", year).
				Msg("skipping ship in fleet report")
		} else {
			entry.AdjustedCB = adjusted
		}

		balances = append(balances, entry)
	}

	if s.fleetCache != nil {
		s.fleetCache.Set(ctx, year, balances)
	}

	return balances, nil
}

// resolveRoute maps a ship to its route. When the ship is unknown and the
// legacy fallback is enabled, the ship id itself is tried as a route id.
func (s *ComplianceService) resolveRoute(ctx context.Context, shipID string) (*persistence.Route, error) {
	ship, err := s.ships.FindByID(ctx, shipID)
	if err != nil {
		return nil, err
	}
	if ship != nil {
		return s.routes.FindByRouteID(ctx, ship.RouteID)
	}

	if !s.legacyRouteFallback {
		return nil, nil
	}

	log.Warn().Str("ship_id", shipID).
		Msg("ship not registered, treating ship id as route id (deprecated fallback)")
	return s.routes.FindByRouteID(ctx, shipID)
}

package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/velamar/fueleu/internal/domain/pooling"
	"github.com/velamar/fueleu/internal/persistence"
)

// PoolingService forms compliance pools where surplus members offset deficit
// members.
type PoolingService struct {
	pooling    persistence.PoolingRepo
	compliance persistence.ComplianceRepo
	banking    persistence.BankingRepo
}

// NewPoolingService creates a pooling service.
func NewPoolingService(repos *persistence.Repository) *PoolingService {
	return &PoolingService{
		pooling:    repos.Pooling,
		compliance: repos.Compliance,
		banking:    repos.Banking,
	}
}

// CreatePool allocates a pool for the given ships and persists it atomically.
// Each member enters with its adjusted balance (recorded compliance balance
// plus cumulative banked surplus) at formation time. Validation and allocation
// happen before anything is persisted; an inadmissible pool leaves no state
// behind. Members of concurrent pools are not reserved against each other.
func (s *PoolingService) CreatePool(ctx context.Context, year int, shipIDs []string) ([]persistence.PoolMember, error) {
	if len(shipIDs) == 0 {
		return nil, &ValidationError{Field: "shipIds", Value: shipIDs, Reason: "at least one ship is required"}
	}

	members := make([]pooling.Member, 0, len(shipIDs))
	for _, shipID := range shipIDs {
		record, err := s.compliance.FindByShipIDAndYear(ctx, shipID, year)
		if err != nil {
			return nil, err
		}
		banked, err := s.banking.GetTotalBanked(ctx, shipID, year)
		if err != nil {
			return nil, err
		}

		cb := banked
		if record != nil {
			cb += record.CBgCO2eq
		}
		members = append(members, pooling.Member{ShipID: shipID, CBBefore: cb})
	}

	allocated, err := pooling.Allocate(members)
	if err != nil {
		return nil, err
	}

	pool := persistence.Pool{
		ID:        uuid.NewString(),
		Year:      year,
		CreatedAt: time.Now().UTC(),
	}

	poolMembers := make([]persistence.PoolMember, len(allocated))
	for i, m := range allocated {
		poolMembers[i] = persistence.PoolMember{
			PoolID:   pool.ID,
			ShipID:   m.ShipID,
			CBBefore: m.CBBefore,
			CBAfter:  m.CBAfter,
		}
	}

	if err := s.pooling.SavePoolWithMembers(ctx, pool, poolMembers); err != nil {
		return nil, err
	}

	log.Info().Str("pool_id", pool.ID).Int("year", year).Int("members", len(poolMembers)).
		Msg("compliance pool created")

	return poolMembers, nil
}

package application

import (
	"context"
	"fmt"
	"math"

	"github.com/velamar/fueleu/internal/persistence"
)

func shipYearKey(shipID string, year int) string {
	return fmt.Sprintf("%s|%d", shipID, year)
}

type fakeComplianceRepo struct {
	records   map[string]persistence.ComplianceRecord
	findErr   error
	saveErr   error
	saveCalls int
}

func newFakeComplianceRepo() *fakeComplianceRepo {
	return &fakeComplianceRepo{records: make(map[string]persistence.ComplianceRecord)}
}

func (f *fakeComplianceRepo) FindByShipIDAndYear(_ context.Context, shipID string, year int) (*persistence.ComplianceRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	record, ok := f.records[shipYearKey(shipID, year)]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (f *fakeComplianceRepo) Save(_ context.Context, record persistence.ComplianceRecord) (*persistence.ComplianceRecord, error) {
	f.saveCalls++
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.records[shipYearKey(record.ShipID, record.Year)] = record
	return &record, nil
}

type fakeBankingRepo struct {
	entries  []persistence.BankEntry
	findErr  error
	saveErr  error
	applyErr error
}

func (f *fakeBankingRepo) FindByShipIDAndYear(_ context.Context, shipID string, year int) ([]persistence.BankEntry, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	matched := []persistence.BankEntry{}
	for _, e := range f.entries {
		if e.ShipID == shipID && e.Year == year {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (f *fakeBankingRepo) Save(_ context.Context, entry persistence.BankEntry) (*persistence.BankEntry, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.entries = append(f.entries, entry)
	return &entry, nil
}

func (f *fakeBankingRepo) GetTotalBanked(_ context.Context, shipID string, year int) (float64, error) {
	if f.findErr != nil {
		return 0, f.findErr
	}
	return f.totalBanked(shipID, year), nil
}

func (f *fakeBankingRepo) ApplyWithinTransaction(_ context.Context, shipID string, year int, entry persistence.BankEntry) (*persistence.BankEntry, error) {
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	available := f.totalBanked(shipID, year)
	requested := math.Abs(entry.AmountGCO2eq)
	if requested > available {
		return nil, &persistence.InsufficientSurplusError{
			ShipID:    shipID,
			Year:      year,
			Requested: requested,
			Available: available,
		}
	}
	f.entries = append(f.entries, entry)
	return &entry, nil
}

func (f *fakeBankingRepo) totalBanked(shipID string, year int) float64 {
	total := 0.0
	for _, e := range f.entries {
		if e.ShipID == shipID && e.Year <= year {
			total += e.AmountGCO2eq
		}
	}
	return total
}

type fakePoolingRepo struct {
	pools   []persistence.Pool
	members []persistence.PoolMember
	saveErr error
}

func (f *fakePoolingRepo) SavePoolWithMembers(_ context.Context, pool persistence.Pool, members []persistence.PoolMember) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.pools = append(f.pools, pool)
	f.members = append(f.members, members...)
	return nil
}

func (f *fakePoolingRepo) GetPoolMembers(_ context.Context, poolID string) ([]persistence.PoolMember, error) {
	matched := []persistence.PoolMember{}
	for _, m := range f.members {
		if m.PoolID == poolID {
			matched = append(matched, m)
		}
	}
	return matched, nil
}

type fakeRoutesRepo struct {
	routes  []persistence.Route
	findErr error
}

func (f *fakeRoutesRepo) FindAll(_ context.Context) ([]persistence.Route, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return append([]persistence.Route{}, f.routes...), nil
}

func (f *fakeRoutesRepo) FindByID(_ context.Context, id string) (*persistence.Route, error) {
	for _, r := range f.routes {
		if r.ID == id {
			route := r
			return &route, nil
		}
	}
	return nil, nil
}

func (f *fakeRoutesRepo) FindByRouteID(_ context.Context, routeID string) (*persistence.Route, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, r := range f.routes {
		if r.RouteID == routeID {
			route := r
			return &route, nil
		}
	}
	return nil, nil
}

func (f *fakeRoutesRepo) FindBaseline(_ context.Context) (*persistence.Route, error) {
	for _, r := range f.routes {
		if r.IsBaseline {
			route := r
			return &route, nil
		}
	}
	return nil, nil
}

func (f *fakeRoutesRepo) FindNonBaselineRoutes(_ context.Context) ([]persistence.Route, error) {
	matched := []persistence.Route{}
	for _, r := range f.routes {
		if !r.IsBaseline {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

func (f *fakeRoutesRepo) SetBaseline(_ context.Context, id string) (*persistence.Route, error) {
	var updated *persistence.Route
	for i := range f.routes {
		f.routes[i].IsBaseline = f.routes[i].ID == id
		if f.routes[i].IsBaseline {
			updated = &f.routes[i]
		}
	}
	return updated, nil
}

type fakeShipsRepo struct {
	ships   []persistence.Ship
	findErr error
}

func (f *fakeShipsRepo) FindByID(_ context.Context, shipID string) (*persistence.Ship, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, s := range f.ships {
		if s.ID == shipID {
			ship := s
			return &ship, nil
		}
	}
	return nil, nil
}

func (f *fakeShipsRepo) GetAllShips(_ context.Context) ([]persistence.Ship, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return append([]persistence.Ship{}, f.ships...), nil
}

type fakeFleetCache struct {
	data     map[int][]persistence.AdjustedBalance
	getCalls int
	setCalls int
}

func newFakeFleetCache() *fakeFleetCache {
	return &fakeFleetCache{data: make(map[int][]persistence.AdjustedBalance)}
}

func (f *fakeFleetCache) Get(_ context.Context, year int) ([]persistence.AdjustedBalance, bool) {
	f.getCalls++
	balances, ok := f.data[year]
	return balances, ok
}

func (f *fakeFleetCache) Set(_ context.Context, year int, balances []persistence.AdjustedBalance) {
	f.setCalls++
	f.data[year] = balances
}

type fakeRepos struct {
	compliance *fakeComplianceRepo
	banking    *fakeBankingRepo
	pooling    *fakePoolingRepo
	routes     *fakeRoutesRepo
	ships      *fakeShipsRepo
}

func newFakeRepos() (*persistence.Repository, *fakeRepos) {
	fakes := &fakeRepos{
		compliance: newFakeComplianceRepo(),
		banking:    &fakeBankingRepo{},
		pooling:    &fakePoolingRepo{},
		routes:     &fakeRoutesRepo{},
		ships:      &fakeShipsRepo{},
	}
	repos := &persistence.Repository{
		Compliance: fakes.compliance,
		Banking:    fakes.banking,
		Pooling:    fakes.pooling,
		Routes:     fakes.routes,
		Ships:      fakes.ships,
	}
	return repos, fakes
}

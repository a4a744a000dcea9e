package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/velamar/fueleu/internal/persistence"
)

const routeColumns = `id, route_id, year, ghg_intensity, fuel_consumption, distance,
	total_emissions, is_baseline, vessel_type, fuel_type`

// routesRepo implements RoutesRepo for PostgreSQL
type routesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRoutesRepo creates a new PostgreSQL routes repository
func NewRoutesRepo(db *sqlx.DB, timeout time.Duration) persistence.RoutesRepo {
	return &routesRepo{db: db, timeout: timeout}
}

func (r *routesRepo) FindAll(ctx context.Context) ([]persistence.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryxContext(ctx, `SELECT `+routeColumns+` FROM routes ORDER BY route_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	return scanRoutes(rows)
}

func (r *routesRepo) FindByID(ctx context.Context, id string) (*persistence.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	route, err := scanRoute(r.db.QueryRowxContext(ctx,
		`SELECT `+routeColumns+` FROM routes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query route by id: %w", err)
	}

	return route, nil
}

func (r *routesRepo) FindByRouteID(ctx context.Context, routeID string) (*persistence.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	route, err := scanRoute(r.db.QueryRowxContext(ctx,
		`SELECT `+routeColumns+` FROM routes WHERE route_id = $1`, routeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query route by route_id: %w", err)
	}

	return route, nil
}

func (r *routesRepo) FindBaseline(ctx context.Context) (*persistence.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	route, err := scanRoute(r.db.QueryRowxContext(ctx,
		`SELECT `+routeColumns+` FROM routes WHERE is_baseline = TRUE`))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query baseline route: %w", err)
	}

	return route, nil
}

func (r *routesRepo) FindNonBaselineRoutes(ctx context.Context) ([]persistence.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryxContext(ctx,
		`SELECT `+routeColumns+` FROM routes WHERE is_baseline = FALSE ORDER BY route_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query non-baseline routes: %w", err)
	}
	defer rows.Close()

	return scanRoutes(rows)
}

// SetBaseline clears the current baseline and marks the given route within one
// transaction so at most one baseline exists at any point.
func (r *routesRepo) SetBaseline(ctx context.Context, id string) (*persistence.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin baseline transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `UPDATE routes SET is_baseline = FALSE WHERE is_baseline = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("failed to clear baseline: %w", err)
	}

	route, err := scanRoute(tx.QueryRowxContext(ctx,
		`UPDATE routes SET is_baseline = TRUE WHERE id = $1 RETURNING `+routeColumns, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to set baseline: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit baseline transaction: %w", err)
	}

	return route, nil
}

func scanRoutes(rows *sqlx.Rows) ([]persistence.Route, error) {
	var routes []persistence.Route

	for rows.Next() {
		route, err := scanRouteFromRows(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, *route)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating routes: %w", err)
	}

	return routes, nil
}

func scanRoute(row *sqlx.Row) (*persistence.Route, error) {
	var route persistence.Route
	var ghg, fuel, distance, emissions sql.NullString

	err := row.Scan(
		&route.ID, &route.RouteID, &route.Year, &ghg, &fuel,
		&distance, &emissions, &route.IsBaseline, &route.VesselType, &route.FuelType)
	if err != nil {
		return nil, err
	}

	return fillRouteNumerics(&route, ghg, fuel, distance, emissions)
}

func scanRouteFromRows(rows *sqlx.Rows) (*persistence.Route, error) {
	var route persistence.Route
	var ghg, fuel, distance, emissions sql.NullString

	err := rows.Scan(
		&route.ID, &route.RouteID, &route.Year, &ghg, &fuel,
		&distance, &emissions, &route.IsBaseline, &route.VesselType, &route.FuelType)
	if err != nil {
		return nil, fmt.Errorf("failed to scan route: %w", err)
	}

	return fillRouteNumerics(&route, ghg, fuel, distance, emissions)
}

func fillRouteNumerics(route *persistence.Route, ghg, fuel, distance, emissions sql.NullString) (*persistence.Route, error) {
	var err error
	if route.GHGIntensity, err = parseNumeric(ghg); err != nil {
		return nil, err
	}
	if route.FuelConsumption, err = parseNumeric(fuel); err != nil {
		return nil, err
	}
	if route.Distance, err = parseNumeric(distance); err != nil {
		return nil, err
	}
	if route.TotalEmissions, err = parseNumeric(emissions); err != nil {
		return nil, err
	}
	return route, nil
}

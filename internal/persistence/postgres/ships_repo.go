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

// shipsRepo implements ShipsRepo for PostgreSQL
type shipsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewShipsRepo creates a new PostgreSQL ships repository
func NewShipsRepo(db *sqlx.DB, timeout time.Duration) persistence.ShipsRepo {
	return &shipsRepo{db: db, timeout: timeout}
}

func (r *shipsRepo) FindByID(ctx context.Context, shipID string) (*persistence.Ship, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var ship persistence.Ship
	err := r.db.QueryRowxContext(ctx,
		`SELECT id, name, route_id FROM ships WHERE id = $1`, shipID).
		Scan(&ship.ID, &ship.Name, &ship.RouteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query ship: %w", err)
	}

	return &ship, nil
}

func (r *shipsRepo) GetAllShips(ctx context.Context) ([]persistence.Ship, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryxContext(ctx, `SELECT id, name, route_id FROM ships ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ships: %w", err)
	}
	defer rows.Close()

	var ships []persistence.Ship
	for rows.Next() {
		var ship persistence.Ship
		if err := rows.Scan(&ship.ID, &ship.Name, &ship.RouteID); err != nil {
			return nil, fmt.Errorf("failed to scan ship: %w", err)
		}
		ships = append(ships, ship)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ships: %w", err)
	}

	return ships, nil
}

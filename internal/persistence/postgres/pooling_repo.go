package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/velamar/fueleu/internal/persistence"
)

// poolingRepo implements PoolingRepo for PostgreSQL
type poolingRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPoolingRepo creates a new PostgreSQL pooling repository
func NewPoolingRepo(db *sqlx.DB, timeout time.Duration) persistence.PoolingRepo {
	return &poolingRepo{db: db, timeout: timeout}
}

// SavePoolWithMembers inserts the pool row and every member row in a single
// transaction. Any failure rolls back completely; a pool without its full
// member set is never observable.
func (r *poolingRepo) SavePoolWithMembers(ctx context.Context, pool persistence.Pool, members []persistence.PoolMember) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin pool transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pools (id, year, created_at) VALUES ($1, $2, $3)`,
		pool.ID, pool.Year, pool.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pool: %w", err)
	}

	for _, member := range members {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO pool_members (pool_id, ship_id, cb_before, cb_after) VALUES ($1, $2, $3, $4)`,
			member.PoolID, member.ShipID, member.CBBefore, member.CBAfter)
		if err != nil {
			return fmt.Errorf("failed to insert pool member %s: %w", member.ShipID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pool transaction: %w", err)
	}

	return nil
}

// GetPoolMembers lists the members of a pool.
func (r *poolingRepo) GetPoolMembers(ctx context.Context, poolID string) ([]persistence.PoolMember, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT pool_id, ship_id, cb_before, cb_after
		FROM pool_members
		WHERE pool_id = $1`

	rows, err := r.db.QueryxContext(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pool members: %w", err)
	}
	defer rows.Close()

	var members []persistence.PoolMember
	for rows.Next() {
		var member persistence.PoolMember
		var before, after sql.NullString

		if err := rows.Scan(&member.PoolID, &member.ShipID, &before, &after); err != nil {
			return nil, fmt.Errorf("failed to scan pool member: %w", err)
		}

		if member.CBBefore, err = parseNumeric(before); err != nil {
			return nil, err
		}
		if member.CBAfter, err = parseNumeric(after); err != nil {
			return nil, err
		}

		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pool members: %w", err)
	}

	return members, nil
}

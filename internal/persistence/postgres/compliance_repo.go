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

// complianceRepo implements ComplianceRepo for PostgreSQL
type complianceRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewComplianceRepo creates a new PostgreSQL compliance repository
func NewComplianceRepo(db *sqlx.DB, timeout time.Duration) persistence.ComplianceRepo {
	return &complianceRepo{db: db, timeout: timeout}
}

// FindByShipIDAndYear returns the cached compliance record, or nil when no
// balance has been computed for the ship-year yet.
func (r *complianceRepo) FindByShipIDAndYear(ctx context.Context, shipID string, year int) (*persistence.ComplianceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, ship_id, year, cb_gco2eq
		FROM ship_compliance
		WHERE ship_id = $1 AND year = $2`

	record, err := scanComplianceRecord(r.db.QueryRowxContext(ctx, query, shipID, year))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query compliance record: %w", err)
	}

	return record, nil
}

// Save upserts the record on (ship_id, year). The computation is deterministic
// for fixed route data, so concurrent first writers converge on the same value.
func (r *complianceRepo) Save(ctx context.Context, record persistence.ComplianceRecord) (*persistence.ComplianceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO ship_compliance (id, ship_id, year, cb_gco2eq)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ship_id, year) DO UPDATE SET cb_gco2eq = EXCLUDED.cb_gco2eq
		RETURNING id, ship_id, year, cb_gco2eq`

	saved, err := scanComplianceRecord(r.db.QueryRowxContext(ctx, query,
		record.ID, record.ShipID, record.Year, record.CBgCO2eq))
	if err != nil {
		return nil, fmt.Errorf("failed to save compliance record for ship %s year %d: %w",
			record.ShipID, record.Year, err)
	}

	return saved, nil
}

func scanComplianceRecord(row *sqlx.Row) (*persistence.ComplianceRecord, error) {
	var record persistence.ComplianceRecord
	var cb sql.NullString

	if err := row.Scan(&record.ID, &record.ShipID, &record.Year, &cb); err != nil {
		return nil, err
	}

	value, err := parseNumeric(cb)
	if err != nil {
		return nil, err
	}
	record.CBgCO2eq = value

	return &record, nil
}

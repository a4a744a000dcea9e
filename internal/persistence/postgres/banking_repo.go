package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/velamar/fueleu/internal/persistence"
)

// bankingRepo implements BankingRepo for PostgreSQL
type bankingRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewBankingRepo creates a new PostgreSQL banking ledger repository
func NewBankingRepo(db *sqlx.DB, timeout time.Duration) persistence.BankingRepo {
	return &bankingRepo{db: db, timeout: timeout}
}

// FindByShipIDAndYear lists a ship's ledger entries for one year.
func (r *bankingRepo) FindByShipIDAndYear(ctx context.Context, shipID string, year int) ([]persistence.BankEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, ship_id, year, amount_gco2eq
		FROM bank_entries
		WHERE ship_id = $1 AND year = $2
		ORDER BY year ASC`

	rows, err := r.db.QueryxContext(ctx, query, shipID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query bank entries: %w", err)
	}
	defer rows.Close()

	return scanBankEntries(rows)
}

// Save appends a ledger entry. Entries are never updated in place.
func (r *bankingRepo) Save(ctx context.Context, entry persistence.BankEntry) (*persistence.BankEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO bank_entries (id, ship_id, year, amount_gco2eq)
		VALUES ($1, $2, $3, $4)
		RETURNING id, ship_id, year, amount_gco2eq`

	saved, err := scanBankEntryRow(r.db.QueryRowxContext(ctx, query,
		entry.ID, entry.ShipID, entry.Year, entry.AmountGCO2eq))
	if err != nil {
		return nil, fmt.Errorf("failed to save bank entry for ship %s year %d: %w",
			entry.ShipID, entry.Year, err)
	}

	return saved, nil
}

// GetTotalBanked sums all entries with entry year <= year. The sum is the
// surplus still available: applications are negative rows in the same ledger.
func (r *bankingRepo) GetTotalBanked(ctx context.Context, shipID string, year int) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT COALESCE(SUM(amount_gco2eq), 0)
		FROM bank_entries
		WHERE ship_id = $1 AND year <= $2`

	var sum sql.NullString
	if err := r.db.QueryRowxContext(ctx, query, shipID, year).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum bank entries: %w", err)
	}

	total, err := parseNumeric(sum)
	if err != nil {
		return 0, fmt.Errorf("failed to read banked total: %w", err)
	}

	return total, nil
}

// ApplyWithinTransaction locks all contributing rows with SELECT ... FOR UPDATE,
// recomputes the available surplus and appends the withdrawal inside the same
// transaction. Concurrent applies for the same ship serialize on the row locks,
// so two callers can never both spend the same surplus.
func (r *bankingRepo) ApplyWithinTransaction(ctx context.Context, shipID string, year int, entry persistence.BankEntry) (*persistence.BankEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin apply transaction: %w", err)
	}
	defer tx.Rollback()

	lockQuery := `
		SELECT amount_gco2eq
		FROM bank_entries
		WHERE ship_id = $1 AND year <= $2
		FOR UPDATE`

	rows, err := tx.QueryxContext(ctx, lockQuery, shipID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to lock bank entries: %w", err)
	}

	available := 0.0
	for rows.Next() {
		var amount sql.NullString
		if err := rows.Scan(&amount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan locked entry: %w", err)
		}
		value, err := parseNumeric(amount)
		if err != nil {
			rows.Close()
			return nil, err
		}
		available += value
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating locked entries: %w", err)
	}
	rows.Close()

	requested := math.Abs(entry.AmountGCO2eq)
	if requested > available {
		return nil, &persistence.InsufficientSurplusError{
			ShipID:    shipID,
			Year:      year,
			Requested: requested,
			Available: available,
		}
	}

	insertQuery := `
		INSERT INTO bank_entries (id, ship_id, year, amount_gco2eq)
		VALUES ($1, $2, $3, $4)
		RETURNING id, ship_id, year, amount_gco2eq`

	saved, err := scanBankEntryRow(tx.QueryRowxContext(ctx, insertQuery,
		entry.ID, entry.ShipID, entry.Year, entry.AmountGCO2eq))
	if err != nil {
		return nil, fmt.Errorf("failed to append apply entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit apply transaction: %w", err)
	}

	return saved, nil
}

func scanBankEntries(rows *sqlx.Rows) ([]persistence.BankEntry, error) {
	var entries []persistence.BankEntry

	for rows.Next() {
		var entry persistence.BankEntry
		var amount sql.NullString

		if err := rows.Scan(&entry.ID, &entry.ShipID, &entry.Year, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan bank entry: %w", err)
		}

		value, err := parseNumeric(amount)
		if err != nil {
			return nil, err
		}
		entry.AmountGCO2eq = value

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bank entries: %w", err)
	}

	return entries, nil
}

func scanBankEntryRow(row *sqlx.Row) (*persistence.BankEntry, error) {
	var entry persistence.BankEntry
	var amount sql.NullString

	if err := row.Scan(&entry.ID, &entry.ShipID, &entry.Year, &amount); err != nil {
		return nil, err
	}

	value, err := parseNumeric(amount)
	if err != nil {
		return nil, err
	}
	entry.AmountGCO2eq = value

	return &entry, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is the full DDL for the compliance ledger. Statements are idempotent
// so Migrate can run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS routes (
		id               UUID PRIMARY KEY,
		route_id         TEXT NOT NULL UNIQUE,
		year             INT NOT NULL,
		ghg_intensity    NUMERIC NOT NULL,
		fuel_consumption NUMERIC NOT NULL,
		distance         NUMERIC NOT NULL DEFAULT 0,
		total_emissions  NUMERIC NOT NULL DEFAULT 0,
		is_baseline      BOOLEAN NOT NULL DEFAULT FALSE,
		vessel_type      TEXT NOT NULL DEFAULT '',
		fuel_type        TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS ships (
		id       TEXT PRIMARY KEY,
		name     TEXT NOT NULL DEFAULT '',
		route_id TEXT NOT NULL REFERENCES routes(route_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ship_compliance (
		id        UUID PRIMARY KEY,
		ship_id   TEXT NOT NULL,
		year      INT NOT NULL,
		cb_gco2eq NUMERIC NOT NULL,
		UNIQUE (ship_id, year)
	)`,
	`CREATE TABLE IF NOT EXISTS bank_entries (
		id            UUID PRIMARY KEY,
		ship_id       TEXT NOT NULL,
		year          INT NOT NULL,
		amount_gco2eq NUMERIC NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bank_entries_ship_year ON bank_entries (ship_id, year)`,
	`CREATE TABLE IF NOT EXISTS pools (
		id         UUID PRIMARY KEY,
		year       INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pool_members (
		pool_id   UUID NOT NULL REFERENCES pools(id),
		ship_id   TEXT NOT NULL,
		cb_before NUMERIC NOT NULL,
		cb_after  NUMERIC,
		PRIMARY KEY (pool_id, ship_id)
	)`,
}

// Migrate applies the ledger schema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}

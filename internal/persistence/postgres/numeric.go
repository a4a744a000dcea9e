package postgres

import (
	"database/sql"
	"fmt"
	"strconv"
)

// parseNumeric converts a NUMERIC column value to float64. lib/pq hands
// NUMERIC back as its text representation; a NULL (e.g. SUM over zero rows
// without COALESCE) parses as 0.
func parseNumeric(v sql.NullString) (float64, error) {
	if !v.Valid || v.String == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v.String, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed numeric value %q: %w", v.String, err)
	}
	return f, nil
}

package postgres

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		name  string
		input sql.NullString
		want  float64
	}{
		{"null is zero", sql.NullString{}, 0},
		{"empty is zero", sql.NullString{String: "", Valid: true}, 0},
		{"integer", sql.NullString{String: "800000", Valid: true}, 800000},
		{"decimal", sql.NullString{String: "-68191200.5", Valid: true}, -68191200.5},
		{"scientific", sql.NullString{String: "1.5e6", Valid: true}, 1500000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseNumeric(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseNumeric_Malformed(t *testing.T) {
	_, err := parseNumeric(sql.NullString{String: "not-a-number", Valid: true})
	require.Error(t, err)
}

// Package compliance computes FuelEU Maritime compliance balances.
//
// The balance for a ship-year is a pure function of its route data:
//
//	cb = (target intensity - attained GHG intensity) * fuel consumption * energy factor
//
// A positive balance is a surplus, a negative balance a deficit.
package compliance

import (
	"fmt"
	"math"

	"github.com/velamar/fueleu/internal/persistence"
)

// Params holds the regulatory constants used by the calculator. They are
// injected rather than compiled in so year-specific targets need no code change.
type Params struct {
	// TargetIntensity is the GHG intensity target in gCO2e/MJ.
	// The 2025 value is 2% below the 91.16 reference.
	TargetIntensity float64 `yaml:"target_intensity"`

	// EnergyPerTonne converts fuel consumption in tonnes to energy in MJ.
	EnergyPerTonne float64 `yaml:"energy_per_tonne"`
}

// DefaultParams returns the 2025 regulatory constants.
func DefaultParams() Params {
	return Params{
		TargetIntensity: 89.3368,
		EnergyPerTonne:  41000,
	}
}

// InvalidRouteError reports route data that cannot feed the balance formula.
type InvalidRouteError struct {
	RouteID string
	Field   string
	Value   float64
}

func (e *InvalidRouteError) Error() string {
	return fmt.Sprintf("invalid %s for route %s: %v", e.Field, e.RouteID, e.Value)
}

// Balance computes the compliance balance in gCO2eq for the given route.
// Fuel consumption must be a finite positive number and the attained GHG
// intensity finite; anything else returns an InvalidRouteError.
func (p Params) Balance(route persistence.Route) (float64, error) {
	if !isFinite(route.FuelConsumption) || route.FuelConsumption <= 0 {
		return 0, &InvalidRouteError{RouteID: route.RouteID, Field: "fuel_consumption", Value: route.FuelConsumption}
	}
	if !isFinite(route.GHGIntensity) {
		return 0, &InvalidRouteError{RouteID: route.RouteID, Field: "ghg_intensity", Value: route.GHGIntensity}
	}

	energy := route.FuelConsumption * p.EnergyPerTonne
	return (p.TargetIntensity - route.GHGIntensity) * energy, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

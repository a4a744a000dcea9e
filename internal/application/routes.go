package application

import (
	"context"
	"math"

	"github.com/velamar/fueleu/internal/persistence"
)

// RouteComparison is a non-baseline route compared against the baseline.
type RouteComparison struct {
	persistence.Route
	PercentDiff float64 `json:"percentDiff"`
	Compliant   bool    `json:"compliant"`
}

// RoutesService exposes the voyage reference data backing the calculator.
type RoutesService struct {
	routes persistence.RoutesRepo
}

// NewRoutesService creates a routes service.
func NewRoutesService(repos *persistence.Repository) *RoutesService {
	return &RoutesService{routes: repos.Routes}
}

// GetAllRoutes lists every route.
func (s *RoutesService) GetAllRoutes(ctx context.Context) ([]persistence.Route, error) {
	return s.routes.FindAll(ctx)
}

// SetRouteAsBaseline marks the route as the comparison baseline. Returns nil
// when the route does not exist.
func (s *RoutesService) SetRouteAsBaseline(ctx context.Context, id string) (*persistence.Route, error) {
	return s.routes.SetBaseline(ctx, id)
}

// GetComparison compares every non-baseline route against the baseline.
// Returns an empty list when no baseline is set.
func (s *RoutesService) GetComparison(ctx context.Context) ([]RouteComparison, error) {
	baseline, err := s.routes.FindBaseline(ctx)
	if err != nil {
		return nil, err
	}
	if baseline == nil {
		return []RouteComparison{}, nil
	}

	routes, err := s.routes.FindNonBaselineRoutes(ctx)
	if err != nil {
		return nil, err
	}

	comparison := make([]RouteComparison, 0, len(routes))
	for _, route := range routes {
		diff := (route.GHGIntensity - baseline.GHGIntensity) / baseline.GHGIntensity * 100
		comparison = append(comparison, RouteComparison{
			Route:       route,
			PercentDiff: math.Round(diff*100) / 100,
			Compliant:   route.GHGIntensity <= baseline.GHGIntensity,
		})
	}

	return comparison, nil
}

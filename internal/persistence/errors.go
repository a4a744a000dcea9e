package persistence

import "fmt"

// InsufficientSurplusError is returned by ApplyWithinTransaction when the
// requested withdrawal exceeds the surplus available at the locked read.
type InsufficientSurplusError struct {
	ShipID    string
	Year      int
	Requested float64
	Available float64
}

func (e *InsufficientSurplusError) Error() string {
	return fmt.Sprintf("insufficient banked surplus for ship %s year %d: requested %.2f, available %.2f",
		e.ShipID, e.Year, e.Requested, e.Available)
}

package application

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/velamar/fueleu/internal/persistence"
)

// BankingService records banked surplus and applications against the
// append-only ledger. Every mutation appends a row; nothing is updated in
// place. Retries are at-least-once: there is no idempotency key, so a caller
// retrying a timed-out bank or apply may append a second entry.
type BankingService struct {
	banking    persistence.BankingRepo
	compliance persistence.ComplianceRepo
}

// NewBankingService creates a banking service.
func NewBankingService(repos *persistence.Repository) *BankingService {
	return &BankingService{
		banking:    repos.Banking,
		compliance: repos.Compliance,
	}
}

// GetBankRecords lists a ship's ledger entries for the given year.
func (s *BankingService) GetBankRecords(ctx context.Context, shipID string, year int) ([]persistence.BankEntry, error) {
	return s.banking.FindByShipIDAndYear(ctx, shipID, year)
}

// BankComplianceBalance banks the ship's full raw compliance balance for the
// year. Returns (nil, nil) when no balance is recorded or the balance is not a
// surplus. Repeated banking in the same year is a caller error, not guarded
// here.
func (s *BankingService) BankComplianceBalance(ctx context.Context, shipID string, year int) (*persistence.BankEntry, error) {
	record, err := s.compliance.FindByShipIDAndYear(ctx, shipID, year)
	if err != nil {
		return nil, err
	}
	if record == nil || record.CBgCO2eq <= 0 {
		return nil, nil
	}

	entry := persistence.BankEntry{
		ID:           uuid.NewString(),
		ShipID:       shipID,
		Year:         year,
		AmountGCO2eq: record.CBgCO2eq,
	}

	return s.banking.Save(ctx, entry)
}

// ApplyBankedSurplus withdraws amount from the ship's banked surplus by
// appending a negative entry. The surplus check and the append happen in one
// store transaction over locked rows, so concurrent applies cannot overdraw.
func (s *BankingService) ApplyBankedSurplus(ctx context.Context, shipID string, year int, amount float64) (*persistence.BankEntry, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, &ValidationError{Field: "amount", Value: amount, Reason: "must be a positive number"}
	}

	entry := persistence.BankEntry{
		ID:           uuid.NewString(),
		ShipID:       shipID,
		Year:         year,
		AmountGCO2eq: -amount,
	}

	return s.banking.ApplyWithinTransaction(ctx, shipID, year, entry)
}

package http

import "time"

// ErrorResponse is the standard JSON error body.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// BankRequest is the body of POST /api/banking/bank.
type BankRequest struct {
	ShipID string `json:"shipId"`
	Year   int    `json:"year"`
}

// ApplyRequest is the body of POST /api/banking/apply.
type ApplyRequest struct {
	ShipID string  `json:"shipId"`
	Year   int     `json:"year"`
	Amount float64 `json:"amount"`
}

// CreatePoolRequest is the body of POST /api/pools.
type CreatePoolRequest struct {
	Year    int      `json:"year"`
	ShipIDs []string `json:"shipIds"`
}

// AdjustedCBResponse is the single-ship adjusted balance payload.
type AdjustedCBResponse struct {
	ShipID     string   `json:"shipId"`
	Year       int      `json:"year"`
	AdjustedCB *float64 `json:"adjustedCb"`
}

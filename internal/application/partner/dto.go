package partner

import "github.com/erp/paysync/internal/infrastructure/csvimport"

// AddCounterpartyRequest represents a request to track a counterparty
type AddCounterpartyRequest struct {
	Code string `json:"code" binding:"required,max=50"`
	Name string `json:"name" binding:"max=200"`
}

// RemoveCounterpartyRequest represents a request to stop tracking a counterparty
type RemoveCounterpartyRequest struct {
	Code string `json:"code" binding:"required"`
}

// CounterpartyResponse represents a counterparty in API responses
type CounterpartyResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ImportResult reports the outcome of a bulk import
type ImportResult struct {
	Added      int                  `json:"added"`
	Duplicates int                  `json:"duplicates"`
	Skipped    []csvimport.RowError `json:"skipped,omitempty"`
}

package partner

import "context"

// CounterpartyRepository defines the interface for counterparty persistence
type CounterpartyRepository interface {
	// List returns all counterparties ordered by code
	List(ctx context.Context) ([]Counterparty, error)

	// FindByCode returns shared.ErrNotFound when the code is unknown
	FindByCode(ctx context.Context, code string) (*Counterparty, error)

	// Add inserts the counterparty. It reports false without error when the
	// code is already present.
	Add(ctx context.Context, counterparty *Counterparty) (bool, error)

	// Remove deletes the counterparty. It reports false when nothing was deleted.
	Remove(ctx context.Context, code string) (bool, error)
}

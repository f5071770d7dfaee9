package document

import "context"

// Cache stores the last known version of each document keyed by internal id.
// Implementations must be safe for concurrent use; writes are last-write-wins.
type Cache interface {
	// Get returns (nil, nil) when the document is not cached
	Get(ctx context.Context, internalID string) (*Document, error)

	// Upsert replaces any stored version with the same internal id
	Upsert(ctx context.Context, doc *Document) error

	// ListInternalIDs returns the ids cached for one counterparty
	ListInternalIDs(ctx context.Context, counterpartyCode string) ([]string, error)
}

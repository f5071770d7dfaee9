package docsync

import (
	"context"
	"time"

	"github.com/erp/paysync/internal/domain/document"
)

// DocumentSource returns open ERP documents for a set of counterparties
type DocumentSource interface {
	FetchOpenDocuments(ctx context.Context, codes []string, since *time.Time) ([]document.Document, error)
}

// Deliverer posts a batch to the remote system. A nil error means the whole
// batch was acknowledged.
type Deliverer interface {
	Deliver(ctx context.Context, docs []document.Document) error
}

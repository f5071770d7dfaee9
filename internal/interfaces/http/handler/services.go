package handler

import (
	"context"
	"io"

	"github.com/erp/paysync/internal/application/docsync"
	"github.com/erp/paysync/internal/application/identity"
	"github.com/erp/paysync/internal/application/lookup"
	"github.com/erp/paysync/internal/application/partner"
)

// TokenIssuer issues and validates API tokens
type TokenIssuer interface {
	IssueToken(ctx context.Context, input identity.IssueTokenInput) (*identity.TokenResult, error)
	Validate(ctx context.Context, token string) (*identity.Principal, error)
}

// CounterpartyManager manages the tracked counterparties
type CounterpartyManager interface {
	List(ctx context.Context) ([]partner.CounterpartyResponse, error)
	Add(ctx context.Context, req partner.AddCounterpartyRequest) (*partner.CounterpartyResponse, error)
	Remove(ctx context.Context, req partner.RemoveCounterpartyRequest) error
	Import(ctx context.Context, filename string, r io.Reader) (*partner.ImportResult, error)
}

// DocumentQuerier resolves documents by internal id
type DocumentQuerier interface {
	Query(ctx context.Context, ids []string) (*lookup.Result, error)
}

// SyncController exposes the background sync loop
type SyncController interface {
	TriggerNow() error
	Jobs() []docsync.CycleReport
	Busy() bool
}

// Pinger checks a backing store
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ TokenIssuer         = (*identity.AuthService)(nil)
	_ CounterpartyManager = (*partner.CounterpartyService)(nil)
	_ DocumentQuerier     = (*lookup.Service)(nil)
)

// Package lookup resolves documents by internal id for API callers,
// cache first with the ERP as fallback.
package lookup

import (
	"context"
	"strings"

	"github.com/erp/paysync/internal/domain/document"
	"github.com/erp/paysync/internal/domain/shared"
	"github.com/erp/paysync/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// DocumentFetcher loads one document from the ERP
type DocumentFetcher interface {
	FetchByInternalID(ctx context.Context, internalID string) (*document.Document, error)
}

// Result holds the resolved documents in request order and the ids that
// could not be resolved
type Result struct {
	Documents []document.Document `json:"documents"`
	Missing   []string            `json:"missing"`
	Failed    []string            `json:"failed"`
}

// Service looks documents up by internal id
type Service struct {
	cache       document.Cache
	source      DocumentFetcher
	concurrency int
	logger      *zap.Logger
}

// NewService creates a lookup service. concurrency bounds the parallel ERP
// lookups of one request.
func NewService(cache document.Cache, source DocumentFetcher, concurrency int, logger *zap.Logger) *Service {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{cache: cache, source: source, concurrency: concurrency, logger: logger}
}

type outcome int

const (
	outcomeMissing outcome = iota
	outcomeFound
	outcomeFailed
)

type slot struct {
	doc     *document.Document
	outcome outcome
}

// Query resolves ids. One unresolved id never fails the request; it is
// reported in Missing or Failed instead.
func (s *Service) Query(ctx context.Context, ids []string) (*Result, error) {
	ids = normalizeIDs(ids)
	if len(ids) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "documentIds must contain at least one id")
	}

	slots := make([]slot, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			slots[i] = s.resolve(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{
		Documents: make([]document.Document, 0, len(ids)),
		Missing:   []string{},
		Failed:    []string{},
	}
	for i, sl := range slots {
		switch sl.outcome {
		case outcomeFound:
			res.Documents = append(res.Documents, *sl.doc)
		case outcomeFailed:
			res.Failed = append(res.Failed, ids[i])
		default:
			res.Missing = append(res.Missing, ids[i])
		}
	}
	return res, nil
}

func (s *Service) resolve(ctx context.Context, id string) slot {
	log := logger.WithLogger(ctx, s.logger)

	doc, err := s.cache.Get(ctx, id)
	if err != nil {
		log.Warn("Cache read failed, falling back to ERP", zap.String("internal_id", id), zap.Error(err))
	}
	if doc != nil {
		return slot{doc: doc, outcome: outcomeFound}
	}

	doc, err = s.source.FetchByInternalID(ctx, id)
	if err != nil {
		log.Warn("ERP lookup failed", zap.String("internal_id", id), zap.Error(err))
		return slot{outcome: outcomeFailed}
	}
	if doc == nil {
		return slot{outcome: outcomeMissing}
	}

	if err := s.cache.Upsert(ctx, doc); err != nil {
		log.Warn("Failed to cache looked up document", zap.String("internal_id", id), zap.Error(err))
	}
	return slot{doc: doc, outcome: outcomeFound}
}

// normalizeIDs trims ids and drops blanks and repeats, keeping order
func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

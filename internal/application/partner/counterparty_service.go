package partner

import (
	"context"
	"io"

	"github.com/erp/paysync/internal/domain/partner"
	"github.com/erp/paysync/internal/domain/shared"
	"github.com/erp/paysync/internal/infrastructure/csvimport"
	"go.uber.org/zap"
)

// CounterpartyService manages the set of counterparties tracked by sync
type CounterpartyService struct {
	repo   partner.CounterpartyRepository
	logger *zap.Logger
}

// NewCounterpartyService creates a new CounterpartyService
func NewCounterpartyService(repo partner.CounterpartyRepository, logger *zap.Logger) *CounterpartyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CounterpartyService{repo: repo, logger: logger}
}

// List returns all counterparties ordered by code
func (s *CounterpartyService) List(ctx context.Context) ([]CounterpartyResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CounterpartyResponse, 0, len(items))
	for _, c := range items {
		out = append(out, toResponse(c))
	}
	return out, nil
}

// Add starts tracking a counterparty. A known code is a conflict.
func (s *CounterpartyService) Add(ctx context.Context, req AddCounterpartyRequest) (*CounterpartyResponse, error) {
	c, err := partner.NewCounterparty(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	added, err := s.repo.Add(ctx, c)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Counterparty with this code already exists")
	}

	s.logger.Info("Counterparty added", zap.String("code", c.Code))
	resp := toResponse(*c)
	return &resp, nil
}

// Remove stops tracking a counterparty
func (s *CounterpartyService) Remove(ctx context.Context, req RemoveCounterpartyRequest) error {
	removed, err := s.repo.Remove(ctx, req.Code)
	if err != nil {
		return err
	}
	if !removed {
		return shared.NewDomainError("NOT_FOUND", "Counterparty not found")
	}
	s.logger.Info("Counterparty removed", zap.String("code", req.Code))
	return nil
}

// Import adds every new code found in the upload. Codes repeated in the
// file or already stored count as duplicates and are not errors.
func (s *CounterpartyService) Import(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	parsed, err := csvimport.Parse(filename, r)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	result := &ImportResult{Skipped: parsed.Skipped}
	seen := make(map[string]struct{}, len(parsed.Entries))
	for _, e := range parsed.Entries {
		if _, dup := seen[e.Code]; dup {
			result.Duplicates++
			continue
		}
		seen[e.Code] = struct{}{}

		c, err := partner.NewCounterparty(e.Code, e.Name)
		if err != nil {
			result.Skipped = append(result.Skipped, csvimport.RowError{
				Row: e.Line, Code: "ERR_IMPORT_INVALID", Message: err.Error(), Value: e.Code,
			})
			continue
		}
		added, err := s.repo.Add(ctx, c)
		if err != nil {
			return nil, err
		}
		if added {
			result.Added++
		} else {
			result.Duplicates++
		}
	}

	s.logger.Info("Counterparty import completed",
		zap.String("file", filename),
		zap.Int("added", result.Added),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

func toResponse(c partner.Counterparty) CounterpartyResponse {
	return CounterpartyResponse{Code: c.Code, Name: c.Name}
}

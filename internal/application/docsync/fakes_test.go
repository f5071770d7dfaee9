package docsync

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/erp/paysync/internal/domain/document"
	"github.com/erp/paysync/internal/domain/partner"
	"github.com/erp/paysync/internal/domain/watermark"
	"github.com/shopspring/decimal"
)

var errStorage = errors.New("storage unavailable")

type fakeCounterparties struct {
	items []partner.Counterparty
	err   error
}

func (f *fakeCounterparties) List(context.Context) ([]partner.Counterparty, error) {
	return f.items, f.err
}

func (f *fakeCounterparties) FindByCode(context.Context, string) (*partner.Counterparty, error) {
	return nil, errors.New("not used")
}

func (f *fakeCounterparties) Add(context.Context, *partner.Counterparty) (bool, error) {
	return false, errors.New("not used")
}

func (f *fakeCounterparties) Remove(context.Context, string) (bool, error) {
	return false, errors.New("not used")
}

type fakeCache struct {
	mu      sync.Mutex
	docs    map[string]document.Document
	failIDs map[string]bool
	upserts int
}

func newFakeCache() *fakeCache {
	return &fakeCache{docs: make(map[string]document.Document), failIDs: make(map[string]bool)}
}

func (c *fakeCache) Get(_ context.Context, id string) (*document.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.docs[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (c *fakeCache) Upsert(_ context.Context, doc *document.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upserts++
	if c.failIDs[doc.InternalID] {
		return errStorage
	}
	c.docs[doc.InternalID] = *doc
	return nil
}

func (c *fakeCache) ListInternalIDs(_ context.Context, code string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []string
	for id, d := range c.docs {
		if d.CounterpartyCode() == code {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeWatermarks struct {
	mu     sync.Mutex
	values map[string]time.Time
}

func newFakeWatermarks() *fakeWatermarks {
	return &fakeWatermarks{values: make(map[string]time.Time)}
}

func (w *fakeWatermarks) Get(_ context.Context, id string) (*time.Time, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.values[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (w *fakeWatermarks) Set(_ context.Context, id string, at time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.values[id] = at
	return nil
}

func (w *fakeWatermarks) MinimumWatermark(_ context.Context, ids []string) (*time.Time, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var found []*time.Time
	for _, id := range ids {
		if v, ok := w.values[id]; ok {
			found = append(found, &v)
		}
	}
	return watermark.Earliest(found...), nil
}

type fetchCall struct {
	codes []string
	since *time.Time
}

type fakeSource struct {
	docs  []document.Document
	err   error
	calls []fetchCall
}

func (s *fakeSource) FetchOpenDocuments(_ context.Context, codes []string, since *time.Time) ([]document.Document, error) {
	s.calls = append(s.calls, fetchCall{codes: codes, since: since})
	return s.docs, s.err
}

type fakeDeliverer struct {
	err     error
	batches [][]document.Document
	onCall  func()
}

func (d *fakeDeliverer) Deliver(_ context.Context, docs []document.Document) error {
	if d.onCall != nil {
		d.onCall()
	}
	d.batches = append(d.batches, docs)
	return d.err
}

// newDocument builds a normalized invoice with generated values
func newDocument(f *gofakeit.Faker, code, internalID string) document.Document {
	total := decimal.NewFromFloat(f.Price(10, 1000)).Round(2)
	tax := total.Mul(decimal.RequireFromString("0.21")).Round(2)
	issued := civil.DateOf(f.DateRange(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
	return document.Document{
		Type:              document.TypeInvoice,
		SerialNumber:      code + "-" + strconv.Itoa(f.Number(1, 99999)),
		InternalID:        internalID,
		IssuerID:          code,
		IssuerName:        f.Company(),
		IssueDate:         issued,
		AccountingDate:    issued,
		Currency:          "USD",
		Amount:            total.Sub(tax),
		Tax:               tax,
		NetIncome:         total,
		NetOutcome:        total,
		Status:            document.StatusReceived,
		CreditNoteSerials: []string{},
		Compensations:     []document.Compensation{},
		OriginatorID:      "unknown",
	}
}

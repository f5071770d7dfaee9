// Package document contains the canonical representation of ERP invoices and
// credit notes, the normalizer that builds it from raw ERP rows, and the cache
// port used by the sync and lookup paths.
package document

import (
	"slices"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Type is the kind of financial document
type Type string

const (
	TypeInvoice    Type = "INVOICE"
	TypeCreditNote Type = "CREDITNOTE"
)

// IsValid reports whether the type is a known document type
func (t Type) IsValid() bool {
	return t == TypeInvoice || t == TypeCreditNote
}

// Status is the payment status reported to the remote system
type Status string

const (
	StatusReceived Status = "RECEIVED"
)

// Compensation is an offset applied against a document
type Compensation struct {
	Date     civil.Date      `json:"date"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Type     string          `json:"type"`
	Status   string          `json:"status"`
}

// Document is the canonical form of one invoice or credit note.
// InternalID is the ERP entry id and the cache and dedup key.
type Document struct {
	Type              Type            `json:"documentType"`
	SerialNumber      string          `json:"serialNumber"`
	InternalID        string          `json:"internalId"`
	BuyerID           string          `json:"buyerId"`
	IssuerID          string          `json:"issuerId"`
	IssuerName        string          `json:"issuerName"`
	Comment           string          `json:"comment,omitempty"`
	IssueDate         civil.Date      `json:"issueDate"`
	AccountingDate    civil.Date      `json:"accountingDate"`
	Currency          string          `json:"currency"`
	Amount            decimal.Decimal `json:"amount"`
	Tax               decimal.Decimal `json:"tax"`
	NetIncome         decimal.Decimal `json:"netIncome"`
	Deductions        decimal.Decimal `json:"deductions"`
	Discounts         decimal.Decimal `json:"discounts"`
	NetOutcome        decimal.Decimal `json:"netOutcome"`
	PayDateScheduled  *civil.Date     `json:"payDateScheduled,omitempty"`
	PayDateExecuted   *civil.Date     `json:"payDateExecuted,omitempty"`
	LastUpdatedAt     *civil.DateTime `json:"lastUpdatedAt,omitempty"`
	AmountPaid        decimal.Decimal `json:"amountPaid"`
	Status            Status          `json:"status"`
	BeneficiaryID     *string         `json:"beneficiaryId,omitempty"`
	CreditNoteSerials []string        `json:"creditNoteSerials"`
	Compensations     []Compensation  `json:"compensations"`
	OriginatorID      string          `json:"originatorId"`
}

// CounterpartyCode returns the ERP card code of the issuing counterparty
func (d *Document) CounterpartyCode() string {
	return d.IssuerID
}

// Equal reports whether two documents carry the same values.
// Monetary fields are compared numerically.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.Type != o.Type ||
		d.SerialNumber != o.SerialNumber ||
		d.InternalID != o.InternalID ||
		d.BuyerID != o.BuyerID ||
		d.IssuerID != o.IssuerID ||
		d.IssuerName != o.IssuerName ||
		d.Comment != o.Comment ||
		d.IssueDate != o.IssueDate ||
		d.AccountingDate != o.AccountingDate ||
		d.Currency != o.Currency ||
		d.Status != o.Status ||
		d.OriginatorID != o.OriginatorID {
		return false
	}
	if !d.Amount.Equal(o.Amount) ||
		!d.Tax.Equal(o.Tax) ||
		!d.NetIncome.Equal(o.NetIncome) ||
		!d.Deductions.Equal(o.Deductions) ||
		!d.Discounts.Equal(o.Discounts) ||
		!d.NetOutcome.Equal(o.NetOutcome) ||
		!d.AmountPaid.Equal(o.AmountPaid) {
		return false
	}
	if !equalPtr(d.PayDateScheduled, o.PayDateScheduled) ||
		!equalPtr(d.PayDateExecuted, o.PayDateExecuted) ||
		!equalPtr(d.LastUpdatedAt, o.LastUpdatedAt) ||
		!equalPtr(d.BeneficiaryID, o.BeneficiaryID) {
		return false
	}
	if !slices.Equal(d.CreditNoteSerials, o.CreditNoteSerials) {
		return false
	}
	return slices.EqualFunc(d.Compensations, o.Compensations, func(a, b Compensation) bool {
		return a.Date == b.Date &&
			a.Currency == b.Currency &&
			a.Amount.Equal(b.Amount) &&
			a.Type == b.Type &&
			a.Status == b.Status
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Dedupe keeps the first document seen for each internal id, preserving order
func Dedupe(docs []Document) []Document {
	seen := make(map[string]struct{}, len(docs))
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if _, ok := seen[d.InternalID]; ok {
			continue
		}
		seen[d.InternalID] = struct{}{}
		out = append(out, d)
	}
	return out
}

// InternalIDs returns the internal ids of the documents in order
func InternalIDs(docs []Document) []string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.InternalID)
	}
	return ids
}

package document

import (
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// RawRecord is one row of the ERP open-document query.
// Nil pointers and empty strings mean the column was NULL.
type RawRecord struct {
	EntryID    string
	DocNum     string
	DocDate    *time.Time
	CardCode   string
	CardName   string
	DocTotal   *decimal.Decimal
	VatSum     *decimal.Decimal
	Comments   string
	UpdateDate *time.Time
	UpdateTime string
}

// NormalizeOptions carries the values that do not come from the ERP row
type NormalizeOptions struct {
	Currency     string
	OriginatorID string
	BuyerID      string
}

// DefaultNormalizeOptions returns the options used when nothing is configured
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{
		Currency:     "USD",
		OriginatorID: "unknown",
	}
}

// Normalize maps a raw ERP record into a Document.
// It returns a *MappingError when a required column is missing or malformed.
func Normalize(rec RawRecord, t Type, opts NormalizeOptions) (*Document, error) {
	entryID := strings.TrimSpace(rec.EntryID)
	if entryID == "" {
		return nil, newMappingError(rec.EntryID, "DocEntry", "missing internal id")
	}
	if !t.IsValid() {
		return nil, newMappingError(entryID, "DocType", "unknown document type "+string(t))
	}
	if rec.DocTotal == nil {
		return nil, newMappingError(entryID, "DocTotal", "missing document total")
	}
	cardCode := strings.TrimSpace(rec.CardCode)
	if cardCode == "" {
		return nil, newMappingError(entryID, "CardCode", "missing counterparty code")
	}
	if rec.DocDate == nil {
		return nil, newMappingError(entryID, "DocDate", "missing document date")
	}

	updatedAt, err := combineUpdateTimestamp(rec.UpdateDate, rec.UpdateTime)
	if err != nil {
		return nil, newMappingError(entryID, "UpdateTime", err.Error())
	}

	total := *rec.DocTotal
	vat := decimal.Zero
	if rec.VatSum != nil {
		vat = *rec.VatSum
	}
	issued := civil.DateOf(*rec.DocDate)

	return &Document{
		Type:              t,
		SerialNumber:      cardCode + "-" + strings.TrimSpace(rec.DocNum),
		InternalID:        entryID,
		BuyerID:           opts.BuyerID,
		IssuerID:          cardCode,
		IssuerName:        rec.CardName,
		Comment:           rec.Comments,
		IssueDate:         issued,
		AccountingDate:    issued,
		Currency:          opts.Currency,
		Amount:            total.Sub(vat),
		Tax:               vat,
		NetIncome:         total,
		Deductions:        decimal.Zero,
		Discounts:         decimal.Zero,
		NetOutcome:        total,
		LastUpdatedAt:     updatedAt,
		AmountPaid:        decimal.Zero,
		Status:            StatusReceived,
		CreditNoteSerials: []string{},
		Compensations:     []Compensation{},
		OriginatorID:      opts.OriginatorID,
	}, nil
}

// combineUpdateTimestamp joins the ERP update date with its HHMMSS time column.
// A missing or non-numeric time keeps the date at midnight.
func combineUpdateTimestamp(date *time.Time, hhmmss string) (*civil.DateTime, error) {
	if date == nil {
		return nil, nil
	}
	dt := civil.DateTime{Date: civil.DateOf(*date)}

	raw := strings.TrimSpace(hhmmss)
	if raw == "" {
		return &dt, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return &dt, nil
	}
	padded := strconv.Itoa(n)
	if len(padded) > 6 {
		return nil, errInvalidUpdateTime(raw)
	}
	padded = strings.Repeat("0", 6-len(padded)) + padded

	hh, _ := strconv.Atoi(padded[0:2])
	mm, _ := strconv.Atoi(padded[2:4])
	ss, _ := strconv.Atoi(padded[4:6])
	dt.Time = civil.Time{Hour: hh, Minute: mm, Second: ss}
	if !dt.Time.IsValid() {
		return nil, errInvalidUpdateTime(raw)
	}
	return &dt, nil
}

package remote

import (
	"time"

	"github.com/erp/paysync/internal/domain/document"
)

// dateTimeLayout is the ERP wall-clock format expected in dt_updated.
// Calendar dates use civil.Date's ISO form.
const dateTimeLayout = "2006-01-02 15:04:05"

// compensationPayload is the wire form of document.Compensation
type compensationPayload struct {
	Date     string  `json:"dt"`
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
	Type     string  `json:"type"`
	Status   string  `json:"status"`
}

// documentPayload is the document shape accepted by POST /document.
// Money travels as JSON numbers.
type documentPayload struct {
	DocumentType       string                `json:"documentType"`
	SerialNumber       string                `json:"serialNumber"`
	NumDoc             string                `json:"numDoc"`
	BuyerID            string                `json:"buyerID"`
	IssuerID           string                `json:"issuerID"`
	IssuerName         string                `json:"issuerName"`
	Comment            string                `json:"comment"`
	IssueDate          string                `json:"issueDate"`
	AccountingDate     string                `json:"accountingDate"`
	Currency           string                `json:"currency"`
	Amount             float64               `json:"amount"`
	Tax                float64               `json:"tax"`
	NetIncome          float64               `json:"netIncome"`
	Deductions         float64               `json:"deductions"`
	Discounts          float64               `json:"discounts"`
	NetOutcome         float64               `json:"netOutcome"`
	PayDateScheduled   *string               `json:"payDateScheduled"`
	PayDateExecuted    *string               `json:"payDateExecuted"`
	UpdatedAt          *string               `json:"dt_updated"`
	AmountPaid         float64               `json:"amountPaid"`
	Status             string                `json:"status"`
	BeneficiaryID      *string               `json:"beneficiaryID"`
	CreditNotesSerials []string              `json:"creditNotesSerials"`
	Compensations      []compensationPayload `json:"compensations"`
	FreelancerID       string                `json:"freelancerId"`
}

func toPayload(d *document.Document) documentPayload {
	p := documentPayload{
		DocumentType:       string(d.Type),
		SerialNumber:       d.SerialNumber,
		NumDoc:             d.InternalID,
		BuyerID:            d.BuyerID,
		IssuerID:           d.IssuerID,
		IssuerName:         d.IssuerName,
		Comment:            d.Comment,
		IssueDate:          d.IssueDate.String(),
		AccountingDate:     d.AccountingDate.String(),
		Currency:           d.Currency,
		Amount:             d.Amount.InexactFloat64(),
		Tax:                d.Tax.InexactFloat64(),
		NetIncome:          d.NetIncome.InexactFloat64(),
		Deductions:         d.Deductions.InexactFloat64(),
		Discounts:          d.Discounts.InexactFloat64(),
		NetOutcome:         d.NetOutcome.InexactFloat64(),
		AmountPaid:         d.AmountPaid.InexactFloat64(),
		Status:             string(d.Status),
		BeneficiaryID:      d.BeneficiaryID,
		CreditNotesSerials: d.CreditNoteSerials,
		Compensations:      make([]compensationPayload, 0, len(d.Compensations)),
		FreelancerID:       d.OriginatorID,
	}
	if p.CreditNotesSerials == nil {
		p.CreditNotesSerials = []string{}
	}
	if d.PayDateScheduled != nil {
		s := d.PayDateScheduled.String()
		p.PayDateScheduled = &s
	}
	if d.PayDateExecuted != nil {
		s := d.PayDateExecuted.String()
		p.PayDateExecuted = &s
	}
	if d.LastUpdatedAt != nil {
		s := d.LastUpdatedAt.In(time.UTC).Format(dateTimeLayout)
		p.UpdatedAt = &s
	}
	for _, c := range d.Compensations {
		p.Compensations = append(p.Compensations, compensationPayload{
			Date:     c.Date.String(),
			Currency: c.Currency,
			Amount:   c.Amount.InexactFloat64(),
			Type:     c.Type,
			Status:   c.Status,
		})
	}
	return p
}

func toPayloads(docs []document.Document) []documentPayload {
	out := make([]documentPayload, 0, len(docs))
	for i := range docs {
		out = append(out, toPayload(&docs[i]))
	}
	return out
}

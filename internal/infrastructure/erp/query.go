package erp

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/paysync/internal/domain/document"
)

// documentSource is one ERP table holding a document type
type documentSource struct {
	table   string
	docType document.Type
}

// Invoices are read before credit notes.
var documentSources = []documentSource{
	{table: "OINV", docType: document.TypeInvoice},
	{table: "ORIN", docType: document.TypeCreditNote},
}

const selectColumns = "T0.DocEntry, T0.DocNum, T0.DocDate, T0.CardCode, T0.CardName, " +
	"T0.DocTotal, T0.VatSum, T0.Comments, T0.UpdateDate, T0.UpdateTime"

// quoteLiteral renders s as a T-SQL string literal
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// openDocumentsQuery selects the open documents of table for the given
// counterparty codes. codes must not be empty.
func openDocumentsQuery(table string, codes []string, since *time.Time, loc *time.Location) string {
	quoted := make([]string, len(codes))
	for i, c := range codes {
		quoted[i] = quoteLiteral(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s T0 WHERE T0.CardCode IN (%s) AND T0.DocStatus = 'O'",
		selectColumns, table, strings.Join(quoted, ", "))
	if since != nil {
		b.WriteString(" ")
		b.WriteString(sinceClause(*since, loc))
	}
	return b.String()
}

// sinceClause restricts rows to those updated after t on the ERP wall clock.
// Rows without an update date are always included.
func sinceClause(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	day := quoteLiteral(local.Format("20060102"))
	hhmmss := local.Hour()*10000 + local.Minute()*100 + local.Second()
	return fmt.Sprintf("AND (T0.UpdateDate > %s OR (T0.UpdateDate = %s AND T0.UpdateTime > %d) OR T0.UpdateDate IS NULL)",
		day, day, hhmmss)
}

// byInternalIDQuery selects the document of table with the given entry id
func byInternalIDQuery(table, internalID string) string {
	return fmt.Sprintf("SELECT %s FROM %s T0 WHERE T0.DocEntry = %s", selectColumns, table, quoteLiteral(internalID))
}
